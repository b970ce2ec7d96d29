// Package search retrieves memory by fusing two independent ranking
// signals: dense similarity from the vector index and sparse TF-IDF
// similarity over an in-memory snapshot. Rankings are combined with
// reciprocal rank fusion, which sidesteps score normalization across the
// two metrics by fusing on rank alone.
package search
