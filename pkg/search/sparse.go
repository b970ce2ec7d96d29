package search

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"
)

// ScoredDoc is one sparse retrieval hit.
type ScoredDoc struct {
	ID    string
	Score float64
}

// SparseRetriever ranks documents by TF-IDF cosine similarity against an
// in-memory index. Build replaces the whole index atomically, so Search is
// safe to call concurrently with Build; readers see either the old or the
// new snapshot, never a partial one.
//
// The full rebuild-per-call design is a deliberate scope limitation: it is
// sized for small working sets, not a persistent inverted index.
type SparseRetriever struct {
	snapshot atomic.Pointer[sparseIndex]
}

type sparseIndex struct {
	ids     []string
	weights []map[string]float64 // per-doc term -> tf-idf weight
	norms   []float64
	idf     map[string]float64
}

// NewSparseRetriever creates a retriever with an empty index.
func NewSparseRetriever() *SparseRetriever {
	r := &SparseRetriever{}
	r.snapshot.Store(buildIndex(nil, nil))
	return r
}

// Build indexes exactly the supplied (docs, ids) pair, replacing any prior
// index. An empty docs slice yields an index that answers every query with
// an empty result.
func (r *SparseRetriever) Build(docs, ids []string) error {
	if len(docs) != len(ids) {
		return fmt.Errorf("docs and ids length mismatch: %d vs %d", len(docs), len(ids))
	}
	r.snapshot.Store(buildIndex(docs, ids))
	return nil
}

// Size returns the number of indexed documents.
func (r *SparseRetriever) Size() int {
	return len(r.snapshot.Load().ids)
}

// Search returns up to topK documents with strictly positive similarity to
// the query, ordered by descending score; ties keep original document
// order. Degenerate queries return an empty result, never an error.
func (r *SparseRetriever) Search(query string, topK int) []ScoredDoc {
	idx := r.snapshot.Load()
	if len(idx.ids) == 0 {
		return nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	queryTF := make(map[string]float64)
	for _, t := range terms {
		queryTF[t]++
	}
	queryWeights := make(map[string]float64, len(queryTF))
	var queryNorm float64
	for t, tf := range queryTF {
		idf, ok := idx.idf[t]
		if !ok {
			continue
		}
		w := tf * idf
		queryWeights[t] = w
		queryNorm += w * w
	}
	if queryNorm == 0 {
		return nil
	}
	queryNorm = math.Sqrt(queryNorm)

	type hit struct {
		pos   int
		score float64
	}
	var hits []hit
	for i := range idx.ids {
		var dot float64
		for t, qw := range queryWeights {
			if dw, ok := idx.weights[i][t]; ok {
				dot += qw * dw
			}
		}
		if dot <= 0 {
			continue
		}
		score := dot / (queryNorm * idx.norms[i])
		hits = append(hits, hit{pos: i, score: score})
	}

	// Stable sort keeps original document order on score ties.
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}

	results := make([]ScoredDoc, len(hits))
	for i, h := range hits {
		results[i] = ScoredDoc{ID: idx.ids[h.pos], Score: h.score}
	}
	return results
}

func buildIndex(docs, ids []string) *sparseIndex {
	idx := &sparseIndex{
		ids:     append([]string(nil), ids...),
		weights: make([]map[string]float64, len(docs)),
		norms:   make([]float64, len(docs)),
		idf:     make(map[string]float64),
	}

	docTerms := make([]map[string]float64, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		tf := make(map[string]float64)
		for _, t := range tokenize(doc) {
			tf[t]++
		}
		docTerms[i] = tf
		for t := range tf {
			df[t]++
		}
	}

	n := float64(len(docs))
	for t, count := range df {
		// Smoothed idf keeps weights positive even for terms present in
		// every document.
		idx.idf[t] = math.Log(1+n/float64(count)) + 1
	}

	for i, tf := range docTerms {
		weights := make(map[string]float64, len(tf))
		var norm float64
		for t, count := range tf {
			w := count * idx.idf[t]
			weights[t] = w
			norm += w * w
		}
		idx.weights[i] = weights
		if norm > 0 {
			idx.norms[i] = math.Sqrt(norm)
		} else {
			idx.norms[i] = 1
		}
	}

	return idx
}
