package search

import "sort"

// RRFDampingConstant is the rank damping constant in reciprocal rank fusion.
// It controls how quickly contributions fall off with rank and is
// deliberately a separate knob from the caller's result count.
const RRFDampingConstant = 60

// FusedResult is one fused ranking entry with its accumulated score.
type FusedResult struct {
	ID    string
	Score float64
}

// ReciprocalRankFusion fuses ranked id lists: each item accumulates
// 1/(RRFDampingConstant+rank) per list it appears in, with rank zero-based,
// so items ranked well by multiple lists rise above items ranked well by
// one. The fused list is sorted by descending score and truncated to k
// (k <= 0 keeps everything); ties keep first-encountered input order.
func ReciprocalRankFusion(k int, lists ...[]string) []FusedResult {
	scores := make(map[string]float64)
	var order []string

	for _, list := range lists {
		for rank, id := range list {
			if _, seen := scores[id]; !seen {
				order = append(order, id)
			}
			scores[id] += 1.0 / float64(RRFDampingConstant+rank)
		}
	}

	fused := make([]FusedResult, len(order))
	for i, id := range order {
		fused[i] = FusedResult{ID: id, Score: scores[id]}
	}
	sort.SliceStable(fused, func(a, b int) bool { return fused[a].Score > fused[b].Score })

	if k > 0 && len(fused) > k {
		fused = fused[:k]
	}
	return fused
}
