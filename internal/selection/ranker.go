package selection

import (
	"sort"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
)

// Percentiles returns the percentile rank of each value (0-100).
// Ties get the average of their ranks, so they share one percentile;
// the result is independent of input order.
// ⭐ SSOT: 백분위 계산은 여기서만
func Percentiles(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	for i, v := range values {
		below := sort.SearchFloat64s(sorted, v)
		upto := sort.Search(n, func(j int) bool { return sorted[j] > v })
		// 동점: 순위 평균 (below+1 .. upto)
		rank := float64(below) + float64(upto-below+1)/2
		out[i] = rank / float64(n) * 100
	}
	return out
}

// sortCandidates orders most-favorable first: sort key desc, ticker asc
func sortCandidates(c []contracts.RankedCandidate) {
	sort.SliceStable(c, func(i, j int) bool {
		ki, kj := c[i].SortKey(), c[j].SortKey()
		if ki != kj {
			return ki > kj
		}
		return c[i].Ticker < c[j].Ticker
	})
}
