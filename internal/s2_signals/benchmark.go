package s2_signals

import "github.com/Cocofu92/rs-dashboard/internal/contracts"

// ComputeBenchmark turns the benchmark's scoring outcome into a BenchmarkReturn.
// A failed fetch/score or a non-positive return marks it unavailable; the run
// then ranks on absolute weighted return.
func ComputeBenchmark(ticker string, score *contracts.MomentumScore, err error) contracts.BenchmarkReturn {
	b := contracts.BenchmarkReturn{Ticker: ticker}

	switch {
	case err != nil:
		b.Reason = err.Error()
	case score == nil:
		b.Reason = "no score"
	case score.WeightedReturn == 0:
		b.Reason = "zero weighted return"
	case score.WeightedReturn < 0:
		b.Reason = "negative weighted return"
	default:
		b.WeightedReturn = score.WeightedReturn
		b.Available = true
	}
	return b
}

// ComputeRelative divides a candidate's weighted return by the benchmark's.
// ok is false when the benchmark is unusable; no division happens then.
func ComputeRelative(benchmark contracts.BenchmarkReturn, candidate float64) (float64, bool) {
	if !benchmark.Usable() {
		return 0, false
	}
	return candidate / benchmark.WeightedReturn, true
}
