package s2_signals

import (
	"fmt"
	"math"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
)

// EMA returns the exponential moving average of x at span p.
// Seeded with SMA(p) at index p-1; earlier entries are NaN.
func EMA(x []float64, p int) []float64 {
	if p <= 0 {
		return nil
	}
	out := make([]float64, len(x))
	if len(x) < p {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	k := 2.0 / float64(p+1)

	var seed float64
	for i := 0; i < p; i++ {
		seed += x[i]
	}
	seed /= float64(p)
	for i := 0; i < p-1; i++ {
		out[i] = math.NaN()
	}
	out[p-1] = seed
	for i := p; i < len(x); i++ {
		out[i] = (x[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// LastEMA returns the final EMA value, failing when fewer than p bars exist
func LastEMA(x []float64, p int) (float64, error) {
	if p <= 0 || len(x) < p {
		return 0, fmt.Errorf("need %d bars, have %d: %w", p, len(x), contracts.ErrInvalidComputation)
	}
	v := EMA(x, p)[len(x)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("ema not finite: %w", contracts.ErrInvalidComputation)
	}
	return v, nil
}

// Mean is the arithmetic mean; 0 for an empty slice
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}
