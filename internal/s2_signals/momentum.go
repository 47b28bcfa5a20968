package s2_signals

import (
	"fmt"
	"math"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/strategyconfig"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

// MomentumScorer computes the weighted multi-horizon return and trend flags
// ⭐ SSOT: 모멘텀 점수 계산은 여기서만
type MomentumScorer struct {
	offsets  []int
	weights  []float64
	emaShort int
	emaLong  int
	logger   *logger.Logger
}

// NewMomentumScorer creates a scorer from validated momentum settings
func NewMomentumScorer(cfg strategyconfig.Momentum, log *logger.Logger) *MomentumScorer {
	return &MomentumScorer{
		offsets:  append([]int(nil), cfg.Offsets...),
		weights:  append([]float64(nil), cfg.Weights...),
		emaShort: cfg.EMAShort,
		emaLong:  cfg.EMALong,
		logger:   log,
	}
}

// Score derives a MomentumScore from one series.
// Every failure wraps contracts.ErrInvalidComputation.
func (s *MomentumScorer) Score(series *contracts.PriceSeries) (*contracts.MomentumScore, error) {
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("empty series: %w", contracts.ErrInvalidComputation)
	}

	closes := series.Closes()

	weighted, legs, err := WeightedReturn(closes, s.offsets, s.weights)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", series.Ticker, err)
	}

	emaShort, err := LastEMA(closes, s.emaShort)
	if err != nil {
		return nil, fmt.Errorf("%s: ema%d: %w", series.Ticker, s.emaShort, err)
	}
	emaLong, err := LastEMA(closes, s.emaLong)
	if err != nil {
		return nil, fmt.Errorf("%s: ema%d: %w", series.Ticker, s.emaLong, err)
	}

	last := closes[len(closes)-1]
	score := &contracts.MomentumScore{
		Ticker:         series.Ticker,
		WeightedReturn: weighted,
		Returns:        legs,
		EMAShort:       emaShort,
		EMALong:        emaLong,
		AboveEMAShort:  last > emaShort,
		AboveEMALong:   last > emaLong,
		AvgVolume:      Mean(series.Volumes()),
		LastPrice:      last,
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker":          series.Ticker,
		"weighted_return": weighted,
		"above_short":     score.AboveEMAShort,
		"above_long":      score.AboveEMALong,
	}).Debug("Calculated momentum score")

	return score, nil
}

// WeightedReturn returns Σ weight_k · return(offset_k) and the individual legs.
// A leg longer than the history fails the whole computation; a shorter
// window is never substituted.
func WeightedReturn(closes []float64, offsets []int, weights []float64) (float64, []float64, error) {
	if len(offsets) != len(weights) {
		return 0, nil, fmt.Errorf("offsets/weights length mismatch: %w", contracts.ErrInvalidComputation)
	}

	legs := make([]float64, len(offsets))
	weighted := 0.0
	for k, offset := range offsets {
		r, err := periodReturn(closes, offset)
		if err != nil {
			return 0, nil, err
		}
		legs[k] = r
		weighted += weights[k] * r
	}

	if math.IsNaN(weighted) || math.IsInf(weighted, 0) {
		return 0, nil, fmt.Errorf("weighted return not finite: %w", contracts.ErrInvalidComputation)
	}
	return weighted, legs, nil
}

// periodReturn is (c[n-1] - c[n-1-offset]) / c[n-1-offset]
func periodReturn(closes []float64, offset int) (float64, error) {
	n := len(closes)
	base := n - 1 - offset
	if offset < 0 || base < 0 {
		return 0, fmt.Errorf("offset %d exceeds %d bars: %w", offset, n, contracts.ErrInvalidComputation)
	}

	past := closes[base]
	if past == 0 {
		return 0, fmt.Errorf("zero base price at offset %d: %w", offset, contracts.ErrInvalidComputation)
	}

	r := (closes[n-1] - past) / past
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, fmt.Errorf("return at offset %d not finite: %w", offset, contracts.ErrInvalidComputation)
	}
	return r, nil
}
