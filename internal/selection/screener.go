package selection

import (
	"fmt"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/strategyconfig"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

// Gate names reported as RankedCandidate.FailReason
const (
	GatePrice     = "price"
	GateAvgVolume = "avg_volume"
	GateMarketCap = "market_cap"
)

// Screener applies the liquidity / trend / fundamental gates
// ⭐ SSOT: 게이트 판정은 여기서만
type Screener struct {
	filters  strategyconfig.Filters
	emaShort int
	emaLong  int
	logger   *logger.Logger
}

// NewScreener creates a new screener
func NewScreener(cfg *strategyconfig.Config, log *logger.Logger) *Screener {
	return &Screener{
		filters:  cfg.Filters,
		emaShort: cfg.Momentum.EMAShort,
		emaLong:  cfg.Momentum.EMALong,
		logger:   log,
	}
}

// Screen sets PassesFilter / FailReason on every candidate and
// returns counts per failing gate
func (s *Screener) Screen(candidates []contracts.RankedCandidate) map[string]int {
	filtered := make(map[string]int)
	passed := 0

	for i := range candidates {
		reason := s.checkConditions(&candidates[i])
		candidates[i].PassesFilter = reason == ""
		candidates[i].FailReason = reason
		if reason == "" {
			passed++
		} else {
			filtered[reason]++
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input":  len(candidates),
		"passed":       passed,
		"filtered_out": len(candidates) - passed,
		"filters":      filtered,
	}).Info("Screening completed")

	return filtered
}

// checkConditions checks gates in order
// Returns empty string if passed, otherwise returns the first failing gate
func (s *Screener) checkConditions(c *contracts.RankedCandidate) string {
	if c.LastPrice < s.filters.MinPrice {
		return GatePrice
	}

	if c.AvgVolume < s.filters.MinAvgVolume {
		return GateAvgVolume
	}

	if s.filters.MinMarketCap > 0 {
		if !s.meets(c.Fundamentals.Metric(contracts.MetricMarketCap), s.filters.MinMarketCap) {
			return GateMarketCap
		}
	}

	if s.filters.RequireAboveEMAShort && !c.AboveEMAShort {
		return fmt.Sprintf("ema%d", s.emaShort)
	}

	if s.filters.RequireAboveEMALong && !c.AboveEMALong {
		return fmt.Sprintf("ema%d", s.emaLong)
	}

	for _, th := range s.filters.Fundamentals.Thresholds() {
		v := c.Fundamentals.Metric(contracts.FundamentalMetric(th.Metric))
		if !s.meets(v, th.Min) {
			return th.Gate
		}
	}

	return ""
}

// meets applies the missing-fundamentals policy: absent is never zero
func (s *Screener) meets(v *float64, min float64) bool {
	if v == nil {
		return s.filters.MissingFundamentals == strategyconfig.MissingPass
	}
	return *v >= min
}
