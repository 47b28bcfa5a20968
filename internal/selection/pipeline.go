package selection

import (
	"sort"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/s2_signals"
	"github.com/Cocofu92/rs-dashboard/internal/strategyconfig"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

// Pipeline ranks scored tickers and selects the output set
// ⭐ SSOT: 랭킹 → 게이트 → 선택 순서는 여기서만
type Pipeline struct {
	screener *Screener
	ranking  strategyconfig.Ranking
	logger   *logger.Logger
}

// NewPipeline creates a ranking pipeline
func NewPipeline(cfg *strategyconfig.Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		screener: NewScreener(cfg, log),
		ranking:  cfg.Ranking,
		logger:   log,
	}
}

// Rank builds one RankedCandidate per score, most favorable first.
//
// universe basis: percentile over every score, then gate.
// filtered basis: gate first, percentile over passers only; failers keep 0.
func (p *Pipeline) Rank(
	scores []contracts.MomentumScore,
	fundamentals map[string]*contracts.Fundamentals,
	benchmark contracts.BenchmarkReturn,
) []contracts.RankedCandidate {
	// 완료 순서와 무관하게 결정적 결과
	ordered := append([]contracts.MomentumScore(nil), scores...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Ticker < ordered[j].Ticker })

	ranked := make([]contracts.RankedCandidate, len(ordered))
	for i, s := range ordered {
		ranked[i] = contracts.RankedCandidate{
			Ticker:        s.Ticker,
			RawScore:      s.WeightedReturn,
			LastPrice:     s.LastPrice,
			AvgVolume:     s.AvgVolume,
			AboveEMAShort: s.AboveEMAShort,
			AboveEMALong:  s.AboveEMALong,
			Fundamentals:  fundamentals[s.Ticker],
		}
		if rel, ok := s2_signals.ComputeRelative(benchmark, s.WeightedReturn); ok {
			ranked[i].RelativeScore = &rel
		}
	}

	switch p.ranking.PercentileBasis {
	case strategyconfig.BasisFiltered:
		p.screener.Screen(ranked)
		assignPercentiles(ranked, func(c *contracts.RankedCandidate) bool { return c.PassesFilter })
	default:
		assignPercentiles(ranked, func(*contracts.RankedCandidate) bool { return true })
		p.screener.Screen(ranked)
	}

	sortCandidates(ranked)

	p.logger.WithFields(map[string]interface{}{
		"candidates": len(ranked),
		"basis":      p.ranking.PercentileBasis,
		"relative":   benchmark.Usable(),
	}).Info("Ranking completed")

	return ranked
}

// Select keeps passers at or above the cutoff, in rank order, capped at top_n
func (p *Pipeline) Select(ranked []contracts.RankedCandidate) []contracts.RankedCandidate {
	selected := make([]contracts.RankedCandidate, 0)
	for _, c := range ranked {
		if c.PassesFilter && c.RSPercentile >= p.ranking.PercentileCutoff {
			selected = append(selected, c)
		}
	}

	sortCandidates(selected)

	if p.ranking.TopN > 0 && len(selected) > p.ranking.TopN {
		selected = selected[:p.ranking.TopN]
	}
	return selected
}

// assignPercentiles ranks the members chosen by include; others get 0
func assignPercentiles(ranked []contracts.RankedCandidate, include func(*contracts.RankedCandidate) bool) {
	idx := make([]int, 0, len(ranked))
	values := make([]float64, 0, len(ranked))
	for i := range ranked {
		ranked[i].RSPercentile = 0
		if include(&ranked[i]) {
			idx = append(idx, i)
			values = append(values, ranked[i].RawScore)
		}
	}

	for k, pct := range Percentiles(values) {
		ranked[idx[k]].RSPercentile = pct
	}
}
