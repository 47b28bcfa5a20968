package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/external/polygon"
	"github.com/Cocofu92/rs-dashboard/internal/s0_data/collector"
	"github.com/Cocofu92/rs-dashboard/internal/s2_signals"
	"github.com/Cocofu92/rs-dashboard/internal/selection"
	"github.com/Cocofu92/rs-dashboard/internal/strategyconfig"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

// minCoverage is the fetched/scanned share below which a run is flagged
const minCoverage = 0.5

// Orchestrator coordinates one scan: universe → fetch → score → rank → select
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	cfg *strategyconfig.Config

	universe     contracts.UniverseProvider
	prices       contracts.PriceFetcher
	fundamentals contracts.FundamentalsFetcher // nil = 펀더멘털 수집 안 함

	runner   *collector.Runner
	scorer   *s2_signals.MomentumScorer
	pipeline *selection.Pipeline

	onProgress func(contracts.ProgressEvent)
	now        func() time.Time
	logger     *logger.Logger
}

// tickerData is what one worker task brings back
type tickerData struct {
	series       *contracts.PriceSeries
	fundamentals *contracts.Fundamentals
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	cfg *strategyconfig.Config,
	universe contracts.UniverseProvider,
	prices contracts.PriceFetcher,
	fundamentals contracts.FundamentalsFetcher,
	log *logger.Logger,
) *Orchestrator {
	log = log.WithModule("brain")
	return &Orchestrator{
		cfg:          cfg,
		universe:     universe,
		prices:       prices,
		fundamentals: fundamentals,
		runner:       collector.NewRunner(log),
		scorer:       s2_signals.NewMomentumScorer(cfg.Momentum, log),
		pipeline:     selection.NewPipeline(cfg, log),
		now:          time.Now,
		logger:       log,
	}
}

// OnProgress registers a progress sink (CLI bar, websocket hub)
func (o *Orchestrator) OnProgress(fn func(contracts.ProgressEvent)) {
	o.onProgress = fn
}

// Config returns the immutable strategy this orchestrator runs
func (o *Orchestrator) Config() *strategyconfig.Config {
	return o.cfg
}

// Run executes one complete scan under a fresh run id.
// Only invalid configuration and an empty universe are fatal; per-ticker
// failures are counted in Summary.Excluded.
func (o *Orchestrator) Run(ctx context.Context) (*contracts.ScanResult, error) {
	return o.RunWithID(ctx, uuid.NewString())
}

// RunWithID is Run with a caller-chosen id (the API returns it before the scan ends)
func (o *Orchestrator) RunWithID(ctx context.Context, runID string) (*contracts.ScanResult, error) {
	result := &contracts.ScanResult{
		RunID:     runID,
		StartedAt: o.now(),
		Summary:   contracts.RunSummary{Excluded: make(map[string]int)},
	}
	log := o.logger.WithField("run_id", result.RunID)

	// 1. Config
	if err := strategyconfig.Validate(o.cfg); err != nil {
		return nil, err
	}
	for _, w := range strategyconfig.Warn(o.cfg) {
		result.Warnings = append(result.Warnings, w.String())
	}
	hash, err := strategyconfig.Hash(o.cfg)
	if err != nil {
		return nil, fmt.Errorf("hash config: %w", err)
	}
	result.ConfigHash = hash

	log.WithFields(map[string]interface{}{
		"strategy":    o.cfg.Meta.StrategyID,
		"config_hash": hash,
		"workers":     o.cfg.Concurrency.Workers,
	}).Info("Starting scan")

	// 2. Universe
	universe, err := o.universe.ListTickers(ctx, contracts.UniverseQuery{
		Market:    o.cfg.Universe.Market,
		Exchanges: o.cfg.Universe.Exchanges,
		AssetType: o.cfg.Universe.AssetType,
	})
	if err != nil {
		return nil, fmt.Errorf("list universe: %w", err)
	}
	if universe.Count() == 0 {
		return nil, contracts.ErrEmptyUniverse
	}
	result.Warnings = append(result.Warnings, universe.Warnings...)

	tickers := universe.Tickers
	if max := o.cfg.Universe.MaxTickers; max > 0 && len(tickers) > max {
		tickers = tickers[:max]
	}
	result.Summary.UniverseSize = universe.Count()
	result.Summary.Scanned = len(tickers)

	start, end := polygon.DateRange(o.now(), o.cfg.History.LookbackBars)

	// 3. Benchmark
	result.Benchmark = o.runBenchmark(ctx, start, end)
	result.Mode = contracts.ModeAbsolute
	if result.Benchmark.Usable() {
		result.Mode = contracts.ModeRelative
	} else if o.cfg.Benchmark.Enabled {
		warning := fmt.Sprintf("benchmark %s unavailable (%s), ranking on absolute return",
			result.Benchmark.Ticker, result.Benchmark.Reason)
		result.Warnings = append(result.Warnings, warning)
		log.Warn(warning)
	}

	// 4. Fetch (worker pool)
	fetched := collector.Run(ctx, o.runner, tickers, o.fetchTicker(start, end), collector.Options{
		Workers:       o.cfg.Concurrency.Workers,
		ProgressEvery: o.cfg.Concurrency.ProgressEvery,
		TaskTimeout:   o.cfg.Concurrency.TaskTimeout,
		OnProgress: func(processed, total int, ticker string) {
			log.WithFields(map[string]interface{}{
				"processed": processed,
				"total":     total,
			}).Info("Scan progress")
			if o.onProgress != nil {
				o.onProgress(contracts.ProgressEvent{
					RunID:     result.RunID,
					Processed: processed,
					Total:     total,
					Ticker:    ticker,
				})
			}
		},
	})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan canceled: %w", err)
	}

	// 5. Score
	scores := make([]contracts.MomentumScore, 0, len(fetched))
	fundamentals := make(map[string]*contracts.Fundamentals)
	for _, r := range fetched {
		if r.Error != nil {
			result.Summary.Excluded[contracts.ExclusionReason(r.Error)]++
			continue
		}
		result.Summary.Fetched++

		score, err := o.scorer.Score(r.Value.series)
		if err != nil {
			log.WithError(err).WithTicker(r.Ticker).Debug("Score failed")
			result.Summary.Excluded[contracts.ExclusionReason(err)]++
			continue
		}
		scores = append(scores, *score)
		if r.Value.fundamentals != nil {
			fundamentals[r.Ticker] = r.Value.fundamentals
		}
	}
	result.Summary.Scored = len(scores)

	if len(tickers) > 0 && float64(result.Summary.Fetched)/float64(len(tickers)) < minCoverage {
		result.Warnings = append(result.Warnings, fmt.Sprintf("low coverage: fetched %d of %d tickers",
			result.Summary.Fetched, len(tickers)))
	}

	// 6. Rank + select
	result.Candidates = o.pipeline.Rank(scores, fundamentals, result.Benchmark)
	result.Selected = o.pipeline.Select(result.Candidates)
	for _, c := range result.Candidates {
		if c.PassesFilter {
			result.Summary.Passed++
		}
	}
	result.Summary.Selected = len(result.Selected)
	result.FinishedAt = o.now()

	log.WithFields(map[string]interface{}{
		"universe": result.Summary.UniverseSize,
		"scored":   result.Summary.Scored,
		"passed":   result.Summary.Passed,
		"selected": result.Summary.Selected,
		"excluded": result.Summary.Excluded,
		"mode":     result.Mode,
		"duration": result.Duration().String(),
	}).Info("Scan completed")

	return result, nil
}

// runBenchmark fetches and scores the reference ticker
func (o *Orchestrator) runBenchmark(ctx context.Context, start, end time.Time) contracts.BenchmarkReturn {
	ticker := o.cfg.Benchmark.Ticker
	if !o.cfg.Benchmark.Enabled {
		return contracts.BenchmarkReturn{Ticker: ticker, Reason: "disabled"}
	}

	series, err := o.prices.FetchPriceSeries(ctx, ticker, start, end)
	if err != nil {
		return s2_signals.ComputeBenchmark(ticker, nil, err)
	}
	score, err := o.scorer.Score(series)
	return s2_signals.ComputeBenchmark(ticker, score, err)
}

// fetchTicker returns the per-ticker task: prices and fundamentals in parallel.
// A price failure cancels the fundamentals request; a fundamentals failure
// only leaves them absent for the missing-fundamentals policy.
func (o *Orchestrator) fetchTicker(start, end time.Time) collector.FetchFunc[tickerData] {
	wantFundamentals := o.fundamentals != nil && o.cfg.Filters.Fundamentals.Enabled

	return func(ctx context.Context, ticker string) (tickerData, error) {
		var data tickerData
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			series, err := o.prices.FetchPriceSeries(gctx, ticker, start, end)
			if err != nil {
				return err
			}
			data.series = series
			return nil
		})

		if wantFundamentals {
			g.Go(func() error {
				f, err := o.fundamentals.FetchFundamentals(gctx, ticker)
				if err != nil {
					o.logger.WithError(err).WithTicker(ticker).Debug("Fundamentals unavailable")
					return nil
				}
				data.fundamentals = f
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return tickerData{}, err
		}
		return data, nil
	}
}
