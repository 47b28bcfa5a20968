package strategyconfig

import (
	"errors"
	"fmt"
	"math"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
)

// ValidationError 검증 실패 (실행 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers match contracts.ErrInvalidConfig
func (e ValidationError) Unwrap() error {
	return contracts.ErrInvalidConfig
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Validate checks all required constraints
// 실패 시 error 반환 (스캔 시작 전 중단)
func Validate(cfg *Config) error {
	// === Universe ===
	if cfg.Universe.Market == "" {
		return ValidationError{"universe.market", "required"}
	}
	if len(cfg.Universe.Exchanges) == 0 {
		return ValidationError{"universe.exchanges", "must not be empty"}
	}
	if cfg.Universe.MaxTickers < 0 {
		return ValidationError{"universe.max_tickers", "must be >= 0"}
	}
	if cfg.Universe.CacheTTL <= 0 {
		return ValidationError{"universe.cache_ttl", "must be > 0"}
	}

	// === History ===
	if cfg.History.MinBars <= 0 {
		return ValidationError{"history.min_bars", "must be > 0"}
	}
	if cfg.History.LookbackBars < cfg.History.MinBars {
		return ValidationError{"history.lookback_bars", "must be >= history.min_bars"}
	}

	// === Momentum ===
	if len(cfg.Momentum.Offsets) != len(cfg.Momentum.Weights) {
		return ValidationError{"momentum", "offsets length must match weights length"}
	}
	for _, o := range cfg.Momentum.Offsets {
		if o <= 0 {
			return ValidationError{"momentum.offsets", "must all be > 0"}
		}
	}
	for _, w := range cfg.Momentum.Weights {
		if w < 0 {
			return ValidationError{"momentum.weights", "must all be >= 0"}
		}
	}
	if err := validateWeightsSum(cfg.Momentum.Weights, 1.0, 1e-6); err != nil {
		return ValidationError{"momentum.weights", err.Error()}
	}
	if cfg.Momentum.EMAShort <= 0 || cfg.Momentum.EMALong <= 0 {
		return ValidationError{"momentum.ema", "spans must be > 0"}
	}
	if cfg.Momentum.EMAShort >= cfg.Momentum.EMALong {
		return ValidationError{"momentum.ema_short", "must be < ema_long"}
	}

	// === Benchmark ===
	if cfg.Benchmark.Enabled && cfg.Benchmark.Ticker == "" {
		return ValidationError{"benchmark.ticker", "required when benchmark is enabled"}
	}

	// === Filters ===
	if cfg.Filters.MinPrice < 0 || cfg.Filters.MinAvgVolume < 0 || cfg.Filters.MinMarketCap < 0 {
		return ValidationError{"filters", "thresholds must be >= 0"}
	}
	switch cfg.Filters.MissingFundamentals {
	case MissingFail, MissingPass:
	default:
		return ValidationError{"filters.missing_fundamentals", "must be fail or pass"}
	}
	if !cfg.Filters.Fundamentals.Enabled {
		if cfg.Filters.MinMarketCap > 0 {
			return ValidationError{"filters.min_market_cap", "requires filters.fundamentals.enabled"}
		}
		if len(cfg.Filters.Fundamentals.Thresholds()) > 0 {
			return ValidationError{"filters.fundamentals", "thresholds set but enabled is false"}
		}
	}

	// === Ranking ===
	if cfg.Ranking.PercentileCutoff < 0 || cfg.Ranking.PercentileCutoff > 100 {
		return ValidationError{"ranking.percentile_cutoff", "must be in range [0, 100]"}
	}
	switch cfg.Ranking.PercentileBasis {
	case BasisUniverse, BasisFiltered:
	default:
		return ValidationError{"ranking.percentile_basis", "must be universe or filtered"}
	}
	if cfg.Ranking.TopN < 0 {
		return ValidationError{"ranking.top_n", "must be >= 0"}
	}

	// === Concurrency ===
	if cfg.Concurrency.Workers <= 0 {
		return ValidationError{"concurrency.workers", "must be > 0"}
	}
	if cfg.Concurrency.ProgressEvery < 0 {
		return ValidationError{"concurrency.progress_every", "must be >= 0"}
	}
	if cfg.Concurrency.TaskTimeout < 0 {
		return ValidationError{"concurrency.task_timeout", "must be >= 0"}
	}

	return nil
}

// Warn returns recommendations (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 가장 긴 구간보다 이력이 짧으면 전 종목이 InvalidComputation
	if need := cfg.Momentum.MaxOffset() + 1; cfg.History.LookbackBars < need {
		warnings = append(warnings, Warning{
			Code:    "LOOKBACK_TOO_SHORT",
			Message: fmt.Sprintf("lookback_bars %d < longest offset + 1 (%d): every ticker will fail scoring", cfg.History.LookbackBars, need),
		})
	}
	if cfg.History.MinBars < cfg.Momentum.EMALong {
		warnings = append(warnings, Warning{
			Code:    "MIN_BARS_BELOW_EMA",
			Message: fmt.Sprintf("min_bars %d < ema_long %d: short histories fail at scoring instead of fetch", cfg.History.MinBars, cfg.Momentum.EMALong),
		})
	}
	if cfg.Concurrency.Workers > 32 {
		warnings = append(warnings, Warning{
			Code:    "MANY_WORKERS",
			Message: "workers > 32: provider rate limit dominates, extra workers only queue",
		})
	}
	if !cfg.Benchmark.Enabled {
		warnings = append(warnings, Warning{
			Code:    "NO_BENCHMARK",
			Message: "benchmark disabled: ranking uses absolute weighted return",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}
