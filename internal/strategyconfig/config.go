package strategyconfig

import "time"

// Config는 RS 스크리닝의 전체 설정 (불변, 실행마다 그대로 전달)
type Config struct {
	Meta        Meta        `yaml:"meta" json:"meta"`
	Universe    Universe    `yaml:"universe" json:"universe"`
	History     History     `yaml:"history" json:"history"`
	Momentum    Momentum    `yaml:"momentum" json:"momentum"`
	Benchmark   Benchmark   `yaml:"benchmark" json:"benchmark"`
	Filters     Filters     `yaml:"filters" json:"filters"`
	Ranking     Ranking     `yaml:"ranking" json:"ranking"`
	Concurrency Concurrency `yaml:"concurrency" json:"concurrency"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Universe S1: 스캔 대상 카탈로그
type Universe struct {
	Market     string        `yaml:"market" json:"market"`
	Exchanges  []string      `yaml:"exchanges" json:"exchanges"`     // MIC 코드 (XNAS, XNYS)
	AssetType  string        `yaml:"asset_type" json:"asset_type"`   // CS = common stock
	MaxTickers int           `yaml:"max_tickers" json:"max_tickers"` // 0 = 제한 없음
	CacheTTL   time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

// History 가격 이력 요구사항
type History struct {
	LookbackBars int `yaml:"lookback_bars" json:"lookback_bars"`
	MinBars      int `yaml:"min_bars" json:"min_bars"`
}

// Momentum S2: 다중 구간 가중 수익률
type Momentum struct {
	Offsets  []int     `yaml:"offsets" json:"offsets"` // 거래일 기준
	Weights  []float64 `yaml:"weights" json:"weights"` // 합 = 1.0
	EMAShort int       `yaml:"ema_short" json:"ema_short"`
	EMALong  int       `yaml:"ema_long" json:"ema_long"`
}

// MaxOffset returns the longest leg
func (m Momentum) MaxOffset() int {
	max := 0
	for _, o := range m.Offsets {
		if o > max {
			max = o
		}
	}
	return max
}

// Benchmark 상대강도 기준 종목
type Benchmark struct {
	Ticker  string `yaml:"ticker" json:"ticker"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// Missing fundamentals policies
const (
	MissingFail = "fail"
	MissingPass = "pass"
)

// Filters 게이트 (순서대로 평가)
type Filters struct {
	MinPrice             float64 `yaml:"min_price" json:"min_price"`
	MinAvgVolume         float64 `yaml:"min_avg_volume" json:"min_avg_volume"`
	MinMarketCap         float64 `yaml:"min_market_cap" json:"min_market_cap"` // 0 = 비활성
	RequireAboveEMAShort bool    `yaml:"require_above_ema_short" json:"require_above_ema_short"`
	RequireAboveEMALong  bool    `yaml:"require_above_ema_long" json:"require_above_ema_long"`

	Fundamentals        Fundamentals `yaml:"fundamentals" json:"fundamentals"`
	MissingFundamentals string       `yaml:"missing_fundamentals" json:"missing_fundamentals"` // fail | pass
}

// Fundamentals 펀더멘털 임계값 (nil = 게이트 없음)
type Fundamentals struct {
	Enabled                bool     `yaml:"enabled" json:"enabled"`
	AvgVolume              *float64 `yaml:"avg_volume" json:"avg_volume,omitempty"`
	EPSGrowth              *float64 `yaml:"eps_growth" json:"eps_growth,omitempty"`
	EPSGrowth5Y            *float64 `yaml:"eps_growth_5y" json:"eps_growth_5y,omitempty"`
	SalesGrowth5Y          *float64 `yaml:"sales_growth_5y" json:"sales_growth_5y,omitempty"`
	ROI                    *float64 `yaml:"roi" json:"roi,omitempty"`
	InstitutionalOwnership *float64 `yaml:"institutional_ownership" json:"institutional_ownership,omitempty"`
}

// Threshold is one configured fundamental gate
type Threshold struct {
	Gate   string // fail reason when the gate rejects
	Metric string
	Min    float64
}

// Thresholds returns configured gates in evaluation order
func (f Fundamentals) Thresholds() []Threshold {
	var out []Threshold
	add := func(gate, metric string, v *float64) {
		if v != nil {
			out = append(out, Threshold{Gate: gate, Metric: metric, Min: *v})
		}
	}
	add("eps_growth", "eps_growth", f.EPSGrowth)
	add("eps_growth_5y", "eps_growth_5y", f.EPSGrowth5Y)
	add("sales_growth_5y", "sales_growth_5y", f.SalesGrowth5Y)
	add("roi", "roi", f.ROI)
	add("institutional_ownership", "institutional_ownership", f.InstitutionalOwnership)
	add("fund_avg_volume", "avg_volume", f.AvgVolume)
	return out
}

// Percentile bases
const (
	BasisUniverse = "universe" // 전체 점수 집합 기준 백분위 후 게이트
	BasisFiltered = "filtered" // 게이트 통과 종목만으로 백분위
)

// Ranking 백분위 / 출력
type Ranking struct {
	PercentileCutoff float64 `yaml:"percentile_cutoff" json:"percentile_cutoff"`
	PercentileBasis  string  `yaml:"percentile_basis" json:"percentile_basis"`
	TopN             int     `yaml:"top_n" json:"top_n"` // 0 = 전체
}

// Concurrency 워커 풀
type Concurrency struct {
	Workers       int           `yaml:"workers" json:"workers"`
	ProgressEvery int           `yaml:"progress_every" json:"progress_every"`
	TaskTimeout   time.Duration `yaml:"task_timeout" json:"task_timeout"` // 0 = 없음
}

// Default returns the built-in screen used when no strategy file is given
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "us_rs_default",
			Version:    "1",
		},
		Universe: Universe{
			Market:    "stocks",
			Exchanges: []string{"XNAS", "XNYS"},
			AssetType: "CS",
			CacheTTL:  24 * time.Hour,
		},
		History: History{
			LookbackBars: 260,
			MinBars:      200,
		},
		Momentum: Momentum{
			Offsets:  []int{21, 63, 126, 252},
			Weights:  []float64{0.30, 0.25, 0.25, 0.20},
			EMAShort: 50,
			EMALong:  200,
		},
		Benchmark: Benchmark{
			Ticker:  "SPY",
			Enabled: true,
		},
		Filters: Filters{
			MinPrice:             5,
			MinAvgVolume:         500_000,
			RequireAboveEMAShort: true,
			RequireAboveEMALong:  true,
			MissingFundamentals:  MissingFail,
		},
		Ranking: Ranking{
			PercentileCutoff: 90,
			PercentileBasis:  BasisUniverse,
		},
		Concurrency: Concurrency{
			Workers:       10,
			ProgressEvery: 25,
			TaskTimeout:   45 * time.Second,
		},
	}
}

// Clone returns a deep copy so overrides never touch the original
func (c *Config) Clone() *Config {
	out := *c
	out.Universe.Exchanges = append([]string(nil), c.Universe.Exchanges...)
	out.Momentum.Offsets = append([]int(nil), c.Momentum.Offsets...)
	out.Momentum.Weights = append([]float64(nil), c.Momentum.Weights...)
	f := &out.Filters.Fundamentals
	f.AvgVolume = clonePtr(c.Filters.Fundamentals.AvgVolume)
	f.EPSGrowth = clonePtr(c.Filters.Fundamentals.EPSGrowth)
	f.EPSGrowth5Y = clonePtr(c.Filters.Fundamentals.EPSGrowth5Y)
	f.SalesGrowth5Y = clonePtr(c.Filters.Fundamentals.SalesGrowth5Y)
	f.ROI = clonePtr(c.Filters.Fundamentals.ROI)
	f.InstitutionalOwnership = clonePtr(c.Filters.Fundamentals.InstitutionalOwnership)
	return &out
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}
