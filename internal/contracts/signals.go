package contracts

// MomentumScore is derived from one PriceSeries and never mutated afterwards
// ⭐ SSOT: Scorer → Ranker 모멘텀 점수 전달
type MomentumScore struct {
	Ticker         string    `json:"ticker"`
	WeightedReturn float64   `json:"weighted_return"`
	Returns        []float64 `json:"returns"` // 구간별 수익률 (offset 순서)

	EMAShort      float64 `json:"ema_short"`
	EMALong       float64 `json:"ema_long"`
	AboveEMAShort bool    `json:"above_ema_short"`
	AboveEMALong  bool    `json:"above_ema_long"`

	AvgVolume float64 `json:"avg_volume"`
	LastPrice float64 `json:"last_price"`
}

// BenchmarkReturn is the reference instrument's weighted return for one run
type BenchmarkReturn struct {
	Ticker         string  `json:"ticker"`
	WeightedReturn float64 `json:"weighted_return"`
	Available      bool    `json:"available"`
	Reason         string  `json:"reason,omitempty"` // 사용 불가 사유
}

// Usable reports whether candidates can be divided by this benchmark.
// A non-positive benchmark would invert the ordering, so it is not usable.
func (b *BenchmarkReturn) Usable() bool {
	return b != nil && b.Available && b.WeightedReturn > 0
}
