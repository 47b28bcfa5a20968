package contracts

// ScoringMode tells whether RelativeScore was computed for a run
type ScoringMode string

const (
	ModeRelative ScoringMode = "relative"
	ModeAbsolute ScoringMode = "absolute"
)

// RankedCandidate is the engine's output unit
// ⭐ SSOT: Ranker → 출력 (CLI / API / Export)
type RankedCandidate struct {
	Ticker        string   `json:"ticker"`
	RawScore      float64  `json:"raw_score"`
	RSPercentile  float64  `json:"rs_percentile"`
	RelativeScore *float64 `json:"relative_score,omitempty"` // 벤치마크 불가 시 nil

	LastPrice     float64 `json:"last_price"`
	AvgVolume     float64 `json:"avg_volume"`
	AboveEMAShort bool    `json:"above_ema_short"`
	AboveEMALong  bool    `json:"above_ema_long"`

	Fundamentals *Fundamentals `json:"fundamentals,omitempty"`
	PassesFilter bool          `json:"passes_filter"`
	FailReason   string        `json:"fail_reason,omitempty"` // 첫 번째 실패 게이트
}

// SortKey is the value output is ordered by: relative score when present, else raw
func (r *RankedCandidate) SortKey() float64 {
	if r.RelativeScore != nil {
		return *r.RelativeScore
	}
	return r.RawScore
}
