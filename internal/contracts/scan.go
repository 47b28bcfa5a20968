package contracts

import "time"

// RunSummary holds per-stage counts of one scan
type RunSummary struct {
	UniverseSize int            `json:"universe_size"`
	Scanned      int            `json:"scanned"`  // max_tickers 적용 후
	Fetched      int            `json:"fetched"`  // 가격 수집 성공
	Scored       int            `json:"scored"`   // 점수 계산 성공
	Excluded     map[string]int `json:"excluded"` // 사유별 제외 수
	Passed       int            `json:"passed"`   // 모든 게이트 통과
	Selected     int            `json:"selected"` // 최종 출력
}

// ScanResult is everything one run produced
// ⭐ SSOT: Orchestrator → CLI / API / Export
type ScanResult struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	ConfigHash string            `json:"config_hash"`
	Mode       ScoringMode       `json:"mode"`
	Benchmark  BenchmarkReturn   `json:"benchmark"`
	Candidates []RankedCandidate `json:"candidates"` // 점수 계산된 전체
	Selected   []RankedCandidate `json:"selected"`   // 게이트 + 컷오프 통과
	Summary    RunSummary        `json:"summary"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// Duration returns how long the run took
func (r *ScanResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// TopPercent is the share of scored candidates that made the selection, 0-100
func (r *ScanResult) TopPercent() float64 {
	if r.Summary.Scored == 0 {
		return 0
	}
	return float64(r.Summary.Selected) / float64(r.Summary.Scored) * 100
}

// ProgressEvent is emitted while the worker pool drains
type ProgressEvent struct {
	RunID     string `json:"run_id,omitempty"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Ticker    string `json:"ticker"`
}
