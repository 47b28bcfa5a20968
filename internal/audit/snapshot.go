package audit

import (
	"sort"
	"time"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
)

// RunRecord is the archived header of one scan plus its selection
type RunRecord struct {
	RunID      string                `json:"run_id"`
	StartedAt  time.Time             `json:"started_at"`
	ConfigHash string                `json:"config_hash"`
	Mode       contracts.ScoringMode `json:"mode"`
	Scored     int                   `json:"scored"`
	Selected   []string              `json:"selected"` // 순위 순서
}

// NewRunRecord extracts the archived fields from a result
func NewRunRecord(result *contracts.ScanResult) RunRecord {
	tickers := make([]string, len(result.Selected))
	for i, c := range result.Selected {
		tickers[i] = c.Ticker
	}
	return RunRecord{
		RunID:      result.RunID,
		StartedAt:  result.StartedAt,
		ConfigHash: result.ConfigHash,
		Mode:       result.Mode,
		Scored:     result.Summary.Scored,
		Selected:   tickers,
	}
}

// SelectionDiff compares two consecutive selections
type SelectionDiff struct {
	Entered []string `json:"entered"` // 신규 진입
	Exited  []string `json:"exited"`  // 이탈
	Kept    []string `json:"kept"`
	// SameConfig is false when the strategy changed between runs,
	// in which case churn is not comparable
	SameConfig bool `json:"same_config"`
}

// Diff reports which tickers entered and left the selection since prev.
// All lists are sorted by ticker.
func Diff(prev, cur RunRecord) SelectionDiff {
	before := make(map[string]bool, len(prev.Selected))
	for _, t := range prev.Selected {
		before[t] = true
	}
	now := make(map[string]bool, len(cur.Selected))
	for _, t := range cur.Selected {
		now[t] = true
	}

	d := SelectionDiff{
		Entered:    []string{},
		Exited:     []string{},
		Kept:       []string{},
		SameConfig: prev.ConfigHash == cur.ConfigHash,
	}
	for t := range now {
		if before[t] {
			d.Kept = append(d.Kept, t)
		} else {
			d.Entered = append(d.Entered, t)
		}
	}
	for t := range before {
		if !now[t] {
			d.Exited = append(d.Exited, t)
		}
	}

	sort.Strings(d.Entered)
	sort.Strings(d.Exited)
	sort.Strings(d.Kept)
	return d
}

// Turnover is the share of the current selection that is new, 0.0 - 1.0
func (d SelectionDiff) Turnover() float64 {
	total := len(d.Entered) + len(d.Kept)
	if total == 0 {
		return 0
	}
	return float64(len(d.Entered)) / float64(total)
}
