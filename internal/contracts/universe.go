package contracts

import (
	"sort"
	"time"
)

// Universe is the ordered set of tickers to scan
// ⭐ SSOT: S1 → Orchestrator 스캔 대상 종목 전달
type Universe struct {
	Tickers   []string  `json:"tickers"`
	FetchedAt time.Time `json:"fetched_at"`
	FromCache bool      `json:"from_cache"`
	Warnings  []string  `json:"warnings,omitempty"` // 페이지 실패 등 부분 결과 경고
}

// Contains checks if a ticker is in the universe
func (u *Universe) Contains(ticker string) bool {
	i := sort.SearchStrings(u.Tickers, ticker)
	return i < len(u.Tickers) && u.Tickers[i] == ticker
}

// Count returns the number of tickers
func (u *Universe) Count() int {
	return len(u.Tickers)
}

// NormalizeTickers sorts and deduplicates in place and returns the result
func NormalizeTickers(tickers []string) []string {
	sort.Strings(tickers)
	out := tickers[:0]
	for i, t := range tickers {
		if t == "" || (i > 0 && t == tickers[i-1]) {
			continue
		}
		out = append(out, t)
	}
	return out
}
