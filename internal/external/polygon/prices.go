package polygon

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
)

// calendarBuffer converts trading bars to calendar days (weekends, holidays)
const calendarBuffer = 1.5

// aggsResponse is /v2/aggs/ticker/{t}/range/1/day/{from}/{to}
type aggsResponse struct {
	Ticker       string   `json:"ticker"`
	Status       string   `json:"status"`
	ResultsCount int      `json:"resultsCount"`
	Results      []aggBar `json:"results"`
}

type aggBar struct {
	T int64   `json:"t"` // unix ms, session start
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

// DateRange returns [start, end] wide enough to hold lookbackBars sessions
func DateRange(end time.Time, lookbackBars int) (time.Time, time.Time) {
	days := int(math.Ceil(float64(lookbackBars) * calendarBuffer))
	return end.AddDate(0, 0, -days), end
}

// FetchPriceSeries fetches adjusted daily bars in one request
// ⭐ SSOT: 일봉 조회는 이 함수에서만
func (c *Client) FetchPriceSeries(ctx context.Context, ticker string, start, end time.Time) (*contracts.PriceSeries, error) {
	q := url.Values{}
	q.Set("adjusted", "true")
	q.Set("sort", "asc")
	q.Set("limit", "50000")

	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s?%s",
		url.PathEscape(ticker), start.Format("2006-01-02"), end.Format("2006-01-02"), q.Encode())

	var resp aggsResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	if strings.EqualFold(resp.Status, "ERROR") || strings.EqualFold(resp.Status, "NOT_AUTHORIZED") {
		return nil, fmt.Errorf("fetch %s: status %s: %w", ticker, resp.Status, contracts.ErrRemote)
	}

	series := &contracts.PriceSeries{
		Ticker: ticker,
		Bars:   make([]contracts.PriceBar, 0, len(resp.Results)),
	}
	for _, b := range resp.Results {
		ts := time.UnixMilli(b.T).UTC()
		series.Bars = append(series.Bars, contracts.PriceBar{
			Date:   time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
			Open:   b.O,
			High:   b.H,
			Low:    b.L,
			Close:  b.C,
			Volume: b.V,
		})
	}

	if err := series.ValidateOrder(); err != nil {
		return nil, fmt.Errorf("fetch %s: %v: %w", ticker, err, contracts.ErrRemote)
	}

	if series.Len() < c.minBars {
		return nil, fmt.Errorf("fetch %s: %d bars < %d: %w", ticker, series.Len(), c.minBars, contracts.ErrInsufficientHistory)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"bars":   series.Len(),
	}).Debug("Fetched price series")

	return series, nil
}
