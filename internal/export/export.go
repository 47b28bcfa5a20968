package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
)

// Row is one flat output line, fundamentals left blank when absent
type Row struct {
	Rank           int      `json:"rank"`
	Ticker         string   `json:"ticker"`
	RSPercentile   float64  `json:"rs_percentile"`
	RelativeScore  *float64 `json:"relative_score,omitempty"`
	WeightedReturn float64  `json:"weighted_return"`
	LastPrice      float64  `json:"last_price"`
	AvgVolume      float64  `json:"avg_volume"`
	AboveEMAShort  bool     `json:"above_ema_short"`
	AboveEMALong   bool     `json:"above_ema_long"`
	MarketCap      *float64 `json:"market_cap,omitempty"`
	FundAvgVolume  *float64 `json:"fund_avg_volume,omitempty"` // 스냅샷 평균 거래량
	EPSGrowth      *float64 `json:"eps_growth,omitempty"`
	EPSGrowth5Y    *float64 `json:"eps_growth_5y,omitempty"`
	SalesGrowth5Y  *float64 `json:"sales_growth_5y,omitempty"`
	ROI            *float64 `json:"roi,omitempty"`
	InstOwnership  *float64 `json:"institutional_ownership,omitempty"`
	PassesFilter   bool     `json:"passes_filter"`
	FailReason     string   `json:"fail_reason,omitempty"`
}

var header = []string{
	"rank", "ticker", "rs_percentile", "relative_score", "weighted_return",
	"last_price", "avg_volume", "above_ema_short", "above_ema_long",
	"market_cap", "fund_avg_volume", "eps_growth", "eps_growth_5y",
	"sales_growth_5y", "roi", "institutional_ownership",
	"passes_filter", "fail_reason",
}

// Rows flattens candidates in the order given; rank is 1-based
func Rows(candidates []contracts.RankedCandidate) []Row {
	rows := make([]Row, len(candidates))
	for i, c := range candidates {
		rows[i] = Row{
			Rank:           i + 1,
			Ticker:         c.Ticker,
			RSPercentile:   c.RSPercentile,
			RelativeScore:  c.RelativeScore,
			WeightedReturn: c.RawScore,
			LastPrice:      c.LastPrice,
			AvgVolume:      c.AvgVolume,
			AboveEMAShort:  c.AboveEMAShort,
			AboveEMALong:   c.AboveEMALong,
			MarketCap:      c.Fundamentals.Metric(contracts.MetricMarketCap),
			FundAvgVolume:  c.Fundamentals.Metric(contracts.MetricAvgVolume),
			EPSGrowth:      c.Fundamentals.Metric(contracts.MetricEPSGrowth),
			EPSGrowth5Y:    c.Fundamentals.Metric(contracts.MetricEPSGrowth5Y),
			SalesGrowth5Y:  c.Fundamentals.Metric(contracts.MetricSalesGrowth5Y),
			ROI:            c.Fundamentals.Metric(contracts.MetricROI),
			InstOwnership:  c.Fundamentals.Metric(contracts.MetricInstitutionalOwnership),
			PassesFilter:   c.PassesFilter,
			FailReason:     c.FailReason,
		}
	}
	return rows
}

// WriteCSV writes a header line followed by one line per row
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.Rank),
			r.Ticker,
			formatF(r.RSPercentile),
			formatPtr(r.RelativeScore),
			formatF(r.WeightedReturn),
			formatF(r.LastPrice),
			formatF(r.AvgVolume),
			strconv.FormatBool(r.AboveEMAShort),
			strconv.FormatBool(r.AboveEMALong),
			formatPtr(r.MarketCap),
			formatPtr(r.FundAvgVolume),
			formatPtr(r.EPSGrowth),
			formatPtr(r.EPSGrowth5Y),
			formatPtr(r.SalesGrowth5Y),
			formatPtr(r.ROI),
			formatPtr(r.InstOwnership),
			strconv.FormatBool(r.PassesFilter),
			r.FailReason,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write %s: %w", r.Ticker, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full scan result, indented
func WriteJSON(w io.Writer, result *contracts.ScanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode scan result: %w", err)
	}
	return nil
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func formatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatF(*v)
}
