package contracts

import (
	"fmt"
	"time"
)

// PriceBar is one daily OHLCV session
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is the ascending daily history of one ticker
// ⭐ SSOT: Fetcher → Scorer 가격 데이터 전달 (읽기 전용)
type PriceSeries struct {
	Ticker string     `json:"ticker"`
	Bars   []PriceBar `json:"bars"`
}

// Len returns the number of bars
func (s *PriceSeries) Len() int {
	return len(s.Bars)
}

// Closes returns close prices, oldest first
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Volumes returns volumes, oldest first
func (s *PriceSeries) Volumes() []float64 {
	volumes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		volumes[i] = b.Volume
	}
	return volumes
}

// Last returns the most recent bar. Callers check Len first.
func (s *PriceSeries) Last() PriceBar {
	return s.Bars[len(s.Bars)-1]
}

// ValidateOrder checks that dates are strictly increasing.
// Gaps are fine; duplicates and reversals are not.
func (s *PriceSeries) ValidateOrder() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("bar %d (%s) not after bar %d (%s)",
				i, s.Bars[i].Date.Format("2006-01-02"),
				i-1, s.Bars[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// FundamentalMetric names one optional fundamental field
type FundamentalMetric string

const (
	MetricMarketCap              FundamentalMetric = "market_cap"
	MetricAvgVolume              FundamentalMetric = "avg_volume"
	MetricEPSGrowth              FundamentalMetric = "eps_growth"
	MetricEPSGrowth5Y            FundamentalMetric = "eps_growth_5y"
	MetricSalesGrowth5Y          FundamentalMetric = "sales_growth_5y"
	MetricROI                    FundamentalMetric = "roi"
	MetricInstitutionalOwnership FundamentalMetric = "institutional_ownership"
)

// Fundamentals is a point-in-time snapshot.
// nil means the provider had no value; it is never read as zero.
type Fundamentals struct {
	MarketCap              *float64 `json:"market_cap,omitempty"`
	AvgVolume              *float64 `json:"avg_volume,omitempty"`
	EPSGrowth              *float64 `json:"eps_growth,omitempty"`              // %
	EPSGrowth5Y            *float64 `json:"eps_growth_5y,omitempty"`           // %
	SalesGrowth5Y          *float64 `json:"sales_growth_5y,omitempty"`         // %
	ROI                    *float64 `json:"roi,omitempty"`                     // %
	InstitutionalOwnership *float64 `json:"institutional_ownership,omitempty"` // %
}

// Metric returns the field for name, nil when absent or unknown
func (f *Fundamentals) Metric(name FundamentalMetric) *float64 {
	if f == nil {
		return nil
	}
	switch name {
	case MetricMarketCap:
		return f.MarketCap
	case MetricAvgVolume:
		return f.AvgVolume
	case MetricEPSGrowth:
		return f.EPSGrowth
	case MetricEPSGrowth5Y:
		return f.EPSGrowth5Y
	case MetricSalesGrowth5Y:
		return f.SalesGrowth5Y
	case MetricROI:
		return f.ROI
	case MetricInstitutionalOwnership:
		return f.InstitutionalOwnership
	}
	return nil
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
