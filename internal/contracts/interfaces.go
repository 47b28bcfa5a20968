package contracts

import (
	"context"
	"time"
)

// UniverseProvider resolves the scan universe
// ⭐ SSOT: 유니버스 조회 인터페이스
type UniverseProvider interface {
	ListTickers(ctx context.Context, q UniverseQuery) (*Universe, error)
}

// UniverseQuery selects a catalog slice
type UniverseQuery struct {
	Market    string   `json:"market"`
	Exchanges []string `json:"exchanges"`
	AssetType string   `json:"asset_type"`
}

// PriceFetcher retrieves daily bars for one ticker
// ⭐ SSOT: 가격 수집 인터페이스
type PriceFetcher interface {
	FetchPriceSeries(ctx context.Context, ticker string, start, end time.Time) (*PriceSeries, error)
}

// FundamentalsFetcher retrieves a fundamentals snapshot for one ticker
// ⭐ SSOT: 펀더멘털 수집 인터페이스
type FundamentalsFetcher interface {
	FetchFundamentals(ctx context.Context, ticker string) (*Fundamentals, error)
}
