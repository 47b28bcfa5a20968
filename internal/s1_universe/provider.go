package s1_universe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/external/polygon"
	"github.com/Cocofu92/rs-dashboard/internal/store"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

// Catalog lists one exchange of the remote ticker catalog.
// On a page failure it returns the refs collected so far with the error.
type Catalog interface {
	ListExchangeTickers(ctx context.Context, market, exchange, assetType string) ([]polygon.TickerRef, error)
}

// Provider resolves the scan universe through a TTL cache
// ⭐ SSOT: 유니버스 조회/캐시 갱신은 여기서만
type Provider struct {
	catalog Catalog
	store   store.Store
	ttl     time.Duration
	logger  *logger.Logger
	now     func() time.Time
}

// NewProvider creates a universe provider
func NewProvider(catalog Catalog, st store.Store, ttl time.Duration, log *logger.Logger) *Provider {
	return &Provider{
		catalog: catalog,
		store:   st,
		ttl:     ttl,
		logger:  log,
		now:     time.Now,
	}
}

// CacheKey identifies one catalog slice
func CacheKey(q contracts.UniverseQuery) string {
	exchanges := append([]string(nil), q.Exchanges...)
	sort.Strings(exchanges)
	return fmt.Sprintf("%s|%s|%s", q.Market, q.AssetType, strings.Join(exchanges, ","))
}

// ListTickers returns the cached universe within TTL, otherwise refetches
func (p *Provider) ListTickers(ctx context.Context, q contracts.UniverseQuery) (*contracts.Universe, error) {
	entry, err := p.store.Get(ctx, CacheKey(q))
	switch {
	case err == nil && !store.IsExpired(entry, p.ttl, p.now()):
		p.logger.WithFields(map[string]interface{}{
			"count":        len(entry.Tickers),
			"refreshed_at": entry.RefreshedAt,
		}).Debug("Universe cache hit")
		return &contracts.Universe{
			Tickers:   entry.Tickers,
			FetchedAt: entry.RefreshedAt,
			FromCache: true,
		}, nil
	case err == nil:
		p.logger.WithField("refreshed_at", entry.RefreshedAt).Info("Universe cache expired")
	case errors.Is(err, store.ErrCacheMiss):
		p.logger.Debug("Universe cache miss")
	default:
		p.logger.WithError(err).Warn("Universe cache unavailable, refetching")
	}

	return p.Refresh(ctx, q)
}

// Cached returns the stored universe without network access, stale or not
func (p *Provider) Cached(ctx context.Context, q contracts.UniverseQuery) (*contracts.Universe, error) {
	entry, err := p.store.Get(ctx, CacheKey(q))
	if err != nil {
		return nil, err
	}
	return &contracts.Universe{
		Tickers:   entry.Tickers,
		FetchedAt: entry.RefreshedAt,
		FromCache: true,
	}, nil
}

// Refresh refetches every exchange and overwrites the cache wholesale.
// A failing exchange becomes a warning and the partial result is returned
// uncached; only an empty result is an error.
func (p *Provider) Refresh(ctx context.Context, q contracts.UniverseQuery) (*contracts.Universe, error) {
	universe := &contracts.Universe{FetchedAt: p.now()}
	allowed := make(map[string]bool, len(q.Exchanges))
	for _, ex := range q.Exchanges {
		allowed[ex] = true
	}

	var tickers []string
	excluded := make(map[string]int)

	for _, exchange := range q.Exchanges {
		refs, err := p.catalog.ListExchangeTickers(ctx, q.Market, exchange, q.AssetType)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			warning := fmt.Sprintf("%s: listing truncated after %d tickers: %v", exchange, len(refs), err)
			universe.Warnings = append(universe.Warnings, warning)
			p.logger.WithError(err).WithField("exchange", exchange).Warn("Ticker listing truncated")
		}

		for _, ref := range refs {
			if reason := checkExclusion(ref, q.AssetType, allowed); reason != "" {
				excluded[reason]++
				continue
			}
			tickers = append(tickers, ref.Ticker)
		}
	}

	universe.Tickers = contracts.NormalizeTickers(tickers)

	p.logger.WithFields(map[string]interface{}{
		"count":    len(universe.Tickers),
		"excluded": excluded,
		"warnings": len(universe.Warnings),
	}).Info("Universe refreshed")

	if len(universe.Tickers) == 0 {
		return universe, fmt.Errorf("%s: %w", CacheKey(q), contracts.ErrEmptyUniverse)
	}

	// 일부 거래소 누락 시 캐시하지 않음: 다음 조회에서 재시도
	if len(universe.Warnings) > 0 {
		p.logger.WithField("warnings", len(universe.Warnings)).Warn("Partial universe not cached")
		return universe, nil
	}

	entry := &store.Entry{Tickers: universe.Tickers, RefreshedAt: universe.FetchedAt}
	if err := p.store.Put(ctx, CacheKey(q), entry); err != nil {
		p.logger.WithError(err).Warn("Failed to write universe cache")
	}

	return universe, nil
}

// checkExclusion returns why a catalog entry is dropped, or "" to keep it
func checkExclusion(ref polygon.TickerRef, assetType string, allowed map[string]bool) string {
	if ref.Ticker == "" {
		return "empty"
	}
	if assetType != "" && ref.Type != assetType {
		return "asset_type"
	}
	if !allowed[ref.PrimaryExchange] {
		return "exchange"
	}
	return ""
}
