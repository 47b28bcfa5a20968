package polygon

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
)

// pageLimit is the catalog maximum per page
const pageLimit = 1000

// TickerRef is one catalog entry
type TickerRef struct {
	Ticker          string `json:"ticker"`
	Name            string `json:"name"`
	Market          string `json:"market"`
	PrimaryExchange string `json:"primary_exchange"`
	Type            string `json:"type"`
	Active          bool   `json:"active"`
}

// TickerPage is one page of /v3/reference/tickers
type TickerPage struct {
	Status  string      `json:"status"`
	Results []TickerRef `json:"results"`
	NextURL string      `json:"next_url"`
}

// TickersURL builds the first page URL for one exchange
func TickersURL(market, exchange, assetType string) string {
	q := url.Values{}
	q.Set("market", market)
	q.Set("exchange", exchange)
	if assetType != "" {
		q.Set("type", assetType)
	}
	q.Set("active", "true")
	q.Set("limit", fmt.Sprint(pageLimit))
	return "/v3/reference/tickers?" + q.Encode()
}

// ListTickersPage fetches one catalog page (first page URL or a next_url cursor)
func (c *Client) ListTickersPage(ctx context.Context, pageURL string) (*TickerPage, error) {
	var page TickerPage
	if err := c.getJSON(ctx, pageURL, &page); err != nil {
		return nil, err
	}
	if strings.EqualFold(page.Status, "ERROR") {
		return nil, fmt.Errorf("catalog status %s: %w", page.Status, contracts.ErrRemote)
	}
	return &page, nil
}

// ListExchangeTickers follows next_url until exhausted.
// On a page failure it returns what was collected so far together with the error.
func (c *Client) ListExchangeTickers(ctx context.Context, market, exchange, assetType string) ([]TickerRef, error) {
	var refs []TickerRef
	next := TickersURL(market, exchange, assetType)
	pages := 0

	for next != "" {
		page, err := c.ListTickersPage(ctx, next)
		if err != nil {
			return refs, fmt.Errorf("%s page %d: %w", exchange, pages+1, err)
		}
		pages++
		refs = append(refs, page.Results...)
		next = page.NextURL
	}

	c.logger.WithFields(map[string]interface{}{
		"exchange": exchange,
		"pages":    pages,
		"count":    len(refs),
	}).Debug("Listed exchange tickers")

	return refs, nil
}
