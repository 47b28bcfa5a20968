package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/pkg/httputil"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

// Client handles communication with the Polygon REST API
// ⭐ SSOT: Polygon API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	minBars    int
}

// NewClient creates a new Polygon client.
// httpClient should have retries disabled; a failed ticker is dropped, not retried.
func NewClient(httpClient *httputil.Client, baseURL, apiKey string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// WithMinBars sets the insufficient-history threshold for FetchPriceSeries
func (c *Client) WithMinBars(n int) *Client {
	c.minBars = n
	return c
}

// signedURL appends the API key to an absolute or base-relative URL
func (c *Client) signedURL(raw string) (string, error) {
	if strings.HasPrefix(raw, "/") {
		raw = c.baseURL + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// getJSON fetches and decodes one endpoint, mapping failures onto the
// contracts taxonomy: transport vs remote (status or payload)
func (c *Client) getJSON(ctx context.Context, raw string, dest interface{}) error {
	signed, err := c.signedURL(raw)
	if err != nil {
		return fmt.Errorf("%v: %w", err, contracts.ErrRemote)
	}

	body, err := c.httpClient.GetBody(ctx, signed)
	if err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) {
			return fmt.Errorf("status %d: %w", statusErr.StatusCode, contracts.ErrRemote)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%v: %w", err, contracts.ErrTransport)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("malformed payload: %v: %w", err, contracts.ErrRemote)
	}
	return nil
}
