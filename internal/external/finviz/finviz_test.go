package finviz

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/pkg/httputil"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

const quotePage = `<html><body>
<table class="snapshot-table2">
<tr><td>Index</td><td>S&amp;P 500</td><td>Market Cap</td><td><b>3.45T</b></td></tr>
<tr><td>EPS this Y</td><td><b><span>10.25%</span></b></td><td>ROI</td><td><b>-4.10%</b></td></tr>
<tr><td>EPS next 5Y</td><td>-</td><td>Sales past 5Y</td><td>8.70%</td></tr>
<tr><td>Inst Own</td><td>61.20%</td><td>Avg Volume</td><td>55.32M</td></tr>
</table>
</body></html>`

func newTestClient(serverURL string) *Client {
	hc := httputil.New(logger.Nop(), 5*time.Second).DisableRetry().WithHeader("User-Agent", "test-agent")
	return NewClient(hc, serverURL, logger.Nop())
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want *float64
	}{
		{"3.45T", contracts.Float(3.45e12)},
		{"812.50B", contracts.Float(812.5e9)},
		{"55.32M", contracts.Float(55.32e6)},
		{"900K", contracts.Float(900e3)},
		{"12.34%", contracts.Float(12.34)},
		{"-5.20%", contracts.Float(-5.2)},
		{"1,234", contracts.Float(1234)},
		{"-", nil},
		{"", nil},
		{"N/A", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := parseNumber(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-6*(1+math.Abs(*tt.want)))
		})
	}
}

func TestFetchFundamentals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote.ashx", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("t"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		fmt.Fprint(w, quotePage)
	}))
	defer server.Close()

	f, err := newTestClient(server.URL).FetchFundamentals(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.InDelta(t, 3.45e12, *f.MarketCap, 1)
	assert.InDelta(t, 55.32e6, *f.AvgVolume, 1)
	assert.InDelta(t, 10.25, *f.EPSGrowth, 1e-9)
	assert.Nil(t, f.EPSGrowth5Y)
	assert.InDelta(t, 8.7, *f.SalesGrowth5Y, 1e-9)
	assert.InDelta(t, -4.1, *f.ROI, 1e-9)
	assert.InDelta(t, 61.2, *f.InstitutionalOwnership, 1e-9)
}

func TestFetchFundamentals_NotAvailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }},
		{"no snapshot", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "<html><body>blocked</body></html>") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newTestClient(server.URL).FetchFundamentals(context.Background(), "ZZZZ")
			assert.ErrorIs(t, err, contracts.ErrRemote)
			assert.ErrorIs(t, err, contracts.ErrNotAvailable)
		})
	}
}
