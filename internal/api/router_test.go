package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cocofu92/rs-dashboard/internal/api/handlers"
	"github.com/Cocofu92/rs-dashboard/internal/api/ws"
	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/store"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

type fakeScanner struct {
	release chan struct{}
	err     error
}

func (f *fakeScanner) RunWithID(ctx context.Context, runID string) (*contracts.ScanResult, error) {
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &contracts.ScanResult{
		RunID:     runID,
		StartedAt: time.Date(2024, 6, 3, 17, 30, 0, 0, time.UTC),
		Mode:      contracts.ModeRelative,
		Selected: []contracts.RankedCandidate{
			{Ticker: "AAA", RawScore: 0.2, RSPercentile: 100, RelativeScore: contracts.Float(2), PassesFilter: true},
		},
		Summary: contracts.RunSummary{Scored: 2, Selected: 1},
	}, nil
}

type fakeUniverse struct {
	universe *contracts.Universe
}

func (f *fakeUniverse) Cached(ctx context.Context, q contracts.UniverseQuery) (*contracts.Universe, error) {
	if f.universe == nil {
		return nil, store.ErrCacheMiss
	}
	return f.universe, nil
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(msgType string, data interface{}) {
	r.mu.Lock()
	r.events = append(r.events, msgType)
	r.mu.Unlock()
}

func newTestRouter(scanner handlers.Scanner, universe handlers.UniverseReader, pub handlers.Publisher) (http.Handler, *handlers.ScanHandler) {
	h := handlers.NewScanHandler(context.Background(), scanner, universe, contracts.UniverseQuery{Market: "stocks"}, pub, logger.Nop())
	return NewRouter(h, ws.NewHub(logger.Nop()), logger.Nop()), h
}

func do(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(&fakeScanner{}, &fakeUniverse{}, nil)

	rec := do(t, router, "GET", "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestScanLifecycle(t *testing.T) {
	pub := &recorder{}
	router, h := newTestRouter(&fakeScanner{}, &fakeUniverse{}, pub)
	var archived []string
	h.OnComplete(func(ctx context.Context, r *contracts.ScanResult) {
		archived = append(archived, r.RunID)
	})

	rec := do(t, router, "GET", "/api/scan/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, "POST", "/api/scan")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var started handlers.StartScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	assert.NotEmpty(t, started.RunID)

	h.Wait()

	rec = do(t, router, "GET", "/api/scan/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	var result contracts.ScanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, started.RunID, result.RunID)
	require.Len(t, result.Selected, 1)
	assert.Equal(t, []string{started.RunID}, archived)

	rec = do(t, router, "GET", "/api/scan/latest.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "1,AAA,100,2,"))

	pub.mu.Lock()
	assert.Equal(t, []string{handlers.EventStarted, handlers.EventCompleted}, pub.events)
	pub.mu.Unlock()
}

func TestScanConflict(t *testing.T) {
	scanner := &fakeScanner{release: make(chan struct{})}
	router, h := newTestRouter(scanner, &fakeUniverse{}, nil)

	rec := do(t, router, "POST", "/api/scan")
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, router, "POST", "/api/scan")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, "GET", "/api/scan/status")
	assert.Contains(t, rec.Body.String(), `"running":true`)

	close(scanner.release)
	h.Wait()

	rec = do(t, router, "POST", "/api/scan")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	h.Wait()
}

func TestScanFailure(t *testing.T) {
	pub := &recorder{}
	router, h := newTestRouter(&fakeScanner{err: contracts.ErrEmptyUniverse}, &fakeUniverse{}, pub)

	do(t, router, "POST", "/api/scan")
	h.Wait()

	rec := do(t, router, "GET", "/api/scan/status")
	assert.Contains(t, rec.Body.String(), "empty universe")
	rec = do(t, router, "GET", "/api/scan/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	pub.mu.Lock()
	assert.Contains(t, pub.events, handlers.EventFailed)
	pub.mu.Unlock()
}

type panicOnceScanner struct {
	fakeScanner
	calls int
}

func (p *panicOnceScanner) RunWithID(ctx context.Context, runID string) (*contracts.ScanResult, error) {
	p.calls++
	if p.calls == 1 {
		panic("nil benchmark series")
	}
	return p.fakeScanner.RunWithID(ctx, runID)
}

func TestScanPanicClearsRunning(t *testing.T) {
	pub := &recorder{}
	router, h := newTestRouter(&panicOnceScanner{}, &fakeUniverse{}, pub)

	rec := do(t, router, "POST", "/api/scan")
	require.Equal(t, http.StatusAccepted, rec.Code)
	h.Wait()

	rec = do(t, router, "GET", "/api/scan/status")
	var status handlers.ScanStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Running)
	assert.Contains(t, status.LastError, "panicked")

	pub.mu.Lock()
	assert.Contains(t, pub.events, handlers.EventFailed)
	pub.mu.Unlock()

	// next scan is accepted, not 409
	rec = do(t, router, "POST", "/api/scan")
	require.Equal(t, http.StatusAccepted, rec.Code)
	h.Wait()

	rec = do(t, router, "GET", "/api/scan/latest")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUniverse(t *testing.T) {
	router, _ := newTestRouter(&fakeScanner{}, &fakeUniverse{}, nil)
	rec := do(t, router, "GET", "/api/universe")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	router, _ = newTestRouter(&fakeScanner{}, &fakeUniverse{universe: &contracts.Universe{Tickers: []string{"AAPL", "MSFT"}}}, nil)
	rec = do(t, router, "GET", "/api/universe")
	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.UniverseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, []string{"AAPL", "MSFT"}, body.Tickers)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
