package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/export"
	"github.com/Cocofu92/rs-dashboard/internal/store"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

// Scanner runs one scan under the given id
type Scanner interface {
	RunWithID(ctx context.Context, runID string) (*contracts.ScanResult, error)
}

// UniverseReader reads the cached universe without network access
type UniverseReader interface {
	Cached(ctx context.Context, q contracts.UniverseQuery) (*contracts.Universe, error)
}

// Publisher pushes events to live subscribers
type Publisher interface {
	Publish(msgType string, data interface{})
}

// Event types sent over /ws/progress
const (
	EventStarted   = "scan_started"
	EventProgress  = "progress"
	EventCompleted = "scan_completed"
	EventFailed    = "scan_failed"
)

// ScanHandler handles scan endpoints
// ⭐ SSOT: 스캔 API 핸들러는 여기서만
type ScanHandler struct {
	scanner   Scanner
	universe  UniverseReader
	query     contracts.UniverseQuery
	publisher Publisher
	baseCtx   context.Context
	logger    *logger.Logger

	mu      sync.Mutex
	running string // 진행 중인 run id ("" = 없음)
	latest  *contracts.ScanResult
	lastErr string
	wg      sync.WaitGroup

	onComplete func(context.Context, *contracts.ScanResult)
}

// NewScanHandler creates a new scan handler.
// Background scans inherit baseCtx, not the request context.
func NewScanHandler(
	baseCtx context.Context,
	scanner Scanner,
	universe UniverseReader,
	query contracts.UniverseQuery,
	publisher Publisher,
	log *logger.Logger,
) *ScanHandler {
	return &ScanHandler{
		scanner:   scanner,
		universe:  universe,
		query:     query,
		publisher: publisher,
		baseCtx:   baseCtx,
		logger:    log.WithModule("api"),
	}
}

// OnComplete registers a hook run after every successful background scan
func (h *ScanHandler) OnComplete(fn func(context.Context, *contracts.ScanResult)) {
	h.onComplete = fn
}

// StartScanResponse is returned by POST /api/scan
type StartScanResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// ScanStatus is returned by GET /api/scan/status
type ScanStatus struct {
	Running   bool   `json:"running"`
	RunID     string `json:"run_id,omitempty"`
	LastRunID string `json:"last_run_id,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// UniverseResponse is returned by GET /api/universe
type UniverseResponse struct {
	Count     int       `json:"count"`
	FetchedAt time.Time `json:"fetched_at"`
	Tickers   []string  `json:"tickers"`
}

// StartScan starts a scan in the background
// POST /api/scan
func (h *ScanHandler) StartScan(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.running != "" {
		runID := h.running
		h.mu.Unlock()
		respondJSON(w, http.StatusConflict, map[string]string{
			"error":  "Scan already running",
			"run_id": runID,
		})
		return
	}
	runID := uuid.NewString()
	h.running = runID
	h.mu.Unlock()

	h.wg.Add(1)
	go h.run(runID)

	respondJSON(w, http.StatusAccepted, StartScanResponse{RunID: runID, Status: "started"})
}

func (h *ScanHandler) run(runID string) {
	defer h.wg.Done()

	h.publish(EventStarted, map[string]string{"run_id": runID})
	result, err := h.scan(runID)

	h.mu.Lock()
	h.running = ""
	if err != nil {
		h.lastErr = err.Error()
	} else {
		h.latest = result
		h.lastErr = ""
	}
	h.mu.Unlock()

	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Background scan failed")
		h.publish(EventFailed, map[string]string{"run_id": runID, "error": err.Error()})
		return
	}
	if h.onComplete != nil {
		h.onComplete(h.baseCtx, result)
	}
	h.publish(EventCompleted, result.Summary)
}

// scan runs the scanner, turning a panic into an error so running is always cleared
func (h *ScanHandler) scan(runID string) (result *contracts.ScanResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("scan %s: %v: %w", runID, rec, contracts.ErrPanic)
		}
	}()
	return h.scanner.RunWithID(h.baseCtx, runID)
}

// Record stores a result produced elsewhere (scheduled scan)
func (h *ScanHandler) Record(result *contracts.ScanResult) {
	h.mu.Lock()
	h.latest = result
	h.mu.Unlock()
}

// Wait blocks until background scans have finished
func (h *ScanHandler) Wait() {
	h.wg.Wait()
}

// Progress forwards a worker-pool progress event to subscribers
func (h *ScanHandler) Progress(e contracts.ProgressEvent) {
	h.publish(EventProgress, e)
}

// Status reports whether a scan is running
// GET /api/scan/status
func (h *ScanHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	status := ScanStatus{Running: h.running != "", RunID: h.running, LastError: h.lastErr}
	if h.latest != nil {
		status.LastRunID = h.latest.RunID
	}
	h.mu.Unlock()

	respondJSON(w, http.StatusOK, status)
}

// Latest returns the most recent completed scan
// GET /api/scan/latest
func (h *ScanHandler) Latest(w http.ResponseWriter, r *http.Request) {
	result := h.snapshot()
	if result == nil {
		respondError(w, http.StatusNotFound, "No scan has completed yet")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// LatestCSV exports the most recent selection as CSV
// GET /api/scan/latest.csv
func (h *ScanHandler) LatestCSV(w http.ResponseWriter, r *http.Request) {
	result := h.snapshot()
	if result == nil {
		respondError(w, http.StatusNotFound, "No scan has completed yet")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="rs_`+result.StartedAt.Format("20060102")+`.csv"`)
	if err := export.WriteCSV(w, export.Rows(result.Selected)); err != nil {
		h.logger.WithError(err).Error("Failed to write CSV")
	}
}

// Universe returns the cached ticker universe
// GET /api/universe
func (h *ScanHandler) Universe(w http.ResponseWriter, r *http.Request) {
	u, err := h.universe.Cached(r.Context(), h.query)
	if err != nil {
		if errors.Is(err, store.ErrCacheMiss) {
			respondError(w, http.StatusNotFound, "Universe not cached yet")
			return
		}
		h.logger.WithError(err).Error("Failed to read universe cache")
		respondError(w, http.StatusInternalServerError, "Failed to read universe cache")
		return
	}

	respondJSON(w, http.StatusOK, UniverseResponse{
		Count:     u.Count(),
		FetchedAt: u.FetchedAt,
		Tickers:   u.Tickers,
	})
}

func (h *ScanHandler) snapshot() *contracts.ScanResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

func (h *ScanHandler) publish(msgType string, data interface{}) {
	if h.publisher != nil {
		h.publisher.Publish(msgType, data)
	}
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
