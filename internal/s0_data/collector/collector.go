package collector

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

// FetchFunc fetches everything one ticker needs. It must honor ctx.
type FetchFunc[T any] func(ctx context.Context, ticker string) (T, error)

// Options holds worker pool configuration
type Options struct {
	Workers       int           // Number of concurrent workers
	ProgressEvery int           // Emit progress every N completed tickers (0 = off)
	TaskTimeout   time.Duration // Per-ticker deadline (0 = none)
	OnProgress    func(processed, total int, ticker string)
}

// FetchResult is the outcome of one ticker
type FetchResult[T any] struct {
	Ticker string
	Value  T
	Error  error
}

// Runner fans tickers out to a bounded worker pool
// ⭐ SSOT: 종목별 병렬 수집은 이 패키지에서만
type Runner struct {
	logger *logger.Logger
}

// NewRunner creates a new Runner instance
func NewRunner(log *logger.Logger) *Runner {
	return &Runner{
		logger: log.WithModule("collector"),
	}
}

// Run fetches every ticker with at most opts.Workers in flight.
// Results come back in completion order, one per ticker. A failing or
// panicking fetch only affects its own ticker.
func Run[T any](ctx context.Context, r *Runner, tickers []string, fetch FetchFunc[T], opts Options) []FetchResult[T] {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(tickers) {
		workers = len(tickers)
	}

	r.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"workers": workers,
	}).Info("Starting collection")
	start := time.Now()

	results := make([]FetchResult[T], 0, len(tickers))
	resultCh := make(chan FetchResult[T], workers)
	tickerCh := make(chan string)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for ticker := range tickerCh {
				resultCh <- runOne(ctx, r.logger, workerID, ticker, fetch, opts.TaskTimeout)
			}
		}(i)
	}

	// Feed tickers; on cancellation the rest are reported without a call
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(tickerCh)
		for i, ticker := range tickers {
			select {
			case tickerCh <- ticker:
			case <-ctx.Done():
				for _, rest := range tickers[i:] {
					resultCh <- FetchResult[T]{Ticker: rest, Error: ctx.Err()}
				}
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// 단일 수집 고루틴: 결과/진행률은 여기서만 갱신
	failCount := 0
	for result := range resultCh {
		results = append(results, result)
		if result.Error != nil {
			failCount++
		}
		processed := len(results)
		if opts.OnProgress != nil && opts.ProgressEvery > 0 &&
			(processed%opts.ProgressEvery == 0 || processed == len(tickers)) {
			opts.OnProgress(processed, len(tickers), result.Ticker)
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"success":  len(results) - failCount,
		"failed":   failCount,
		"total":    len(results),
		"duration": time.Since(start).String(),
	}).Info("Collection completed")

	return results
}

// runOne executes a single fetch with timeout and panic isolation
func runOne[T any](ctx context.Context, log *logger.Logger, workerID int, ticker string, fetch FetchFunc[T], timeout time.Duration) (result FetchResult[T]) {
	result.Ticker = ticker

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	taskCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.WithFields(map[string]interface{}{
				"worker": workerID,
				"ticker": ticker,
				"panic":  fmt.Sprint(rec),
				"stack":  string(debug.Stack()),
			}).Error("Fetch panicked")
			result.Error = fmt.Errorf("%s: %v: %w", ticker, rec, contracts.ErrPanic)
		}
	}()

	value, err := fetch(taskCtx, ticker)
	if err != nil {
		if errors.Is(taskCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%s: %v: %w", ticker, err, contracts.ErrTimeout)
		}
		log.WithError(err).WithFields(map[string]interface{}{
			"worker": workerID,
			"ticker": ticker,
		}).Debug("Fetch failed")
		result.Error = err
		return result
	}

	result.Value = value
	return result
}
