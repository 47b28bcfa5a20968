package collector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

func tickers(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("T%04d", i)
	}
	return out
}

func TestRun_IsolatesFailures(t *testing.T) {
	all := tickers(500)
	var inFlight, maxInFlight int64

	fetch := func(ctx context.Context, ticker string) (int, error) {
		n := atomic.AddInt64(&inFlight, 1)
		defer atomic.AddInt64(&inFlight, -1)
		for {
			cur := atomic.LoadInt64(&maxInFlight)
			if n <= cur || atomic.CompareAndSwapInt64(&maxInFlight, cur, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)

		var idx int
		fmt.Sscanf(ticker, "T%04d", &idx)
		if idx%10 == 0 {
			return 0, contracts.ErrRemote
		}
		return idx, nil
	}

	start := time.Now()
	results := Run(context.Background(), NewRunner(logger.Nop()), all, fetch, Options{Workers: 10})
	elapsed := time.Since(start)

	require.Len(t, results, 500)
	ok, failed := 0, 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			assert.Equal(t, contracts.ReasonRemote, contracts.ExclusionReason(r.Error))
		} else {
			ok++
		}
	}
	assert.Equal(t, 450, ok)
	assert.Equal(t, 50, failed)
	assert.LessOrEqual(t, atomic.LoadInt64(&maxInFlight), int64(10))
	// 500 × 2ms sequential would be ≥1s
	assert.Less(t, elapsed, 900*time.Millisecond)
}

func TestRun_RecoversPanic(t *testing.T) {
	fetch := func(ctx context.Context, ticker string) (string, error) {
		if ticker == "BAD" {
			panic("boom")
		}
		return ticker, nil
	}

	results := Run(context.Background(), NewRunner(logger.Nop()), []string{"AAA", "BAD", "CCC"}, fetch, Options{Workers: 2})

	require.Len(t, results, 3)
	for _, r := range results {
		if r.Ticker == "BAD" {
			assert.ErrorIs(t, r.Error, contracts.ErrPanic)
			assert.ErrorIs(t, r.Error, contracts.ErrNotAvailable)
		} else {
			assert.NoError(t, r.Error)
			assert.Equal(t, r.Ticker, r.Value)
		}
	}
}

func TestRun_TaskTimeout(t *testing.T) {
	fetch := func(ctx context.Context, ticker string) (int, error) {
		if ticker == "SLOW" {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return 1, nil
	}

	results := Run(context.Background(), NewRunner(logger.Nop()), []string{"FAST", "SLOW"}, fetch,
		Options{Workers: 2, TaskTimeout: 20 * time.Millisecond})

	require.Len(t, results, 2)
	for _, r := range results {
		if r.Ticker == "SLOW" {
			assert.Equal(t, contracts.ReasonTimeout, contracts.ExclusionReason(r.Error))
		} else {
			assert.NoError(t, r.Error)
		}
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int64

	fetch := func(ctx context.Context, ticker string) (int, error) {
		if atomic.AddInt64(&calls, 1) == 5 {
			cancel()
		}
		return 1, nil
	}

	results := Run(ctx, NewRunner(logger.Nop()), tickers(200), fetch, Options{Workers: 1})

	// every ticker is accounted for, canceled ones without a fetch
	require.Len(t, results, 200)
	canceled := 0
	for _, r := range results {
		if errors.Is(r.Error, context.Canceled) {
			canceled++
		}
	}
	assert.Greater(t, canceled, 150)
	assert.Less(t, atomic.LoadInt64(&calls), int64(10))
}

func TestRun_Progress(t *testing.T) {
	var events []int
	fetch := func(ctx context.Context, ticker string) (int, error) { return 1, nil }

	Run(context.Background(), NewRunner(logger.Nop()), tickers(10), fetch, Options{
		Workers:       3,
		ProgressEvery: 4,
		OnProgress: func(processed, total int, ticker string) {
			assert.Equal(t, 10, total)
			events = append(events, processed)
		},
	})

	assert.Equal(t, []int{4, 8, 10}, events)
}

func TestRun_Empty(t *testing.T) {
	fetch := func(ctx context.Context, ticker string) (int, error) { return 1, nil }
	results := Run(context.Background(), NewRunner(logger.Nop()), nil, fetch, Options{Workers: 4})
	assert.Empty(t, results)
}
