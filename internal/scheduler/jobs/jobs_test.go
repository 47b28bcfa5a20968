package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/scheduler"
	"github.com/Cocofu92/rs-dashboard/internal/strategyconfig"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

type stubScanner struct {
	err error
}

func (s *stubScanner) Run(ctx context.Context) (*contracts.ScanResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &contracts.ScanResult{RunID: "r1"}, nil
}

func TestScanJob(t *testing.T) {
	var got *contracts.ScanResult
	job := NewScanJob(&stubScanner{}, "0 30 17 * * 1-5", func(r *contracts.ScanResult) { got = r }, logger.Nop())

	assert.Equal(t, "rs_scan", job.Name())
	assert.Equal(t, "0 30 17 * * 1-5", job.Schedule())
	require.NoError(t, job.Run(context.Background()))
	require.NotNil(t, got)
	assert.Equal(t, "r1", got.RunID)
}

func TestScanJob_InvalidConfigIsPermanent(t *testing.T) {
	err := NewScanJob(&stubScanner{err: strategyconfig.ValidationError{Field: "concurrency.workers", Message: "must be > 0"}},
		"@daily", nil, logger.Nop()).Run(context.Background())
	assert.ErrorIs(t, err, scheduler.ErrPermanent)

	err = NewScanJob(&stubScanner{err: contracts.ErrEmptyUniverse}, "@daily", nil, logger.Nop()).Run(context.Background())
	assert.ErrorIs(t, err, contracts.ErrEmptyUniverse)
	assert.False(t, errors.Is(err, scheduler.ErrPermanent))
}

type stubRefresher struct {
	universe *contracts.Universe
	err      error
}

func (s *stubRefresher) Refresh(ctx context.Context, q contracts.UniverseQuery) (*contracts.Universe, error) {
	return s.universe, s.err
}

func TestUniverseJob(t *testing.T) {
	q := contracts.UniverseQuery{Market: "stocks"}

	job := NewUniverseJob(&stubRefresher{universe: &contracts.Universe{Tickers: []string{"AAPL"}, Warnings: []string{"XNYS: truncated"}}}, q, "@daily", logger.Nop())
	assert.Equal(t, "universe_refresh", job.Name())
	assert.NoError(t, job.Run(context.Background()))

	job = NewUniverseJob(&stubRefresher{err: contracts.ErrEmptyUniverse}, q, "@daily", logger.Nop())
	assert.ErrorIs(t, job.Run(context.Background()), contracts.ErrEmptyUniverse)
}
