package contracts

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotAvailable is the parent of every per-ticker fetch failure.
// Callers drop the ticker; the batch keeps going.
var ErrNotAvailable = errors.New("not available")

var (
	ErrTransport           = fmt.Errorf("transport failure: %w", ErrNotAvailable)
	ErrRemote              = fmt.Errorf("remote error: %w", ErrNotAvailable)
	ErrInsufficientHistory = fmt.Errorf("insufficient history: %w", ErrNotAvailable)
	ErrTimeout             = fmt.Errorf("task timeout: %w", ErrNotAvailable)
	ErrPanic               = fmt.Errorf("task panicked: %w", ErrNotAvailable)
)

var (
	// ErrInvalidComputation: zero base price, missing horizon, NaN
	ErrInvalidComputation = errors.New("invalid computation")
	// ErrCacheUnavailable: missing/corrupt/stale cache, triggers a refetch
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrEmptyUniverse is fatal before any fetch work
	ErrEmptyUniverse = errors.New("empty universe")
	// ErrInvalidConfig is fatal before any fetch work
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Exclusion reasons reported in RunSummary.Excluded
const (
	ReasonTransport           = "transport"
	ReasonRemote              = "remote"
	ReasonInsufficientHistory = "insufficient_history"
	ReasonInvalidComputation  = "invalid_computation"
	ReasonTimeout             = "timeout"
	ReasonPanic               = "panic"
	ReasonCanceled            = "canceled"
	ReasonOther               = "other"
)

// ExclusionReason classifies a per-ticker error
func ExclusionReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return ReasonTimeout
	case errors.Is(err, ErrPanic):
		return ReasonPanic
	case errors.Is(err, ErrInsufficientHistory):
		return ReasonInsufficientHistory
	case errors.Is(err, ErrRemote):
		return ReasonRemote
	case errors.Is(err, ErrTransport):
		return ReasonTransport
	case errors.Is(err, ErrInvalidComputation):
		return ReasonInvalidComputation
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	}
	return ReasonOther
}
