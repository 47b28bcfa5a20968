package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/scheduler"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

// Scanner runs one complete scan
type Scanner interface {
	Run(ctx context.Context) (*contracts.ScanResult, error)
}

// ScanJob runs the RS scan on a schedule
// ⭐ SSOT: 정기 스캔 스케줄은 이 Job에서만
type ScanJob struct {
	scanner  Scanner
	schedule string
	onResult func(*contracts.ScanResult)
	logger   *logger.Logger
}

// NewScanJob creates a new scan job; onResult may be nil
func NewScanJob(scanner Scanner, schedule string, onResult func(*contracts.ScanResult), log *logger.Logger) *ScanJob {
	return &ScanJob{
		scanner:  scanner,
		schedule: schedule,
		onResult: onResult,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "rs_scan"
}

// Schedule returns the cron schedule (with seconds)
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes one scan. Bad configuration is not retried.
func (j *ScanJob) Run(ctx context.Context) error {
	result, err := j.scanner.Run(ctx)
	if err != nil {
		if errors.Is(err, contracts.ErrInvalidConfig) {
			return fmt.Errorf("%w: %w", err, scheduler.ErrPermanent)
		}
		return fmt.Errorf("scheduled scan: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"scored":   result.Summary.Scored,
		"selected": result.Summary.Selected,
	}).Info("Scheduled scan finished")

	if j.onResult != nil {
		j.onResult(result)
	}
	return nil
}
