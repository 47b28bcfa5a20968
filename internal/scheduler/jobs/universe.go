package jobs

import (
	"context"
	"fmt"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

// Refresher rebuilds the cached universe from the catalog
type Refresher interface {
	Refresh(ctx context.Context, q contracts.UniverseQuery) (*contracts.Universe, error)
}

// UniverseJob refreshes the ticker cache ahead of the scan
type UniverseJob struct {
	refresher Refresher
	query     contracts.UniverseQuery
	schedule  string
	logger    *logger.Logger
}

// NewUniverseJob creates a new universe job
func NewUniverseJob(refresher Refresher, query contracts.UniverseQuery, schedule string, log *logger.Logger) *UniverseJob {
	return &UniverseJob{
		refresher: refresher,
		query:     query,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *UniverseJob) Name() string {
	return "universe_refresh"
}

// Schedule returns the cron schedule (with seconds)
func (j *UniverseJob) Schedule() string {
	return j.schedule
}

// Run executes the refresh
func (j *UniverseJob) Run(ctx context.Context) error {
	universe, err := j.refresher.Refresh(ctx, j.query)
	if err != nil {
		return fmt.Errorf("refresh universe: %w", err)
	}

	log := j.logger.WithField("count", universe.Count())
	if len(universe.Warnings) > 0 {
		log.WithField("warnings", universe.Warnings).Warn("Universe refreshed with warnings")
		return nil
	}
	log.Info("Universe refreshed")
	return nil
}
