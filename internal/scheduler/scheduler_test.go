package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cocofu92/rs-dashboard/pkg/logger"
)

type stubJob struct {
	name  string
	calls int32
	fail  int32 // fail this many times before succeeding
	err   error
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return "0 0 0 1 1 *" }

func (j *stubJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if n <= atomic.LoadInt32(&j.fail) {
		if j.err != nil {
			return j.err
		}
		return fmt.Errorf("attempt %d failed", n)
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.Nop(), WithRetry(2, time.Millisecond))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&stubJob{name: "a"}))
	assert.Error(t, s.AddJob(&stubJob{name: "a"}), "duplicate name")
	assert.Error(t, s.AddJob(&badScheduleJob{}), "invalid cron")

	assert.Equal(t, []string{"a"}, s.GetAllJobs())

	next, err := s.NextRun("a")
	require.NoError(t, err)
	assert.True(t, next.IsZero(), "cron not started yet")

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))
}

type badScheduleJob struct{ stubJob }

func (j *badScheduleJob) Name() string     { return "bad" }
func (j *badScheduleJob) Schedule() string { return "not a cron" }

func TestRunJob_RetriesThenSucceeds(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "flaky", fail: 2}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.True(t, history.Results[0].Success)
	assert.Equal(t, 3, history.Results[0].Attempts)
}

func TestRunJob_PermanentNotRetried(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "broken", fail: 10, err: fmt.Errorf("bad config: %w", ErrPermanent)}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls))
	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJob_UnknownJob(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.RunJob("missing"))
	_, err := s.GetJobHistory("missing")
	assert.Error(t, err)
}

type blockingJob struct {
	started chan struct{}
}

func (j *blockingJob) Name() string     { return "blocking" }
func (j *blockingJob) Schedule() string { return "@daily" }
func (j *blockingJob) Run(ctx context.Context) error {
	close(j.started)
	<-ctx.Done()
	return ctx.Err()
}

func TestStop_CancelsRunningJob(t *testing.T) {
	s := newTestScheduler()
	job := &blockingJob{started: make(chan struct{})}
	require.NoError(t, s.AddJob(job))
	s.Start()

	require.NoError(t, s.RunJob("blocking"))
	<-job.started

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	history, err := s.GetJobHistory("blocking")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
	assert.Contains(t, history.Results[0].Error, "canceled")
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+5; i++ {
		h.Add(JobResult{Success: i%2 == 0})
	}

	assert.Len(t, h.Results, historyLimit)
	assert.Len(t, h.Latest(3), 3)
	assert.Len(t, h.Latest(1000), historyLimit)
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)
	assert.Equal(t, 0.0, (&JobHistory{}).SuccessRate())
}
