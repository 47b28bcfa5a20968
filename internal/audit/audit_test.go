package audit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/pkg/config"
	"github.com/Cocofu92/rs-dashboard/pkg/database"
)

func result(runID, hash string, started time.Time, tickers ...string) *contracts.ScanResult {
	r := &contracts.ScanResult{
		RunID:      runID,
		StartedAt:  started,
		ConfigHash: hash,
		Mode:       contracts.ModeRelative,
		Summary:    contracts.RunSummary{Scored: 10, Selected: len(tickers)},
	}
	for _, t := range tickers {
		r.Selected = append(r.Selected, contracts.RankedCandidate{Ticker: t, PassesFilter: true})
	}
	return r
}

func TestNewRunRecordKeepsRankOrder(t *testing.T) {
	now := time.Date(2024, 6, 3, 17, 30, 0, 0, time.UTC)
	rec := NewRunRecord(result("r1", "h", now, "NVDA", "AAPL", "MSFT"))

	assert.Equal(t, "r1", rec.RunID)
	assert.Equal(t, 10, rec.Scored)
	assert.Equal(t, []string{"NVDA", "AAPL", "MSFT"}, rec.Selected)
}

func TestDiff(t *testing.T) {
	now := time.Now()
	prev := NewRunRecord(result("r1", "h1", now, "AAPL", "MSFT", "NVDA"))
	cur := NewRunRecord(result("r2", "h1", now, "TSLA", "NVDA", "AMD", "AAPL"))

	d := Diff(prev, cur)
	assert.Equal(t, []string{"AMD", "TSLA"}, d.Entered)
	assert.Equal(t, []string{"MSFT"}, d.Exited)
	assert.Equal(t, []string{"AAPL", "NVDA"}, d.Kept)
	assert.True(t, d.SameConfig)
	assert.InDelta(t, 0.5, d.Turnover(), 1e-9)
}

func TestDiffConfigChangeAndEmpty(t *testing.T) {
	d := Diff(RunRecord{ConfigHash: "a"}, RunRecord{ConfigHash: "b"})
	assert.False(t, d.SameConfig)
	assert.Empty(t, d.Entered)
	assert.Empty(t, d.Exited)
	assert.Zero(t, d.Turnover())
}

// Integration test; needs a reachable DATABASE_URL
func TestRepositoryRoundTrip(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	cfg, err := config.Load()
	require.NoError(t, err)
	db, err := database.New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	repo, err := NewRepository(ctx, db)
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Second).Add(time.Hour)
	first := result("audit-test-1", "h", base, "AAA", "BBB")
	second := result("audit-test-2", "h", base.Add(time.Minute), "BBB", "CCC")
	defer db.Pool.Exec(ctx, `DELETE FROM rs_scan_runs WHERE run_id LIKE 'audit-test-%'`)

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, second)) // upsert

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "audit-test-2", latest.RunID)

	history, err := repo.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, []string{"BBB", "CCC"}, history[0].Selected)

	d := Diff(history[1], history[0])
	assert.Equal(t, []string{"CCC"}, d.Entered)
	assert.Equal(t, []string{"AAA"}, d.Exited)
}
