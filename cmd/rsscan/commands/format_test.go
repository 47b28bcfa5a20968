package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cocofu92/rs-dashboard/internal/audit"
	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/strategyconfig"
)

func sampleResult() *contracts.ScanResult {
	start := time.Date(2024, 6, 3, 17, 30, 0, 0, time.UTC)
	return &contracts.ScanResult{
		RunID:      "0f8c2a1e-0000-4000-8000-000000000000",
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Mode:       contracts.ModeRelative,
		Benchmark:  contracts.BenchmarkReturn{Ticker: "SPY", WeightedReturn: 0.1, Available: true},
		Selected: []contracts.RankedCandidate{
			{Ticker: "AAA", RawScore: 0.2, RSPercentile: 100, RelativeScore: contracts.Float(2), LastPrice: 120, AvgVolume: 2.5e6, PassesFilter: true},
		},
		Summary: contracts.RunSummary{
			UniverseSize: 3, Scanned: 3, Fetched: 2, Scored: 2, Passed: 2, Selected: 1,
			Excluded: map[string]int{contracts.ReasonInsufficientHistory: 1},
		},
	}
}

func TestSummaryLine(t *testing.T) {
	assert.Equal(t, "Top 50.0% performers out of 2 stocks", SummaryLine(sampleResult()))
	assert.Equal(t, "Top 0.0% performers out of 0 stocks", SummaryLine(&contracts.ScanResult{}))
}

func TestPrintScanResult(t *testing.T) {
	var buf bytes.Buffer
	PrintScanResult(&buf, sampleResult())
	out := buf.String()

	assert.Contains(t, out, "AAA")
	assert.Contains(t, out, "2.00")
	assert.Contains(t, out, "+20.00%")
	assert.Contains(t, out, "2.50M")
	assert.Contains(t, out, "insufficient_history=1")
	assert.Contains(t, out, "SPY +10.00%")
	assert.Contains(t, out, "Top 50.0% performers out of 2 stocks")
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, sampleResult(), "csv", false))
	assert.Contains(t, buf.String(), "1,AAA,100,2,0.2,")

	buf.Reset()
	require.NoError(t, render(&buf, sampleResult(), "json", false))
	assert.Contains(t, buf.String(), `"run_id"`)

	assert.Error(t, render(&buf, sampleResult(), "xml", false))
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "1.20B", formatVolume(1.2e9))
	assert.Equal(t, "750.0K", formatVolume(750_000))
	assert.Equal(t, "999", formatVolume(999))
}

func TestApplyScanFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().IntVar(&scanFlags.workers, "workers", 0, "")
	cmd.Flags().Float64Var(&scanFlags.cutoff, "cutoff", 0, "")
	cmd.Flags().IntVar(&scanFlags.topN, "top", 0, "")
	cmd.Flags().IntVar(&scanFlags.maxTickers, "max-tickers", 0, "")
	cmd.Flags().StringVar(&scanFlags.basis, "basis", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--cutoff", "80", "--top", "5"}))

	base := strategyconfig.Default()
	cfg, err := applyScanFlags(cmd, base)
	require.NoError(t, err)

	assert.Equal(t, 80.0, cfg.Ranking.PercentileCutoff)
	assert.Equal(t, 5, cfg.Ranking.TopN)
	assert.Equal(t, base.Concurrency.Workers, cfg.Concurrency.Workers, "unchanged flag keeps strategy value")
	assert.Equal(t, strategyconfig.Default().Ranking.PercentileCutoff, base.Ranking.PercentileCutoff, "base not mutated")

	require.NoError(t, cmd.Flags().Parse([]string{"--workers", "0"}))
	_, err = applyScanFlags(cmd, base)
	assert.ErrorIs(t, err, contracts.ErrInvalidConfig)
}

func TestPrintHistory(t *testing.T) {
	now := time.Date(2024, 6, 4, 17, 30, 0, 0, time.UTC)
	records := []audit.RunRecord{
		{RunID: "run-0003-xxxx", StartedAt: now, ConfigHash: "b", Mode: contracts.ModeRelative, Scored: 10, Selected: []string{"AAA", "DDD"}},
		{RunID: "run-0002-xxxx", StartedAt: now.Add(-24 * time.Hour), ConfigHash: "a", Mode: contracts.ModeRelative, Scored: 10, Selected: []string{"AAA", "BBB"}},
		{RunID: "run-0001-xxxx", StartedAt: now.Add(-48 * time.Hour), ConfigHash: "a", Mode: contracts.ModeRelative, Scored: 10, Selected: []string{"AAA", "BBB"}},
	}

	var buf bytes.Buffer
	PrintHistory(&buf, records, 2)
	out := buf.String()

	assert.Contains(t, out, "run-0003")
	assert.Contains(t, out, "50%*")
	assert.Contains(t, out, "+ DDD")
	assert.Contains(t, out, "- BBB")
	assert.Contains(t, out, "0%")
	assert.NotContains(t, out, "run-0001")
}
