package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/export"
	"github.com/Cocofu92/rs-dashboard/internal/strategyconfig"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one RS scan and print the top percentile",
	Long: `Fetches the universe, scores every ticker against the benchmark
and prints tickers at or above the percentile cutoff.

Flags override the strategy file for this run only.

Example:
  go run ./cmd/rsscan scan
  go run ./cmd/rsscan scan --cutoff 80 --top 25 --workers 16
  go run ./cmd/rsscan scan --format json -o scan.json`,
	RunE: runScan,
}

var scanFlags struct {
	workers    int
	cutoff     float64
	topN       int
	maxTickers int
	basis      string
	noBench    bool
	format     string
	output     string
	all        bool
}

func init() {
	rootCmd.AddCommand(scanCmd)

	f := scanCmd.Flags()
	f.IntVar(&scanFlags.workers, "workers", 0, "concurrent fetch workers")
	f.Float64Var(&scanFlags.cutoff, "cutoff", 0, "minimum RS percentile (0-100)")
	f.IntVar(&scanFlags.topN, "top", 0, "keep at most N tickers (0 = all)")
	f.IntVar(&scanFlags.maxTickers, "max-tickers", 0, "scan only the first N tickers (0 = all)")
	f.StringVar(&scanFlags.basis, "basis", "", "percentile basis (universe|filtered)")
	f.BoolVar(&scanFlags.noBench, "no-benchmark", false, "rank on absolute return")
	f.StringVar(&scanFlags.format, "format", "table", "output format (table|csv|json)")
	f.StringVarP(&scanFlags.output, "output", "o", "", "write to file instead of stdout")
	f.BoolVar(&scanFlags.all, "all", false, "csv: include every scored ticker, not just the selection")
}

// applyScanFlags returns a modified copy of the strategy; only changed flags apply
func applyScanFlags(cmd *cobra.Command, base *strategyconfig.Config) (*strategyconfig.Config, error) {
	cfg := base.Clone()
	flags := cmd.Flags()

	if flags.Changed("workers") {
		cfg.Concurrency.Workers = scanFlags.workers
	}
	if flags.Changed("cutoff") {
		cfg.Ranking.PercentileCutoff = scanFlags.cutoff
	}
	if flags.Changed("top") {
		cfg.Ranking.TopN = scanFlags.topN
	}
	if flags.Changed("max-tickers") {
		cfg.Universe.MaxTickers = scanFlags.maxTickers
	}
	if flags.Changed("basis") {
		cfg.Ranking.PercentileBasis = scanFlags.basis
	}
	if scanFlags.noBench {
		cfg.Benchmark.Enabled = false
	}

	if err := strategyconfig.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cfg.RequirePolygonKey(); err != nil {
		return err
	}

	strategy, err := applyScanFlags(cmd, a.strategy)
	if err != nil {
		return err
	}

	o := a.orchestrator(strategy)
	o.OnProgress(func(e contracts.ProgressEvent) {
		fmt.Fprintf(os.Stderr, "\r[Scan] %d/%d tickers", e.Processed, e.Total)
		if e.Processed == e.Total {
			fmt.Fprintln(os.Stderr)
		}
	})

	result, err := o.Run(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	a.archiveResult(ctx, result)

	return writeResult(result, scanFlags.format, scanFlags.output, scanFlags.all)
}

// writeResult renders a result in the requested format
func writeResult(result *contracts.ScanResult, format, output string, all bool) error {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	if err := render(w, result, format, all); err != nil {
		return err
	}

	if output != "" {
		PrintSuccess(os.Stderr, fmt.Sprintf("%s → %s", SummaryLine(result), output))
	}
	return nil
}

func render(w io.Writer, result *contracts.ScanResult, format string, all bool) error {
	switch format {
	case "table":
		PrintScanResult(w, result)
		return nil
	case "csv":
		rows := result.Selected
		if all {
			rows = result.Candidates
		}
		return export.WriteCSV(w, export.Rows(rows))
	case "json":
		return export.WriteJSON(w, result)
	}
	return fmt.Errorf("unknown format %q (valid: table, csv, json)", format)
}
