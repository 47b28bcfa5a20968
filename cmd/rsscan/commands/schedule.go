package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/scheduler"
	"github.com/Cocofu92/rs-dashboard/internal/scheduler/jobs"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the scan on a cron schedule in the foreground",
	Long: `Registers the universe refresh and scan jobs and runs until interrupted.
Each completed scan is written to --out-dir as <date>_<run id>.json.

Example:
  go run ./cmd/rsscan schedule
  go run ./cmd/rsscan schedule --cron "0 0 18 * * 1-5" --refresh-cron "0 0 7 * * 1-5"`,
	RunE: runSchedule,
}

var scheduleFlags struct {
	cron        string
	refreshCron string
	outDir      string
	runNow      bool
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	f := scheduleCmd.Flags()
	f.StringVar(&scheduleFlags.cron, "cron", "", "scan schedule, seconds first (default: SCHEDULE_CRON)")
	f.StringVar(&scheduleFlags.refreshCron, "refresh-cron", "", "universe refresh schedule (empty = refresh on TTL only)")
	f.StringVar(&scheduleFlags.outDir, "out-dir", "scans", "directory for scan results")
	f.BoolVar(&scheduleFlags.runNow, "run-now", false, "run one scan immediately")
}

func runSchedule(cmd *cobra.Command, args []string) error {
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
	if err := os.MkdirAll(scheduleFlags.outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", scheduleFlags.outDir, err)
	}

	spec := a.cfg.ScheduleCron
	if scheduleFlags.cron != "" {
		spec = scheduleFlags.cron
	}

	sched := scheduler.New(a.log)

	save := func(result *contracts.ScanResult) {
		name := fmt.Sprintf("%s_%s.json", result.StartedAt.Format("20060102"), result.RunID[:8])
		path := filepath.Join(scheduleFlags.outDir, name)
		if err := writeResult(result, "json", path, false); err != nil {
			a.log.WithError(err).Error("Failed to save scan result")
		}
		a.archiveResult(ctx, result)
	}
	scanJob := jobs.NewScanJob(a.orchestrator(a.strategy), spec, save, a.log)
	if err := sched.AddJob(scanJob); err != nil {
		return err
	}

	if scheduleFlags.refreshCron != "" {
		refreshJob := jobs.NewUniverseJob(a.provider, a.query(), scheduleFlags.refreshCron, a.log)
		if err := sched.AddJob(refreshJob); err != nil {
			return err
		}
	}

	sched.Start()
	if scheduleFlags.runNow {
		if err := sched.RunJob(scanJob.Name()); err != nil {
			return err
		}
	}

	for _, name := range sched.GetAllJobs() {
		next, _ := sched.NextRun(name)
		PrintKeyValue(os.Stdout, name, "next "+next.Format("2006-01-02 15:04:05"), 18)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()
	sched.Stop()

	for name, st := range sched.GetJobStats() {
		PrintKeyValue(os.Stdout, name, fmt.Sprintf("%d runs, %d failed", st.TotalRuns, st.FailureCount), 18)
	}
	return nil
}
