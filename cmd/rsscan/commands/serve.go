package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Cocofu92/rs-dashboard/internal/api"
	"github.com/Cocofu92/rs-dashboard/internal/api/handlers"
	"github.com/Cocofu92/rs-dashboard/internal/api/ws"
	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/scheduler"
	"github.com/Cocofu92/rs-dashboard/internal/scheduler/jobs"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	Long: `Starts the HTTP API with live scan progress over websocket.

Endpoints:
  GET  /health               - Health check
  POST /api/scan             - Start a scan in the background
  GET  /api/scan/status      - Running / last run
  GET  /api/scan/latest      - Latest scan result (JSON)
  GET  /api/scan/latest.csv  - Latest selection (CSV)
  GET  /api/universe         - Cached universe
  GET  /ws/progress          - Scan progress stream

Example:
  go run ./cmd/rsscan serve
  go run ./cmd/rsscan serve --port 9090 --schedule`,
	RunE: runServe,
}

var (
	servePort     string
	serveSchedule bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default: PORT)")
	serveCmd.Flags().BoolVar(&serveSchedule, "schedule", false, "also run the scheduled scan (SCHEDULE_CRON)")
}

func runServe(cmd *cobra.Command, args []string) error {
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
	if servePort != "" {
		a.cfg.Port = servePort
	}

	hub := ws.NewHub(a.log)
	defer hub.Close()

	o := a.orchestrator(a.strategy)
	scanHandler := handlers.NewScanHandler(ctx, o, a.provider, a.query(), hub, a.log)
	o.OnProgress(scanHandler.Progress)
	scanHandler.OnComplete(a.archiveResult)

	router := api.NewRouter(scanHandler, hub, a.log)
	server := api.New(a.cfg, a.log, router)

	if serveSchedule {
		sched := scheduler.New(a.log)
		record := func(result *contracts.ScanResult) {
			scanHandler.Record(result)
			a.archiveResult(ctx, result)
		}
		job := jobs.NewScanJob(o, a.cfg.ScheduleCron, record, a.log)
		if err := sched.AddJob(job); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	scanHandler.Wait()

	a.log.Info("Server stopped")
	return nil
}
