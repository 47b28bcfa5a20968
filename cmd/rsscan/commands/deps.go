package commands

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/Cocofu92/rs-dashboard/internal/audit"
	"github.com/Cocofu92/rs-dashboard/internal/brain"
	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/external/finviz"
	"github.com/Cocofu92/rs-dashboard/internal/external/polygon"
	"github.com/Cocofu92/rs-dashboard/internal/s1_universe"
	"github.com/Cocofu92/rs-dashboard/internal/store"
	"github.com/Cocofu92/rs-dashboard/internal/strategyconfig"
	"github.com/Cocofu92/rs-dashboard/pkg/config"
	"github.com/Cocofu92/rs-dashboard/pkg/database"
	"github.com/Cocofu92/rs-dashboard/pkg/httputil"
	"github.com/Cocofu92/rs-dashboard/pkg/logger"
	"github.com/Cocofu92/rs-dashboard/pkg/redis"
)

// app holds everything a command needs, built once per invocation
type app struct {
	cfg      *config.Config
	strategy *strategyconfig.Config
	log      *logger.Logger

	redis *redis.Client
	db    *database.DB

	store    store.Store
	archive  *audit.Repository // nil without DATABASE_URL
	polygon  *polygon.Client
	finviz   *finviz.Client
	provider *s1_universe.Provider
}

// loadApp reads env + strategy and opens the configured cache backend.
// Network clients are built but nothing is fetched here.
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	path := strategyFile
	if path == "" {
		path = cfg.StrategyFile
	}
	strategy, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}

	a := &app{
		cfg:      cfg,
		strategy: strategy,
		log:      logger.New(cfg),
	}

	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := a.openDatabase(ctx); err != nil {
		a.close()
		return nil, err
	}

	if err := a.openStore(ctx); err != nil {
		a.close()
		return nil, err
	}

	a.buildClients()
	a.provider = s1_universe.NewProvider(a.polygon, a.store, strategy.Universe.CacheTTL, a.log.WithModule("universe"))

	return a, nil
}

// openDatabase connects when DATABASE_URL is set and prepares the scan archive
func (a *app) openDatabase(ctx context.Context) error {
	if a.cfg.Database.URL == "" {
		return nil
	}

	db, err := database.New(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	a.db = db

	a.archive, err = audit.NewRepository(ctx, db)
	if err != nil {
		return err
	}
	return nil
}

// openStore selects the universe cache backend
func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Cache.Backend {
	case "redis":
		a.store = store.NewRedisStore(a.redis, a.cfg.Cache.Prefix)
	case "postgres":
		pg, err := store.NewPostgresStore(ctx, a.db)
		if err != nil {
			return err
		}
		a.store = pg
	default:
		fs, err := store.NewFileStore(a.cfg.Cache.Dir, a.cfg.Cache.Prefix)
		if err != nil {
			return err
		}
		a.store = fs
	}

	a.log.WithField("backend", a.cfg.Cache.Backend).Debug("Universe cache ready")
	return nil
}

// buildClients wires provider clients with their rate limiters.
// With Redis enabled the limit is shared by every process using the same key.
func (a *app) buildClients() {
	polygonHTTP := httputil.New(a.log, a.cfg.Polygon.Timeout).
		DisableRetry().
		WithRateLimiter(a.limiter("polygon", a.cfg.Polygon.RateLimit))
	a.polygon = polygon.NewClient(polygonHTTP, a.cfg.Polygon.BaseURL, a.cfg.Polygon.APIKey, a.log.WithModule("polygon")).
		WithMinBars(a.strategy.History.MinBars)

	finvizHTTP := httputil.New(a.log, a.cfg.Finviz.Timeout).
		DisableRetry().
		WithRateLimiter(a.limiter("finviz", a.cfg.Finviz.RateLimit)).
		WithHeader("User-Agent", a.cfg.Finviz.UserAgent)
	a.finviz = finviz.NewClient(finvizHTTP, a.cfg.Finviz.BaseURL, a.log.WithModule("finviz"))
}

func (a *app) limiter(key string, rps float64) httputil.Limiter {
	if a.redis.Enabled() {
		return redis.NewRateLimiter(a.redis, a.cfg.Cache.Prefix).Bind(redis.PerSecond(key, rps))
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// query is the universe slice the strategy scans
func (a *app) query() contracts.UniverseQuery {
	return contracts.UniverseQuery{
		Market:    a.strategy.Universe.Market,
		Exchanges: a.strategy.Universe.Exchanges,
		AssetType: a.strategy.Universe.AssetType,
	}
}

// orchestrator builds the scan pipeline for strategy
func (a *app) orchestrator(strategy *strategyconfig.Config) *brain.Orchestrator {
	var fundamentals contracts.FundamentalsFetcher
	if strategy.Filters.Fundamentals.Enabled {
		fundamentals = a.finviz
	}
	return brain.NewOrchestrator(strategy, a.provider, a.polygon, fundamentals, a.log)
}

// archiveResult stores a finished run when the archive is configured.
// Failures are logged; the scan result itself is already delivered.
func (a *app) archiveResult(ctx context.Context, result *contracts.ScanResult) {
	if a.archive == nil || result == nil {
		return
	}
	if err := a.archive.Save(ctx, result); err != nil {
		a.log.WithError(err).WithField("run_id", result.RunID).Warn("Failed to archive scan run")
		return
	}
	a.log.WithField("run_id", result.RunID).Debug("Scan run archived")
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}

// shutdownTimeout bounds graceful shutdown of long-running commands
const shutdownTimeout = 30 * time.Second
