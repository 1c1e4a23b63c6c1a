package commands

import (
	"context"
	"fmt"

	"github.com/wonny/deepfund/internal/analysts"
	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/llm"
	"github.com/wonny/deepfund/internal/marketdata"
	"github.com/wonny/deepfund/internal/metrics"
	"github.com/wonny/deepfund/internal/portfolio"
	"github.com/wonny/deepfund/internal/store/postgres"
	"github.com/wonny/deepfund/internal/workflow"
	"github.com/wonny/deepfund/pkg/config"
	"github.com/wonny/deepfund/pkg/database"
	"github.com/wonny/deepfund/pkg/httputil"
	"github.com/wonny/deepfund/pkg/logger"
	"github.com/wonny/deepfund/pkg/redis"
)

// app holds the process-wide collaborators shared by the commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	redis   *redis.Client
	metrics *metrics.Recorder
	store   *postgres.Store
}

// newApp loads config, connects Postgres and Redis
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, market data cache disabled")
		rdb = redis.Disabled()
	}

	var rec *metrics.Recorder
	if cfg.MetricsEnabled {
		rec = metrics.New()
	}

	return &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		redis:   rdb,
		metrics: rec,
		store:   postgres.New(db.Pool, log),
	}, nil
}

// Close releases connections
func (a *app) Close() {
	_ = a.redis.Close()
	a.db.Close()
}

// marketData builds the cached, breaker-guarded market data source
func (a *app) marketData() (contracts.MarketData, error) {
	cache := redis.NewCache(a.redis, "deepfund")

	// The Alpha Vantage quota is per key, so share it across processes when Redis is up
	var limiter httputil.Waiter
	if a.redis.Enabled() {
		limiter = redis.NewRateLimiter(a.redis, "deepfund", redis.AlphaVantageRateLimit(a.cfg.MarketData.RatePerMinute))
	}
	return marketdata.New(a.cfg.MarketData, cache, limiter, a.metrics, a.log)
}

// runner wires analysts, planner and decision node into a workflow runner
func (a *app) runner() (*workflow.Runner, error) {
	data, err := a.marketData()
	if err != nil {
		return nil, fmt.Errorf("market data: %w", err)
	}
	client := llm.New(a.cfg.LLM, a.metrics, a.log)

	return workflow.NewRunner(workflow.Deps{
		Store:    a.store,
		Registry: analysts.NewDefaultRegistry(data, client, a.log),
		Planner:  analysts.NewLLMPlanner(client, a.log),
		Decider:  portfolio.NewManager(data, client, a.store, a.log),
		Metrics:  a.metrics,
		Logger:   a.log,
	}), nil
}
