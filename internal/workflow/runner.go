package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/expconfig"
)

// DayResult reports one RunDay call
type DayResult struct {
	ExpName     string
	ConfigID    string
	TradingDate time.Time
	Skipped     bool
	LatestDate  time.Time // latest committed date seen before the run
	Duration    time.Duration
	Portfolio   contracts.Portfolio
}

// Runner executes experiments one trading day at a time
type Runner struct {
	deps Deps
}

// NewRunner creates a new runner
func NewRunner(deps Deps) *Runner {
	return &Runner{deps: deps}
}

// RunDay resolves the experiment, skips dates already covered by a committed
// snapshot, and otherwise runs and commits the workflow for cfg.TradingDate.
func (r *Runner) RunDay(ctx context.Context, cfg *expconfig.Config) (DayResult, error) {
	start := time.Now()
	result := DayResult{ExpName: cfg.ExpName, TradingDate: cfg.TradingDate}
	log := r.deps.Logger.WithFields(map[string]interface{}{
		"experiment":   cfg.ExpName,
		"trading_date": cfg.TradingDate.Format(contracts.DateLayout),
	})

	fail := func(err error) (DayResult, error) {
		result.Duration = time.Since(start)
		r.deps.Metrics.RecordRun(cfg.ExpName, "failed", result.Duration)
		log.WithError(err).Error("Trading day failed")
		return result, err
	}

	if _, err := newSelector(cfg, r.deps); err != nil {
		return fail(fmt.Errorf("invalid analyst configuration: %w", err))
	}

	configID, err := r.resolveConfig(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	result.ConfigID = configID

	latest, ok, err := r.deps.Store.GetLatestTradingDate(ctx, configID)
	if err != nil {
		return fail(fmt.Errorf("failed to get latest trading date: %w", err))
	}
	if ok {
		result.LatestDate = latest
		if !dateOnly(latest).Before(dateOnly(cfg.TradingDate)) {
			result.Skipped = true
			result.Duration = time.Since(start)
			r.deps.Metrics.RecordRun(cfg.ExpName, "skipped", result.Duration)
			log.WithField("latest_trading_date", latest.Format(contracts.DateLayout)).
				Info("Trading date already processed, skipping")
			return result, nil
		}
	}

	wf, err := New(ctx, cfg, configID, r.deps)
	if err != nil {
		return fail(err)
	}
	final, err := wf.Run(ctx)
	if err != nil {
		return fail(err)
	}

	result.Portfolio = final
	result.Duration = time.Since(start)
	r.deps.Metrics.RecordRun(cfg.ExpName, "completed", result.Duration)
	r.deps.Metrics.SetTotalAssets(cfg.ExpName, final.TotalAssets.InexactFloat64())

	log.WithFields(map[string]interface{}{
		"portfolio_id": final.ID,
		"total_assets": final.TotalAssets.StringFixed(2),
		"duration":     result.Duration.String(),
	}).Info("Trading day completed")

	return result, nil
}

func (r *Runner) resolveConfig(ctx context.Context, cfg *expconfig.Config) (string, error) {
	id, err := r.deps.Store.GetConfigIDByName(ctx, cfg.ExpName)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, contracts.ErrNotFound) {
		return "", fmt.Errorf("failed to look up config: %w", err)
	}

	r.deps.Logger.WithField("experiment", cfg.ExpName).Info("Creating new config")
	id, err = r.deps.Store.CreateConfig(ctx, cfg.Record())
	if err != nil {
		return "", fmt.Errorf("failed to create config for %s: %w", cfg.ExpName, err)
	}
	return id, nil
}

// TradingDays returns the weekdays from start to end inclusive.
// Market holidays are not excluded.
func TradingDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := dateOnly(start); !d.After(dateOnly(end)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
