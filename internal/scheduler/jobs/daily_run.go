package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/expconfig"
	"github.com/wonny/deepfund/internal/workflow"
	"github.com/wonny/deepfund/pkg/logger"
)

// DefaultDailySchedule fires after the US close on weekdays
const DefaultDailySchedule = "0 30 17 * * MON-FRI"

// ErrExpNameRequired is returned for scheduled configs without exp_name
var ErrExpNameRequired = errors.New("exp_name is required for scheduled runs")

// DayRunner runs one experiment for one trading date
type DayRunner interface {
	RunDay(ctx context.Context, cfg *expconfig.Config) (workflow.DayResult, error)
}

// DailyRunJob runs every configured experiment for the current date
type DailyRunJob struct {
	configPaths []string
	runner      DayRunner
	schedule    string
	now         func() time.Time
	logger      *logger.Logger
}

// NewDailyRunJob creates a new daily run job. An empty schedule uses DefaultDailySchedule.
func NewDailyRunJob(configPaths []string, runner DayRunner, schedule string, log *logger.Logger) *DailyRunJob {
	if schedule == "" {
		schedule = DefaultDailySchedule
	}
	return &DailyRunJob{
		configPaths: configPaths,
		runner:      runner,
		schedule:    schedule,
		now:         time.Now,
		logger:      log,
	}
}

// Name returns the job name
func (j *DailyRunJob) Name() string {
	return "daily_run"
}

// Schedule returns the cron schedule
func (j *DailyRunJob) Schedule() string {
	return j.schedule
}

// Run executes today's run for every experiment. A failing experiment does
// not stop the others; the joined error is returned so the run is retried.
// Retries are cheap because completed experiments are skipped.
func (j *DailyRunJob) Run(ctx context.Context) error {
	today := j.now().Format(contracts.DateLayout)

	var errs []error
	for _, path := range j.configPaths {
		cfg, err := j.load(path, today)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		res, err := j.runner.RunDay(ctx, cfg)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", cfg.ExpName, err))
			continue
		}

		j.logger.WithFields(map[string]interface{}{
			"experiment":   cfg.ExpName,
			"trading_date": today,
			"skipped":      res.Skipped,
		}).Info("Scheduled run finished")
	}

	return errors.Join(errs...)
}

// Validate loads every config once so bad files fail before the first tick
func (j *DailyRunJob) Validate() error {
	today := j.now().Format(contracts.DateLayout)

	var errs []error
	for _, path := range j.configPaths {
		if _, err := j.load(path, today); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// load requires an explicit exp_name: a derived one embeds the date, so each
// day would start a fresh experiment instead of carrying the portfolio forward
func (j *DailyRunJob) load(path, date string) (*expconfig.Config, error) {
	cfg, err := expconfig.Load(path, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.NameDerived {
		return nil, fmt.Errorf("%s: %w", path, ErrExpNameRequired)
	}
	return cfg, nil
}
