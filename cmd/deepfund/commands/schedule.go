package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/deepfund/internal/scheduler"
	"github.com/wonny/deepfund/internal/scheduler/jobs"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run experiments every trading day on a cron schedule",
	Long: `Start the scheduler. Each tick runs every configured experiment for
the current date. Failed ticks are retried.

Example:
  go run ./cmd/deepfund schedule --config configs/default.yaml
  go run ./cmd/deepfund schedule --config a.yaml --config b.yaml --cron "0 0 18 * * MON-FRI" --tz America/New_York
  go run ./cmd/deepfund schedule --config configs/default.yaml --now`,
	RunE: runSchedule,
}

var (
	scheduleConfigs  []string
	scheduleCron     string
	scheduleTimezone string
	scheduleNow      bool
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringSliceVarP(&scheduleConfigs, "config", "c", nil, "experiment config files (repeatable)")
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", jobs.DefaultDailySchedule, "cron expression with seconds field")
	scheduleCmd.Flags().StringVar(&scheduleTimezone, "tz", "America/New_York", "schedule timezone")
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "run once immediately and exit")
	_ = scheduleCmd.MarkFlagRequired("config")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	loc, err := time.LoadLocation(scheduleTimezone)
	if err != nil {
		return fmt.Errorf("invalid --tz: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	runner, err := a.runner()
	if err != nil {
		return err
	}

	s := scheduler.New(a.log, scheduler.WithLocation(loc))
	job := jobs.NewDailyRunJob(scheduleConfigs, runner, scheduleCron, a.log)
	if err := job.Validate(); err != nil {
		printError(err.Error())
		return err
	}
	if err := s.AddJob(job); err != nil {
		return err
	}

	if scheduleNow {
		res, err := s.RunJob(job.Name())
		if err != nil {
			printError(err.Error())
			return err
		}
		if !res.Success {
			printError(fmt.Sprintf("%s failed after %d attempts: %s", res.JobName, res.Attempts, res.Error))
			return fmt.Errorf("%s", res.Error)
		}
		printSuccess(fmt.Sprintf("%s finished in %s", res.JobName, res.Duration.Round(time.Millisecond)))
		return nil
	}

	s.Start()
	defer s.Stop()

	if next, ok := s.NextRun(job.Name()); ok {
		printTitle(fmt.Sprintf("deepfund scheduler · next run %s", next.Format(time.RFC3339)))
	}

	<-ctx.Done()
	a.log.Info("Shutting down scheduler")
	return nil
}
