package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/expconfig"
	"github.com/wonny/deepfund/internal/workflow"
)

// backfillCmd represents the backfill command
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Run an experiment over a range of trading days",
	Long: `Run the daily workflow for every weekday between start and end,
oldest first. Days already committed are skipped, failed days are
counted and do not stop the backfill.

Example:
  go run ./cmd/deepfund backfill --config configs/default.yaml --start-date 2024-03-01 --end-date 2024-03-29`,
	RunE: runBackfill,
}

var (
	backfillConfigPath string
	backfillStart      string
	backfillEnd        string
)

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().StringVarP(&backfillConfigPath, "config", "c", "", "experiment config file (YAML)")
	backfillCmd.Flags().StringVar(&backfillStart, "start-date", "", "first trading date YYYY-MM-DD")
	backfillCmd.Flags().StringVar(&backfillEnd, "end-date", "", "last trading date YYYY-MM-DD")
	_ = backfillCmd.MarkFlagRequired("config")
	_ = backfillCmd.MarkFlagRequired("start-date")
	_ = backfillCmd.MarkFlagRequired("end-date")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	start, err := time.Parse(contracts.DateLayout, backfillStart)
	if err != nil {
		return fmt.Errorf("invalid --start-date: %w", err)
	}
	end, err := time.Parse(contracts.DateLayout, backfillEnd)
	if err != nil {
		return fmt.Errorf("invalid --end-date: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("--end-date %s is before --start-date %s", backfillEnd, backfillStart)
	}

	// Loaded once so every day shares one experiment name
	base, err := expconfig.Load(backfillConfigPath, backfillStart)
	if err != nil {
		printError(err.Error())
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		printError(err.Error())
		return err
	}
	defer a.Close()

	runner, err := a.runner()
	if err != nil {
		printError(err.Error())
		return err
	}

	days := workflow.TradingDays(start, end)
	printTitle(fmt.Sprintf("deepfund backfill · %s · %d trading days", base.ExpName, len(days)))

	succeeded, skipped, failed := backfill(ctx, runner, base, days, a)

	a.log.WithFields(map[string]interface{}{
		"experiment": base.ExpName,
		"succeeded":  succeeded,
		"skipped":    skipped,
		"failed":     failed,
	}).Info("Backfill finished")

	summary := fmt.Sprintf("backfill finished: %d succeeded, %d skipped, %d failed", succeeded, skipped, failed)
	if failed > 0 {
		printWarning(summary)
		return fmt.Errorf("%d of %d days failed", failed, len(days))
	}
	printSuccess(summary)
	return nil
}

func backfill(ctx context.Context, runner *workflow.Runner, base *expconfig.Config, days []time.Time, a *app) (succeeded, skipped, failed int) {
	for _, day := range days {
		if ctx.Err() != nil {
			printWarning("interrupted")
			return
		}

		res, err := runner.RunDay(ctx, base.WithTradingDate(day))
		date := day.Format(contracts.DateLayout)
		switch {
		case err != nil:
			failed++
			a.log.WithError(err).WithField("trading_date", date).Error("Backfill day failed")
			printError(fmt.Sprintf("%s failed: %v", date, err))
		case res.Skipped:
			skipped++
			fmt.Printf("%s skipped\n", date)
		default:
			succeeded++
			fmt.Printf("%s total assets %s\n", date, res.Portfolio.TotalAssets.StringFixed(2))
		}
	}
	return
}
