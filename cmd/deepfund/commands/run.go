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
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one trading day for an experiment",
	Long: `Run the daily workflow once for the given trading date.

A date already covered by a committed portfolio is skipped and the
command still exits with success.

Example:
  go run ./cmd/deepfund run --config configs/default.yaml
  go run ./cmd/deepfund run --config configs/default.yaml --trading-date 2024-03-01`,
	RunE: runDay,
}

var (
	runConfigPath  string
	runTradingDate string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "experiment config file (YAML)")
	runCmd.Flags().StringVar(&runTradingDate, "trading-date", "", "trading date YYYY-MM-DD (default today)")
	_ = runCmd.MarkFlagRequired("config")
}

func runDay(cmd *cobra.Command, args []string) error {
	if runTradingDate == "" {
		runTradingDate = time.Now().Format(contracts.DateLayout)
	}

	cfg, err := expconfig.Load(runConfigPath, runTradingDate)
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

	printTitle(fmt.Sprintf("deepfund · %s", cfg.ExpName))
	res, err := runner.RunDay(ctx, cfg)
	if err != nil {
		printError(fmt.Sprintf("run failed: %v", err))
		return err
	}

	fmt.Println(renderDay(res))
	if res.Skipped {
		printWarning("already processed, nothing to do")
	} else {
		printSuccess("portfolio committed")
	}
	return nil
}
