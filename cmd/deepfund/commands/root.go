package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "deepfund",
	Short: "deepfund - LLM analyst fund simulator",
	Long: `deepfund runs a daily trading workflow: analysts emit signals per ticker,
a portfolio manager turns them into one trade, and the ledger carries the
portfolio from day to day.

Usage:
  go run ./cmd/deepfund [command]

Examples:
  go run ./cmd/deepfund migrate
  go run ./cmd/deepfund run --config configs/default.yaml --trading-date 2024-03-01
  go run ./cmd/deepfund backfill --config configs/default.yaml --start-date 2024-03-01 --end-date 2024-03-29
  go run ./cmd/deepfund serve --port 8000`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
