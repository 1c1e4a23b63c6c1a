package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/history"
)

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the stored analysis history of one ticker",
	Long: `Summarize the signals and decisions stored for a ticker over a date
range, the same data POST /api/historical_analysis returns.

Example:
  go run ./cmd/deepfund summary --exp default --ticker AAPL --start-date 2024-03-01 --end-date 2024-03-29`,
	RunE: runSummary,
}

var (
	summaryExp    string
	summaryTicker string
	summaryStart  string
	summaryEnd    string
)

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().StringVar(&summaryExp, "exp", "", "experiment name")
	summaryCmd.Flags().StringVar(&summaryTicker, "ticker", "", "ticker symbol")
	summaryCmd.Flags().StringVar(&summaryStart, "start-date", "", "first date YYYY-MM-DD")
	summaryCmd.Flags().StringVar(&summaryEnd, "end-date", "", "last date YYYY-MM-DD")
	for _, f := range []string{"exp", "ticker", "start-date", "end-date"} {
		_ = summaryCmd.MarkFlagRequired(f)
	}
}

func runSummary(cmd *cobra.Command, args []string) error {
	start, err := time.Parse(contracts.DateLayout, summaryStart)
	if err != nil {
		return fmt.Errorf("invalid --start-date: %w", err)
	}
	end, err := time.Parse(contracts.DateLayout, summaryEnd)
	if err != nil {
		return fmt.Errorf("invalid --end-date: %w", err)
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	service := history.NewService(a.store, nil, a.log)
	s, err := service.Summary(ctx, history.Query{
		ExpName: summaryExp,
		Ticker:  summaryTicker,
		Start:   start,
		End:     end,
	})
	if err != nil {
		printError(err.Error())
		return err
	}

	printTitle(fmt.Sprintf("%s · %s · %s to %s", s.ExpName, s.Ticker, s.Period.Start, s.Period.End))
	fmt.Println(renderSummary(s))
	return nil
}
