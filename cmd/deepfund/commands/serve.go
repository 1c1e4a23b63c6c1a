package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/deepfund/internal/api"
	"github.com/wonny/deepfund/internal/api/handlers"
	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/history"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the historical analysis API server",
	Long: `Start the HTTP API server.

Endpoints:
  GET  /health                   - Health check
  GET  /metrics                  - Prometheus metrics (when METRICS_ENABLED)
  POST /api/historical_analysis  - Per-ticker summary of stored signals and decisions

Example:
  go run ./cmd/deepfund serve
  go run ./cmd/deepfund serve --port 8000`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default from PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	port := a.cfg.Port
	if servePort != "" {
		port = servePort
	}

	// Prices are optional in summaries
	var prices contracts.MarketData
	if data, err := a.marketData(); err != nil {
		a.log.WithError(err).Warn("Market data unavailable, summaries will omit prices")
	} else {
		prices = data
	}

	service := history.NewService(a.store, prices, a.log)

	var metricsHandler http.Handler
	if a.metrics != nil {
		metricsHandler = a.metrics.Handler()
	}
	router := api.NewRouter(handlers.NewAnalysisHandler(service, a.log), metricsHandler, a.log)

	printTitle(fmt.Sprintf("deepfund API · :%s", port))
	return api.NewServer(port, router, a.log).Run(ctx)
}
