package logger_test

import (
	"errors"
	"time"

	"github.com/wonny/deepfund/pkg/config"
	"github.com/wonny/deepfund/pkg/logger"
)

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	log := logger.New(&config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	})

	log.WithFields(map[string]interface{}{
		"ticker": "AAPL",
		"action": "Buy",
		"shares": 10,
		"price":  "189.12",
	}).Info("Decision applied")

	// {"level":"info","ticker":"AAPL","action":"Buy","shares":10,"price":"189.12","message":"Decision applied",...}
}

// Example_forTicker demonstrates the per-ticker context used inside a run
func Example_forTicker() {
	log := logger.New(&config.Config{Env: "development", LogLevel: "debug", LogFormat: "console"})

	tickerLog := log.ForTicker("default", "AAPL", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	tickerLog.Debug("Running analysts")
	tickerLog.WithError(errors.New("no price data")).Warn("Analyst skipped")
}
