package marketdata

import (
	"fmt"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/metrics"
	"github.com/wonny/deepfund/pkg/config"
	"github.com/wonny/deepfund/pkg/httputil"
	"github.com/wonny/deepfund/pkg/logger"
	"github.com/wonny/deepfund/pkg/redis"
)

// New assembles the configured source: provider → circuit breaker → cache.
// Alpha Vantage always serves news, fundamentals and macro series; the
// yahoo provider only replaces daily bars. A nil limiter falls back to a
// per-process limit of cfg.RatePerMinute.
func New(cfg config.MarketDataConfig, cache *redis.Cache, limiter httputil.Waiter, rec *metrics.Recorder, log *logger.Logger) (contracts.MarketData, error) {
	if cfg.AlphaVantageKey == "" {
		return nil, fmt.Errorf("ALPHA_VANTAGE_API_KEY is required")
	}

	client := httputil.New(httputil.Options{
		BaseURL:       cfg.AlphaVantageURL,
		Timeout:       cfg.Timeout,
		RatePerMinute: cfg.RatePerMinute,
		MaxRetries:    2,
		Limiter:       limiter,
	}, log)

	var source contracts.MarketData = NewAlphaVantage(client, cfg.AlphaVantageKey, rec, log)

	switch cfg.Provider {
	case SourceAlphaVantage:
	case SourceYahoo:
		source = NewYahoo(source, rec, log)
	default:
		return nil, fmt.Errorf("unknown market data provider: %s", cfg.Provider)
	}

	source = NewBreaker(source, cfg.Provider, cfg.BreakerFailures, cfg.BreakerOpenDelay, log)
	return NewCached(source, cache, cfg.Provider, cfg.CacheTTL, rec, log), nil
}
