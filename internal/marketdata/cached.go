package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/metrics"
	"github.com/wonny/deepfund/pkg/logger"
	"github.com/wonny/deepfund/pkg/redis"
)

// Cached serves repeated bar, news and overview lookups from Redis.
// Cache failures are logged and fall through to the source.
type Cached struct {
	contracts.MarketData
	cache    *redis.Cache
	provider string
	ttl      time.Duration
	metrics  *metrics.Recorder
	logger   *logger.Logger
}

// NewCached wraps next with a Redis cache
func NewCached(next contracts.MarketData, cache *redis.Cache, provider string, ttl time.Duration, rec *metrics.Recorder, log *logger.Logger) *Cached {
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}
	return &Cached{
		MarketData: next,
		cache:      cache,
		provider:   provider,
		ttl:        ttl,
		metrics:    rec,
		logger:     log,
	}
}

func (c *Cached) lookup(ctx context.Context, key string, dest interface{}) bool {
	hit, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Market data cache read failed")
		return false
	}
	c.metrics.RecordCacheLookup(hit)
	return hit
}

func (c *Cached) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := c.cache.Set(ctx, key, value, ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Market data cache write failed")
	}
}

func (c *Cached) DailyBars(ctx context.Context, ticker string, asOf time.Time) ([]contracts.Bar, error) {
	key := redis.BarsKey(c.provider, ticker, asOf.Format(contracts.DateLayout))

	var bars []contracts.Bar
	if c.lookup(ctx, key, &bars) {
		return bars, nil
	}

	bars, err := c.MarketData.DailyBars(ctx, ticker, asOf)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, bars, c.ttl)
	return bars, nil
}

func (c *Cached) MarketNews(ctx context.Context, query contracts.NewsQuery) ([]contracts.NewsItem, error) {
	key := redis.NewsKey(c.provider, query.Topic, query.Ticker, query.AsOf.Format(contracts.DateLayout), query.Limit)

	var items []contracts.NewsItem
	if c.lookup(ctx, key, &items) {
		return items, nil
	}

	items, err := c.MarketData.MarketNews(ctx, query)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, items, redis.TTLShort)
	return items, nil
}

func (c *Cached) CompanyOverview(ctx context.Context, ticker string) (*contracts.CompanyOverview, error) {
	key := fmt.Sprintf("overview:%s:%s", c.provider, ticker)

	var overview contracts.CompanyOverview
	if c.lookup(ctx, key, &overview) {
		return &overview, nil
	}

	out, err := c.MarketData.CompanyOverview(ctx, ticker)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, out, c.ttl)
	return out, nil
}
