package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/deepfund/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{Redis: config.RedisConfig{Enabled: false}}

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "value", TTLShort))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "bars:alphavantage:ACME:2024-01-15", BarsKey("alphavantage", "ACME", "2024-01-15"))
	assert.Equal(t, "news:alphavantage:economy_fiscal::2024-01-15:10", NewsKey("alphavantage", "economy_fiscal", "", "2024-01-15", 10))
	assert.Equal(t, "deepfund:cache:bars:x", NewCache(Disabled(), "deepfund").key("bars:x"))
}

func TestRateLimiter_DisabledAllowsAll(t *testing.T) {
	rl := NewRateLimiter(Disabled(), "deepfund", AlphaVantageRateLimit(1))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, err := rl.Allow(ctx)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 1, remaining)
	}
	assert.NoError(t, rl.Wait(ctx))
	assert.Equal(t, "deepfund:ratelimit:alphavantage", rl.key())
}

func TestAlphaVantageRateLimit(t *testing.T) {
	cfg := AlphaVantageRateLimit(75)
	assert.Equal(t, "alphavantage", cfg.Key)
	assert.Equal(t, 75, cfg.Limit)
	assert.Equal(t, time.Minute, cfg.Window)
}
