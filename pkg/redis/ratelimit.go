package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // provider key, e.g. "alphavantage"
	Limit  int           // maximum requests allowed
	Window time.Duration // sliding window
}

// AlphaVantageRateLimit is the per-key quota shared by every deepfund process
func AlphaVantageRateLimit(perMinute int) RateLimitConfig {
	return RateLimitConfig{Key: "alphavantage", Limit: perMinute, Window: time.Minute}
}

// RateLimiter implements sliding window rate limiting using Redis
// ⭐ SSOT: cross-process rate limits live only here
type RateLimiter struct {
	client *Client
	prefix string
	cfg    RateLimitConfig
	poll   time.Duration
}

// NewRateLimiter creates a new rate limiter for one quota
func NewRateLimiter(client *Client, prefix string, cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		cfg:    cfg,
		poll:   250 * time.Millisecond,
	}
}

var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	end
	return {0, 0}
`)

func (r *RateLimiter) key() string {
	return fmt.Sprintf("%s:ratelimit:%s", r.prefix, r.cfg.Key)
}

// Allow reports whether one more request fits the window, and how many remain.
// A disabled client or non-positive limit allows everything.
func (r *RateLimiter) Allow(ctx context.Context) (bool, int, error) {
	if !r.client.Enabled() || r.cfg.Limit <= 0 {
		return true, r.cfg.Limit, nil
	}

	now := time.Now()
	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{r.key()},
		now.UnixMilli(),
		now.Add(-r.cfg.Window).UnixMilli(),
		r.cfg.Limit,
		r.cfg.Window.Milliseconds(),
		now.UnixNano(),
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	allowed := result[0].(int64) == 1
	remaining := int(result[1].(int64))
	return allowed, remaining, nil
}

// Wait blocks until a request is allowed or ctx is done
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		allowed, _, err := r.Allow(ctx)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.poll):
		}
	}
}
