package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/wonny/deepfund/pkg/logger"
)

// Client is a JSON HTTP client with retry, client-side rate limiting and logging
// ⭐ SSOT: outbound HTTP to data providers goes through this client
type Client struct {
	rc      *resty.Client
	limiter Waiter
	logger  *logger.Logger
}

// Waiter blocks until the next request may be sent
type Waiter interface {
	Wait(ctx context.Context) error
}

// Options configures a Client
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerMinute int // 0 disables rate limiting
	MaxRetries    int
	RetryWait     time.Duration
	Limiter       Waiter // overrides RatePerMinute when set
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// New creates a new client
func New(opts Options, log *logger.Logger) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryWait == 0 {
		opts.RetryWait = time.Second
	}

	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.MaxRetries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(10 * opts.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return IsRetryableStatus(r.StatusCode())
		})

	limiter := opts.Limiter
	if limiter == nil && opts.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), 1)
	}

	return &Client{rc: rc, limiter: limiter, logger: log}
}

// GetJSON performs a GET and decodes the JSON body into dest
func (c *Client) GetJSON(ctx context.Context, path string, query map[string]string, dest interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetHeader("Accept", "application/json").
		Get(path)

	duration := time.Since(start)
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"path":     path,
			"duration": duration,
			"error":    err.Error(),
		}).Error("HTTP request failed")
		return fmt.Errorf("request %s failed: %w", path, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"path":        path,
		"status_code": resp.StatusCode(),
		"duration":    duration,
	}).Debug("HTTP request completed")

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return &StatusError{StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 256)}
	}

	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	return nil
}

// IsRetryableStatus reports whether a status code should be retried
func IsRetryableStatus(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
