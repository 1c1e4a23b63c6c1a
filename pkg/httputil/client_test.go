package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/deepfund/pkg/logger"
)

type payload struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func TestGetJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "ACME", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"ACME","price":"50.00"}`))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL}, logger.Nop())

	var got payload
	err := client.GetJSON(context.Background(), "/query", map[string]string{"symbol": "ACME"}, &got)
	require.NoError(t, err)
	assert.Equal(t, payload{Symbol: "ACME", Price: "50.00"}, got)
}

func TestGetJSON_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`bad request`))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL, MaxRetries: 3, RetryWait: time.Millisecond}, logger.Nop())

	var got payload
	err := client.GetJSON(context.Background(), "/query", nil, &got)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetJSON_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"symbol":"ACME"}`))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL, MaxRetries: 3, RetryWait: time.Millisecond}, logger.Nop())

	var got payload
	require.NoError(t, client.GetJSON(context.Background(), "/q", nil, &got))
	assert.Equal(t, "ACME", got.Symbol)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetJSON_RateLimitHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL, RatePerMinute: 1}, logger.Nop())

	var got payload
	require.NoError(t, client.GetJSON(context.Background(), "/q", nil, &got))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := client.GetJSON(ctx, "/q", nil, &got)
	assert.Error(t, err)
}

func TestIsRetryableStatus(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRetryableStatus(tt.code), "status %d", tt.code)
	}
}

type countingWaiter struct {
	calls int32
	err   error
}

func (w *countingWaiter) Wait(ctx context.Context) error {
	atomic.AddInt32(&w.calls, 1)
	return w.err
}

func TestGetJSON_UsesLimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"ACME","price":"1"}`))
	}))
	defer server.Close()

	waiter := &countingWaiter{}
	client := New(Options{BaseURL: server.URL, Limiter: waiter, RatePerMinute: 1}, logger.Nop())

	var got payload
	require.NoError(t, client.GetJSON(context.Background(), "/q", nil, &got))
	require.NoError(t, client.GetJSON(context.Background(), "/q", nil, &got))
	assert.Equal(t, int32(2), atomic.LoadInt32(&waiter.calls))
}

func TestGetJSON_LimiterErrorStopsRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL, Limiter: &countingWaiter{err: errors.New("quota")}}, logger.Nop())

	var got payload
	err := client.GetJSON(context.Background(), "/q", nil, &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait failed")
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}
