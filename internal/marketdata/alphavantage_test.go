package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/pkg/httputil"
	"github.com/wonny/deepfund/pkg/logger"
)

func newTestAlphaVantage(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *AlphaVantage {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)

	client := httputil.New(httputil.Options{BaseURL: server.URL}, logger.Nop())
	return NewAlphaVantage(client, "demo", nil, logger.Nop())
}

func day(s string) time.Time {
	d, _ := time.Parse(contracts.DateLayout, s)
	return d
}

func TestAlphaVantage_DailyBars(t *testing.T) {
	av := newTestAlphaVantage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		assert.Equal(t, "ACME", r.URL.Query().Get("symbol"))
		assert.Equal(t, "demo", r.URL.Query().Get("apikey"))
		_, _ = w.Write([]byte(`{
			"Meta Data": {"2. Symbol": "ACME"},
			"Time Series (Daily)": {
				"2024-03-04": {"1. open": "52.0", "2. high": "53.0", "3. low": "51.0", "4. close": "52.5", "5. volume": "1200"},
				"2024-03-01": {"1. open": "50.0", "2. high": "51.0", "3. low": "49.0", "4. close": "50.5", "5. volume": "1000"},
				"2024-02-29": {"1. open": "49.0", "2. high": "50.0", "3. low": "48.0", "4. close": "49.5", "5. volume": "900"}
			}
		}`))
	})

	bars, err := av.DailyBars(context.Background(), "ACME", day("2024-03-01"))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, day("2024-02-29"), bars[0].Date)
	assert.Equal(t, 50.5, bars[1].Close)
	assert.Equal(t, int64(1000), bars[1].Volume)
}

func TestAlphaVantage_ErrorEnvelope(t *testing.T) {
	t.Run("error message means no coverage", func(t *testing.T) {
		av := newTestAlphaVantage(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Error Message": "Invalid API call."}`))
		})
		_, err := av.DailyBars(context.Background(), "NOPE", day("2024-03-01"))
		assert.True(t, errors.Is(err, contracts.ErrDataUnavailable))
	})

	t.Run("throttle note is a provider failure", func(t *testing.T) {
		av := newTestAlphaVantage(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
		})
		_, err := av.DailyBars(context.Background(), "ACME", day("2024-03-01"))
		require.Error(t, err)
		assert.False(t, errors.Is(err, contracts.ErrDataUnavailable))
	})
}

func TestAlphaVantage_MarketNews(t *testing.T) {
	av := newTestAlphaVantage(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "NEWS_SENTIMENT", q.Get("function"))
		assert.Equal(t, "economy_fiscal", q.Get("topics"))
		assert.Equal(t, "20240301T2359", q.Get("time_to"))
		assert.Equal(t, "2", q.Get("limit"))
		_, _ = w.Write([]byte(`{"items": "3", "feed": [
			{"title": "Budget passes", "url": "u1", "time_published": "20240301T101500", "summary": "s1", "source": "Wire", "overall_sentiment_label": "Neutral"},
			{"title": "Deficit widens", "url": "u2", "time_published": "20240229T090000", "summary": "s2", "source": "Wire", "overall_sentiment_label": "Bearish"},
			{"title": "Extra", "url": "u3", "time_published": "20240228T090000", "summary": "s3", "source": "Wire"}
		]}`))
	})

	items, err := av.MarketNews(context.Background(), contracts.NewsQuery{Topic: "economy_fiscal", AsOf: day("2024-03-01"), Limit: 2})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Budget passes", items[0].Title)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC), items[0].PublishedAt)
	assert.Equal(t, "Bearish", items[1].Sentiment)
}

func TestAlphaVantage_CompanyOverview(t *testing.T) {
	av := newTestAlphaVantage(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Symbol": "ACME", "Name": "Acme Corp", "Sector": "TECHNOLOGY", "Industry": "Widgets",
			"Description": "Makes widgets", "PERatio": "21.5", "EPS": "3.2", "ForwardPE": "None"}`))
	})

	overview, err := av.CompanyOverview(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", overview.Name)
	assert.Equal(t, map[string]string{"PERatio": "21.5", "EPS": "3.2"}, overview.Metrics)

	empty := newTestAlphaVantage(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, err = empty.CompanyOverview(context.Background(), "NOPE")
	assert.True(t, errors.Is(err, contracts.ErrDataUnavailable))
}

func TestAlphaVantage_InsiderTransactions(t *testing.T) {
	av := newTestAlphaVantage(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [
			{"transaction_date": "2024-03-05", "executive": "Future", "executive_title": "CEO", "acquisition_or_disposal": "A", "shares": "10", "share_price": "50"},
			{"transaction_date": "2024-02-01", "executive": "Old", "executive_title": "CFO", "acquisition_or_disposal": "D", "shares": "5", "share_price": "45"},
			{"transaction_date": "2024-02-20", "executive": "Recent", "executive_title": "CTO", "acquisition_or_disposal": "A", "shares": "7.5", "share_price": "48"}
		]}`))
	})

	txs, err := av.InsiderTransactions(context.Background(), "ACME", day("2024-03-01"), 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "Recent", txs[0].Executive)
	assert.Equal(t, 7.5, txs[0].Shares)
	assert.Equal(t, "D", txs[1].Type)
}

func TestAlphaVantage_EconomicIndicator(t *testing.T) {
	av := newTestAlphaVantage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "CPI", r.URL.Query().Get("function"))
		assert.Equal(t, "monthly", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(`{"name": "CPI", "data": [
			{"date": "2024-03-01", "value": "312.2"},
			{"date": "2024-02-01", "value": "311.0"},
			{"date": "2024-01-01", "value": "."},
			{"date": "2023-12-01", "value": "308.7"}
		]}`))
	})

	points, err := av.EconomicIndicator(context.Background(), contracts.IndicatorCPI, day("2024-02-15"), 2)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 311.0, points[0].Value)
	assert.Equal(t, day("2023-12-01"), points[1].Date)

	_, err = av.EconomicIndicator(context.Background(), contracts.Indicator("GOLD"), day("2024-02-15"), 2)
	assert.Error(t, err)
}
