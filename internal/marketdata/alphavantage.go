package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/metrics"
	"github.com/wonny/deepfund/pkg/httputil"
	"github.com/wonny/deepfund/pkg/logger"
)

const (
	SourceAlphaVantage = "alphavantage"

	avDateLayout = "2006-01-02"
	avNewsLayout = "20060102T150405"
	avTimeTo     = "20060102T1504"
)

// AlphaVantage implements contracts.MarketData over the Alpha Vantage query API
type AlphaVantage struct {
	http    *httputil.Client
	apiKey  string
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// NewAlphaVantage creates a new Alpha Vantage client
func NewAlphaVantage(http *httputil.Client, apiKey string, rec *metrics.Recorder, log *logger.Logger) *AlphaVantage {
	return &AlphaVantage{
		http:    http,
		apiKey:  apiKey,
		metrics: rec,
		logger:  log,
	}
}

// envelope captures the error shapes Alpha Vantage returns with HTTP 200
type envelope struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

func (e envelope) err() error {
	switch {
	case e.ErrorMessage != "":
		return fmt.Errorf("%w: %s", contracts.ErrDataUnavailable, e.ErrorMessage)
	case e.Note != "":
		return fmt.Errorf("alpha vantage throttled: %s", e.Note)
	case e.Information != "":
		return fmt.Errorf("alpha vantage refused: %s", e.Information)
	}
	return nil
}

func (a *AlphaVantage) query(ctx context.Context, function string, params map[string]string, dest interface{}) error {
	q := map[string]string{"function": function, "apikey": a.apiKey}
	for k, v := range params {
		q[k] = v
	}

	start := time.Now()
	err := a.http.GetJSON(ctx, "/query", q, dest)
	a.metrics.RecordDataFetch(SourceAlphaVantage, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("alpha vantage %s: %w", function, err)
	}
	return nil
}

type dailyResponse struct {
	envelope
	Series map[string]struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	} `json:"Time Series (Daily)"`
}

// DailyBars returns the full daily history up to and including asOf
func (a *AlphaVantage) DailyBars(ctx context.Context, ticker string, asOf time.Time) ([]contracts.Bar, error) {
	var resp dailyResponse
	err := a.query(ctx, "TIME_SERIES_DAILY", map[string]string{
		"symbol":     ticker,
		"outputsize": "full",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	bars := make([]contracts.Bar, 0, len(resp.Series))
	for day, v := range resp.Series {
		date, err := time.Parse(avDateLayout, day)
		if err != nil {
			continue
		}
		if date.After(asOf) {
			continue
		}
		bar := contracts.Bar{
			Date:   date,
			Open:   parseFloat(v.Open),
			High:   parseFloat(v.High),
			Low:    parseFloat(v.Low),
			Close:  parseFloat(v.Close),
			Volume: int64(parseFloat(v.Volume)),
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no daily bars for %s as of %s", contracts.ErrDataUnavailable, ticker, asOf.Format(avDateLayout))
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

type newsResponse struct {
	envelope
	Feed []struct {
		Title          string `json:"title"`
		URL            string `json:"url"`
		TimePublished  string `json:"time_published"`
		Summary        string `json:"summary"`
		Source         string `json:"source"`
		SentimentLabel string `json:"overall_sentiment_label"`
	} `json:"feed"`
}

// MarketNews returns the latest articles published up to the end of query.AsOf
func (a *AlphaVantage) MarketNews(ctx context.Context, query contracts.NewsQuery) ([]contracts.NewsItem, error) {
	params := map[string]string{
		"sort":    "LATEST",
		"time_to": endOfDay(query.AsOf).Format(avTimeTo),
	}
	if query.Topic != "" {
		params["topics"] = query.Topic
	}
	if query.Ticker != "" {
		params["tickers"] = query.Ticker
	}
	if query.Limit > 0 {
		params["limit"] = strconv.Itoa(query.Limit)
	}

	var resp newsResponse
	if err := a.query(ctx, "NEWS_SENTIMENT", params, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	items := make([]contracts.NewsItem, 0, len(resp.Feed))
	for _, f := range resp.Feed {
		published, _ := time.Parse(avNewsLayout, f.TimePublished)
		items = append(items, contracts.NewsItem{
			Title:       f.Title,
			Summary:     f.Summary,
			Source:      f.Source,
			URL:         f.URL,
			PublishedAt: published,
			Sentiment:   f.SentimentLabel,
		})
		if query.Limit > 0 && len(items) == query.Limit {
			break
		}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no news for topic=%q ticker=%q", contracts.ErrDataUnavailable, query.Topic, query.Ticker)
	}
	return items, nil
}

var overviewDescriptive = map[string]bool{
	"Symbol": true, "Name": true, "Description": true, "Sector": true, "Industry": true,
	"Error Message": true, "Note": true, "Information": true,
}

// CompanyOverview returns descriptive fields plus every reported metric
func (a *AlphaVantage) CompanyOverview(ctx context.Context, ticker string) (*contracts.CompanyOverview, error) {
	var raw map[string]interface{}
	if err := a.query(ctx, "OVERVIEW", map[string]string{"symbol": ticker}, &raw); err != nil {
		return nil, err
	}

	env := envelope{
		ErrorMessage: stringField(raw, "Error Message"),
		Note:         stringField(raw, "Note"),
		Information:  stringField(raw, "Information"),
	}
	if err := env.err(); err != nil {
		return nil, err
	}
	if stringField(raw, "Symbol") == "" {
		return nil, fmt.Errorf("%w: no overview for %s", contracts.ErrDataUnavailable, ticker)
	}

	overview := &contracts.CompanyOverview{
		Symbol:      stringField(raw, "Symbol"),
		Name:        stringField(raw, "Name"),
		Sector:      stringField(raw, "Sector"),
		Industry:    stringField(raw, "Industry"),
		Description: stringField(raw, "Description"),
		Metrics:     make(map[string]string),
	}
	for k := range raw {
		if overviewDescriptive[k] {
			continue
		}
		if v := stringField(raw, k); v != "" && v != "None" && v != "-" {
			overview.Metrics[k] = v
		}
	}
	return overview, nil
}

type insiderResponse struct {
	envelope
	Data []struct {
		TransactionDate string `json:"transaction_date"`
		Executive       string `json:"executive"`
		ExecutiveTitle  string `json:"executive_title"`
		Direction       string `json:"acquisition_or_disposal"`
		Shares          string `json:"shares"`
		SharePrice      string `json:"share_price"`
	} `json:"data"`
}

// InsiderTransactions returns up to limit transactions dated on or before asOf, newest first
func (a *AlphaVantage) InsiderTransactions(ctx context.Context, ticker string, asOf time.Time, limit int) ([]contracts.InsiderTransaction, error) {
	var resp insiderResponse
	if err := a.query(ctx, "INSIDER_TRANSACTIONS", map[string]string{"symbol": ticker}, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	txs := make([]contracts.InsiderTransaction, 0, len(resp.Data))
	for _, d := range resp.Data {
		date, err := time.Parse(avDateLayout, d.TransactionDate)
		if err != nil || date.After(asOf) {
			continue
		}
		txs = append(txs, contracts.InsiderTransaction{
			Date:      date,
			Executive: d.Executive,
			Title:     d.ExecutiveTitle,
			Type:      d.Direction,
			Shares:    parseFloat(d.Shares),
			Price:     parseFloat(d.SharePrice),
		})
	}

	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date) })
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("%w: no insider transactions for %s", contracts.ErrDataUnavailable, ticker)
	}
	return txs, nil
}

type indicatorResponse struct {
	envelope
	Data []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"data"`
}

// EconomicIndicator returns up to limit observations dated on or before asOf, newest first
func (a *AlphaVantage) EconomicIndicator(ctx context.Context, indicator contracts.Indicator, asOf time.Time, limit int) ([]contracts.IndicatorPoint, error) {
	params := map[string]string{}
	switch indicator {
	case contracts.IndicatorRealGDP:
		params["interval"] = "quarterly"
	case contracts.IndicatorCPI, contracts.IndicatorFederalFundsRate:
		params["interval"] = "monthly"
	case contracts.IndicatorUnemployment:
	default:
		return nil, errors.New("unknown economic indicator: " + string(indicator))
	}

	var resp indicatorResponse
	if err := a.query(ctx, string(indicator), params, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	points := make([]contracts.IndicatorPoint, 0, len(resp.Data))
	for _, d := range resp.Data {
		date, err := time.Parse(avDateLayout, d.Date)
		if err != nil || date.After(asOf) || d.Value == "." {
			continue
		}
		points = append(points, contracts.IndicatorPoint{Date: date, Value: parseFloat(d.Value)})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.After(points[j].Date) })
	if limit > 0 && len(points) > limit {
		points = points[:limit]
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no %s observations", contracts.ErrDataUnavailable, indicator)
	}
	return points, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 0, 0, t.Location())
}
