// Package history summarizes what an experiment's analysts and decision
// node said about one ticker over a date range.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/pkg/logger"
)

// ErrExperimentNotFound is returned for an unknown experiment name
var ErrExperimentNotFound = errors.New("experiment not found")

const (
	SentimentBullish         = "Bullish"
	SentimentBearish         = "Bearish"
	SentimentNeutral         = "Neutral"
	SentimentStronglyBullish = "Strongly Bullish"
	SentimentStronglyBearish = "Strongly Bearish"
)

// Query selects the experiment, ticker and inclusive date range
type Query struct {
	ExpName string
	Ticker  string
	Start   time.Time
	End     time.Time
}

type SignalEntry struct {
	Analyst string `json:"analyst"`
	Signal  string `json:"signal"`
	Reason  string `json:"reason"`
}

type DecisionEntry struct {
	Action string `json:"action"`
	Shares int64  `json:"shares"`
	Price  string `json:"price"`
	Reason string `json:"reason"`
}

type PriceInfo struct {
	Open   float64 `json:"open_price"`
	High   float64 `json:"high_price"`
	Low    float64 `json:"low_price"`
	Close  float64 `json:"close_price"`
	Volume int64   `json:"volume"`
}

// Day is the breakdown for one trading date
type Day struct {
	Date      string         `json:"date"`
	Signals   []SignalEntry  `json:"analyst_signals"`
	Decision  *DecisionEntry `json:"manager_decision"`
	Price     *PriceInfo     `json:"price_info"`
	Sentiment string         `json:"overall_sentiment_of_day"`
}

type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Statistics struct {
	TotalDays     int `json:"total_days_analyzed"`
	BullishDays   int `json:"bullish_sentiment_days"`
	BearishDays   int `json:"bearish_sentiment_days_approx"`
	NeutralDays   int `json:"neutral_sentiment_days_approx"`
	BuyDecisions  int `json:"buy_decisions"`
	SellDecisions int `json:"sell_decisions"`
}

// Summary is the response of Service.Summary
type Summary struct {
	Ticker     string     `json:"ticker"`
	ExpName    string     `json:"experiment_name"`
	Period     Period     `json:"analysis_period"`
	Overview   string     `json:"overall_trend_summary"`
	Days       []Day      `json:"daily_breakdown"`
	Statistics Statistics `json:"statistics"`
}

// Service reads persisted signals and decisions
type Service struct {
	store  contracts.Store
	prices contracts.MarketData // optional
	logger *logger.Logger
}

// NewService creates a new history service. prices may be nil.
func NewService(store contracts.Store, prices contracts.MarketData, log *logger.Logger) *Service {
	return &Service{store: store, prices: prices, logger: log}
}

// Summary builds the daily breakdown for q
func (s *Service) Summary(ctx context.Context, q Query) (*Summary, error) {
	configID, err := s.store.GetConfigIDByName(ctx, q.ExpName)
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrExperimentNotFound, q.ExpName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up experiment: %w", err)
	}

	signals, err := s.store.GetSignalsForPeriod(ctx, configID, q.Ticker, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load signals: %w", err)
	}
	decisions, err := s.store.GetDecisionsForPeriod(ctx, configID, q.Ticker, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load decisions: %w", err)
	}
	prices := s.loadPrices(ctx, q)

	days := make(map[string]*Day)
	day := func(key string) *Day {
		d, ok := days[key]
		if !ok {
			d = &Day{Date: key, Signals: []SignalEntry{}, Sentiment: SentimentNeutral}
			days[key] = d
		}
		return d
	}

	for _, rec := range signals {
		d := day(rec.TradingDate.Format(contracts.DateLayout))
		d.Signals = append(d.Signals, SignalEntry{
			Analyst: rec.Signal.Analyst,
			Signal:  string(rec.Signal.Signal),
			Reason:  rec.Signal.Justification,
		})
	}
	for _, rec := range decisions {
		d := day(rec.TradingDate.Format(contracts.DateLayout))
		if d.Decision != nil {
			continue
		}
		d.Decision = &DecisionEntry{
			Action: string(rec.Decision.Action),
			Shares: rec.Decision.Shares,
			Price:  rec.Decision.Price.StringFixed(2),
			Reason: rec.Decision.Justification,
		}
	}
	// Market days without a run still appear, with price only
	for key, p := range prices {
		day(key).Price = &p
	}

	summary := &Summary{
		Ticker:  q.Ticker,
		ExpName: q.ExpName,
		Period: Period{
			Start: q.Start.Format(contracts.DateLayout),
			End:   q.End.Format(contracts.DateLayout),
		},
		Days: []Day{},
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		d := days[k]
		s.classify(d, &summary.Statistics)
		summary.Days = append(summary.Days, *d)
	}
	summary.Statistics.TotalDays = len(summary.Days)
	summary.Overview = overview(summary)

	return summary, nil
}

// classify sets the day's sentiment: signal majority, overridden by a trade
func (s *Service) classify(d *Day, stats *Statistics) {
	var bullish, bearish int
	for _, sig := range d.Signals {
		switch sig.Signal {
		case string(contracts.SignalBullish):
			bullish++
		case string(contracts.SignalBearish):
			bearish++
		}
	}

	switch {
	case bullish > bearish:
		d.Sentiment = SentimentBullish
		stats.BullishDays++
	case bearish > bullish:
		d.Sentiment = SentimentBearish
		stats.BearishDays++
	case len(d.Signals) > 0:
		d.Sentiment = SentimentNeutral
		stats.NeutralDays++
	}

	if d.Decision == nil {
		return
	}
	switch contracts.Action(d.Decision.Action) {
	case contracts.ActionBuy:
		d.Sentiment = SentimentStronglyBullish
		stats.BuyDecisions++
	case contracts.ActionSell:
		d.Sentiment = SentimentStronglyBearish
		stats.SellDecisions++
	}
}

// loadPrices is best effort; a summary without prices is still useful
func (s *Service) loadPrices(ctx context.Context, q Query) map[string]PriceInfo {
	out := make(map[string]PriceInfo)
	if s.prices == nil {
		return out
	}

	bars, err := s.prices.DailyBars(ctx, q.Ticker, q.End)
	if err != nil {
		s.logger.WithError(err).WithField("ticker", q.Ticker).Warn("Price history unavailable for summary")
		return out
	}
	for _, b := range bars {
		if b.Date.Before(q.Start) || b.Date.After(q.End) {
			continue
		}
		out[b.Date.Format(contracts.DateLayout)] = PriceInfo{
			Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		}
	}
	return out
}

func overview(s *Summary) string {
	if len(s.Days) == 0 {
		return fmt.Sprintf("No analysis data found for %s in the period %s to %s for experiment '%s'.",
			s.Ticker, s.Period.Start, s.Period.End, s.ExpName)
	}
	return fmt.Sprintf(
		"Trend analysis for %s from %s to %s for experiment '%s'. "+
			"Observed %d bullish-leaning days, %d bearish-leaning days, "+
			"and %d neutral/mixed days based on analyst signals and manager decisions.",
		s.Ticker, s.Period.Start, s.Period.End, s.ExpName,
		s.Statistics.BullishDays, s.Statistics.BearishDays, s.Statistics.NeutralDays,
	)
}
