package contracts

import (
	"context"
	"time"
)

// Bar is one daily OHLCV record
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// NewsItem is a single article returned by news retrieval
type NewsItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   string    `json:"sentiment,omitempty"`
}

// NewsQuery selects news by topic and/or ticker published on or before AsOf
type NewsQuery struct {
	Topic  string
	Ticker string
	AsOf   time.Time
	Limit  int
}

// CompanyOverview holds descriptive and fundamental fields of a listed company
type CompanyOverview struct {
	Symbol      string            `json:"symbol"`
	Name        string            `json:"name"`
	Sector      string            `json:"sector"`
	Industry    string            `json:"industry"`
	Description string            `json:"description"`
	Metrics     map[string]string `json:"metrics"`
}

// InsiderTransaction is one reported insider trade
type InsiderTransaction struct {
	Date      time.Time `json:"date"`
	Executive string    `json:"executive"`
	Title     string    `json:"title"`
	Type      string    `json:"type"` // A (acquisition) or D (disposal)
	Shares    float64   `json:"shares"`
	Price     float64   `json:"price"`
}

// Indicator names a macroeconomic series
type Indicator string

const (
	IndicatorRealGDP          Indicator = "REAL_GDP"
	IndicatorCPI              Indicator = "CPI"
	IndicatorFederalFundsRate Indicator = "FEDERAL_FUNDS_RATE"
	IndicatorUnemployment     Indicator = "UNEMPLOYMENT"
)

// IndicatorPoint is one observation of a macroeconomic series
type IndicatorPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// MarketData retrieves price, news and fundamental data as of a trading date.
// Implementations fail with ErrDataUnavailable when there is no coverage.
type MarketData interface {
	// DailyBars returns bars ascending by date, ending on or before asOf
	DailyBars(ctx context.Context, ticker string, asOf time.Time) ([]Bar, error)
	MarketNews(ctx context.Context, query NewsQuery) ([]NewsItem, error)
	CompanyOverview(ctx context.Context, ticker string) (*CompanyOverview, error)
	InsiderTransactions(ctx context.Context, ticker string, asOf time.Time, limit int) ([]InsiderTransaction, error)
	EconomicIndicator(ctx context.Context, indicator Indicator, asOf time.Time, limit int) ([]IndicatorPoint, error)
}
