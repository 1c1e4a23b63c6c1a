package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/metrics"
	"github.com/wonny/deepfund/pkg/logger"
)

const (
	SourceYahoo = "yahoo"

	// yahooLookback covers the longest indicator window with weekends and holidays
	yahooLookback = 400 * 24 * time.Hour
)

// Yahoo serves daily bars from Yahoo Finance charts and delegates every
// other query to a fallback source.
type Yahoo struct {
	contracts.MarketData
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// NewYahoo creates a Yahoo bar source on top of fallback
func NewYahoo(fallback contracts.MarketData, rec *metrics.Recorder, log *logger.Logger) *Yahoo {
	return &Yahoo{MarketData: fallback, metrics: rec, logger: log}
}

// DailyBars fetches a daily chart ending at asOf
func (y *Yahoo) DailyBars(ctx context.Context, ticker string, asOf time.Time) ([]contracts.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := asOf.Add(-yahooLookback)
	end := asOf.AddDate(0, 0, 1)

	began := time.Now()
	iter := chart.Get(&chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var bars []contracts.Bar
	for iter.Next() {
		bar := iter.Bar()
		bars = append(bars, contracts.Bar{
			Date:   time.Unix(int64(bar.Timestamp), 0).UTC(),
			Open:   bar.Open.InexactFloat64(),
			High:   bar.High.InexactFloat64(),
			Low:    bar.Low.InexactFloat64(),
			Close:  bar.Close.InexactFloat64(),
			Volume: int64(bar.Volume),
		})
	}
	err := iter.Err()
	y.metrics.RecordDataFetch(SourceYahoo, time.Since(began), err)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}

	bars = trimToAsOf(bars, asOf)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no yahoo bars for %s as of %s", contracts.ErrDataUnavailable, ticker, asOf.Format(contracts.DateLayout))
	}
	return bars, nil
}

// trimToAsOf drops bars dated after asOf's calendar day
func trimToAsOf(bars []contracts.Bar, asOf time.Time) []contracts.Bar {
	cutoff := asOf.Format(contracts.DateLayout)
	out := bars[:0]
	for _, b := range bars {
		if b.Date.Format(contracts.DateLayout) <= cutoff {
			out = append(out, b)
		}
	}
	return out
}
