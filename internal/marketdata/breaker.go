package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/pkg/logger"
)

// Breaker guards a MarketData source with a circuit breaker. Missing
// coverage counts as success; only transport and provider failures trip it.
type Breaker struct {
	next contracts.MarketData
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next; the breaker opens after failures consecutive errors
func NewBreaker(next contracts.MarketData, name string, failures int, openFor time.Duration, log *logger.Logger) *Breaker {
	if failures <= 0 {
		failures = 5
	}
	st := gobreaker.Settings{
		Name:    name,
		Timeout: openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(failures)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, contracts.ErrDataUnavailable) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Market data circuit breaker state changed")
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

// State reports the breaker state
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

func (b *Breaker) DailyBars(ctx context.Context, ticker string, asOf time.Time) ([]contracts.Bar, error) {
	return execute(b, func() ([]contracts.Bar, error) { return b.next.DailyBars(ctx, ticker, asOf) })
}

func (b *Breaker) MarketNews(ctx context.Context, query contracts.NewsQuery) ([]contracts.NewsItem, error) {
	return execute(b, func() ([]contracts.NewsItem, error) { return b.next.MarketNews(ctx, query) })
}

func (b *Breaker) CompanyOverview(ctx context.Context, ticker string) (*contracts.CompanyOverview, error) {
	return execute(b, func() (*contracts.CompanyOverview, error) { return b.next.CompanyOverview(ctx, ticker) })
}

func (b *Breaker) InsiderTransactions(ctx context.Context, ticker string, asOf time.Time, limit int) ([]contracts.InsiderTransaction, error) {
	return execute(b, func() ([]contracts.InsiderTransaction, error) {
		return b.next.InsiderTransactions(ctx, ticker, asOf, limit)
	})
}

func (b *Breaker) EconomicIndicator(ctx context.Context, indicator contracts.Indicator, asOf time.Time, limit int) ([]contracts.IndicatorPoint, error) {
	return execute(b, func() ([]contracts.IndicatorPoint, error) {
		return b.next.EconomicIndicator(ctx, indicator, asOf, limit)
	})
}
