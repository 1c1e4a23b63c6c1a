package marketdata

import (
	"context"
	"time"

	"github.com/wonny/deepfund/internal/contracts"
)

type fakeSource struct {
	err   error
	calls int
	bars  []contracts.Bar
}

func (f *fakeSource) DailyBars(ctx context.Context, ticker string, asOf time.Time) ([]contracts.Bar, error) {
	f.calls++
	return f.bars, f.err
}

func (f *fakeSource) MarketNews(ctx context.Context, query contracts.NewsQuery) ([]contracts.NewsItem, error) {
	f.calls++
	return []contracts.NewsItem{{Title: "t"}}, f.err
}

func (f *fakeSource) CompanyOverview(ctx context.Context, ticker string) (*contracts.CompanyOverview, error) {
	f.calls++
	return &contracts.CompanyOverview{Symbol: ticker}, f.err
}

func (f *fakeSource) InsiderTransactions(ctx context.Context, ticker string, asOf time.Time, limit int) ([]contracts.InsiderTransaction, error) {
	f.calls++
	return nil, f.err
}

func (f *fakeSource) EconomicIndicator(ctx context.Context, indicator contracts.Indicator, asOf time.Time, limit int) ([]contracts.IndicatorPoint, error) {
	f.calls++
	return nil, f.err
}
