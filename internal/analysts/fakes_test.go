package analysts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wonny/deepfund/internal/contracts"
)

type fakeData struct {
	bars     []contracts.Bar
	barsErr  error
	news     map[string][]contracts.NewsItem
	newsErr  error
	overview *contracts.CompanyOverview
	insider  []contracts.InsiderTransaction
	macro    map[contracts.Indicator][]contracts.IndicatorPoint
}

func (f *fakeData) DailyBars(ctx context.Context, ticker string, asOf time.Time) ([]contracts.Bar, error) {
	return f.bars, f.barsErr
}

func (f *fakeData) MarketNews(ctx context.Context, q contracts.NewsQuery) ([]contracts.NewsItem, error) {
	if f.newsErr != nil {
		return nil, f.newsErr
	}
	key := q.Topic
	if key == "" {
		key = q.Ticker
	}
	items, ok := f.news[key]
	if !ok {
		return nil, contracts.ErrDataUnavailable
	}
	return items, nil
}

func (f *fakeData) CompanyOverview(ctx context.Context, ticker string) (*contracts.CompanyOverview, error) {
	if f.overview == nil {
		return nil, contracts.ErrDataUnavailable
	}
	return f.overview, nil
}

func (f *fakeData) InsiderTransactions(ctx context.Context, ticker string, asOf time.Time, limit int) ([]contracts.InsiderTransaction, error) {
	if len(f.insider) == 0 {
		return nil, contracts.ErrDataUnavailable
	}
	return f.insider, nil
}

func (f *fakeData) EconomicIndicator(ctx context.Context, ind contracts.Indicator, asOf time.Time, limit int) ([]contracts.IndicatorPoint, error) {
	points, ok := f.macro[ind]
	if !ok {
		return nil, contracts.ErrDataUnavailable
	}
	return points, nil
}

type fakeSynth struct {
	mu      sync.Mutex
	verdict contracts.SignalVerdict
	err     error
	prompts []string
}

func (f *fakeSynth) Signal(ctx context.Context, prompt string, model contracts.ModelConfig) (contracts.SignalVerdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return contracts.SignalVerdict{}, f.err
	}
	return f.verdict, nil
}

func (f *fakeSynth) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

var errTransport = errors.New("connection refused")

func risingBars(n int) []contracts.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.Bar, n)
	for i := range bars {
		c := 50 + float64(i)
		bars[i] = contracts.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func testInput() Input {
	return Input{
		Ticker:      "ACME",
		TradingDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Model:       contracts.ModelConfig{Provider: "openai", Model: "gpt-4o"},
	}
}
