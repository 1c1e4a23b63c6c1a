package portfolio

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/pkg/logger"
)

type fakeData struct {
	contracts.MarketData
	bars []contracts.Bar
	err  error
}

func (f *fakeData) DailyBars(context.Context, string, time.Time) ([]contracts.Bar, error) {
	return f.bars, f.err
}

type fakeDecider struct {
	verdict contracts.TradeVerdict
	err     error
	prompt  string
}

func (f *fakeDecider) Decide(_ context.Context, prompt string, _ contracts.ModelConfig) (contracts.TradeVerdict, error) {
	f.prompt = prompt
	return f.verdict, f.err
}

type fakeMemory struct {
	contracts.RecordStore
	records []contracts.DecisionRecord
	err     error
	limit   int
}

func (f *fakeMemory) GetDecisionMemory(_ context.Context, _, _ string, limit int) ([]contracts.DecisionRecord, error) {
	f.limit = limit
	return f.records, f.err
}

var tradingDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func closeAt(price float64) []contracts.Bar {
	return []contracts.Bar{
		{Date: tradingDate.AddDate(0, 0, -1), Close: price - 1},
		{Date: tradingDate, Close: price},
	}
}

func input(p contracts.Portfolio, numTickers int) DecisionInput {
	return DecisionInput{
		ConfigID:    "cfg",
		Ticker:      "ACME",
		TradingDate: tradingDate,
		Portfolio:   p,
		NumTickers:  numTickers,
		Signals: []contracts.AnalystSignal{
			{Analyst: "technical", Ticker: "ACME", Signal: contracts.SignalBullish, Justification: "uptrend"},
		},
	}
}

func TestComputeLimits(t *testing.T) {
	p := contracts.NewPortfolio("p1", dec("100000"))

	limits := ComputeLimits(p, "ACME", dec("50"), 2)
	assert.True(t, dec("50000").Equal(limits.Allocation))
	assert.Equal(t, int64(1000), limits.MaxBuy)
	assert.Equal(t, int64(0), limits.MaxSell)

	p = Apply(p, "ACME", buy(10, "50"))
	limits = ComputeLimits(p, "ACME", dec("50"), 2)
	assert.Equal(t, int64(990), limits.MaxBuy)
	assert.Equal(t, int64(10), limits.MaxSell)
}

func TestComputeLimits_CashBound(t *testing.T) {
	p := contracts.NewPortfolio("p1", dec("100"))
	p.Positions["OTHER"] = contracts.Position{Shares: 1, Value: dec("900")}
	p.RecomputeTotal()

	limits := ComputeLimits(p, "ACME", dec("30"), 1)
	assert.Equal(t, int64(3), limits.MaxBuy)
}

func TestLimits_Clamp(t *testing.T) {
	limits := Limits{MaxBuy: 5, MaxSell: 2}

	tests := []struct {
		name       string
		verdict    contracts.TradeVerdict
		wantAction contracts.Action
		wantShares int64
	}{
		{"buy within", contracts.TradeVerdict{Action: contracts.ActionBuy, Shares: 3}, contracts.ActionBuy, 3},
		{"buy over", contracts.TradeVerdict{Action: contracts.ActionBuy, Shares: 30}, contracts.ActionBuy, 5},
		{"buy saturated", contracts.TradeVerdict{Action: contracts.ActionBuy, Shares: math.MaxInt64}, contracts.ActionBuy, 5},
		{"sell over", contracts.TradeVerdict{Action: contracts.ActionSell, Shares: 9}, contracts.ActionSell, 2},
		{"hold with shares", contracts.TradeVerdict{Action: contracts.ActionHold, Shares: 4}, contracts.ActionHold, 0},
		{"buy zero", contracts.TradeVerdict{Action: contracts.ActionBuy, Shares: 0}, contracts.ActionHold, 0},
		{"negative", contracts.TradeVerdict{Action: contracts.ActionSell, Shares: -1}, contracts.ActionHold, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, shares := limits.Clamp(tt.verdict)
			assert.Equal(t, tt.wantAction, action)
			assert.Equal(t, tt.wantShares, shares)
		})
	}

	action, shares := Limits{}.Clamp(contracts.TradeVerdict{Action: contracts.ActionSell, Shares: 1})
	assert.Equal(t, contracts.ActionHold, action)
	assert.Zero(t, shares)
}

func TestManager_Decide(t *testing.T) {
	decider := &fakeDecider{verdict: contracts.TradeVerdict{
		Action: contracts.ActionBuy, Shares: 10, Justification: "bullish consensus",
	}}
	memory := &fakeMemory{records: []contracts.DecisionRecord{{
		TradingDate: tradingDate.AddDate(0, 0, -1),
		Decision:    contracts.Decision{Action: contracts.ActionHold, Price: dec("48"), Justification: "wait"},
	}}}
	m := NewManager(&fakeData{bars: closeAt(50)}, decider, memory, logger.Nop())

	d, prompt, err := m.Decide(context.Background(), input(contracts.NewPortfolio("p1", dec("100000")), 1))

	require.NoError(t, err)
	assert.Equal(t, "ACME", d.Ticker)
	assert.Equal(t, contracts.ActionBuy, d.Action)
	assert.Equal(t, int64(10), d.Shares)
	assert.True(t, dec("50").Equal(d.Price))
	assert.Equal(t, "bullish consensus", d.Justification)
	assert.Equal(t, decider.prompt, prompt)
	assert.Equal(t, DefaultMemoryLimit, memory.limit)
	assert.Contains(t, prompt, "technical: Bullish")
	assert.Contains(t, prompt, "Max shares to buy: 2000")
	assert.Contains(t, prompt, "2024-02-29: Hold")
}

func TestManager_Decide_ClampsToLimits(t *testing.T) {
	decider := &fakeDecider{verdict: contracts.TradeVerdict{Action: contracts.ActionSell, Shares: 10}}
	m := NewManager(&fakeData{bars: closeAt(50)}, decider, nil, logger.Nop())

	d, _, err := m.Decide(context.Background(), input(contracts.NewPortfolio("p1", dec("1000")), 1))

	require.NoError(t, err)
	assert.Equal(t, contracts.ActionHold, d.Action)
	assert.Zero(t, d.Shares)
}

func TestManager_Decide_MemoryFailureIsTolerated(t *testing.T) {
	decider := &fakeDecider{verdict: contracts.TradeVerdict{Action: contracts.ActionHold}}
	memory := &fakeMemory{err: errors.New("timeout")}
	m := NewManager(&fakeData{bars: closeAt(20)}, decider, memory, logger.Nop())

	d, _, err := m.Decide(context.Background(), input(contracts.NewPortfolio("p1", dec("1000")), 1))

	require.NoError(t, err)
	assert.Equal(t, contracts.ActionHold, d.Action)
}

func TestManager_Decide_PriceErrors(t *testing.T) {
	tests := []struct {
		name string
		data *fakeData
	}{
		{"fetch error", &fakeData{err: contracts.ErrDataUnavailable}},
		{"empty series", &fakeData{}},
		{"zero close", &fakeData{bars: []contracts.Bar{{Date: tradingDate, Close: 0}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decider := &fakeDecider{}
			m := NewManager(tt.data, decider, nil, logger.Nop())

			_, _, err := m.Decide(context.Background(), input(contracts.NewPortfolio("p1", dec("1000")), 1))

			require.ErrorIs(t, err, ErrNoPrice)
			assert.Empty(t, decider.prompt)
		})
	}
}

func TestManager_Decide_InferenceError(t *testing.T) {
	decider := &fakeDecider{err: errors.New("model unavailable")}
	m := NewManager(&fakeData{bars: closeAt(20)}, decider, nil, logger.Nop())

	_, prompt, err := m.Decide(context.Background(), input(contracts.NewPortfolio("p1", dec("1000")), 1))

	require.Error(t, err)
	assert.NotEmpty(t, prompt)
}
