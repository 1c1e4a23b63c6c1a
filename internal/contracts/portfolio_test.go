package contracts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPortfolio(t *testing.T) {
	p := NewPortfolio("p1", decimal.NewFromInt(100000))

	assert.Equal(t, "p1", p.ID)
	assert.True(t, p.Cashflow.Equal(decimal.NewFromInt(100000)))
	assert.True(t, p.TotalAssets.Equal(decimal.NewFromInt(100000)))
	assert.Empty(t, p.Positions)
}

func TestPortfolio_CloneIsIndependent(t *testing.T) {
	p := NewPortfolio("p1", decimal.NewFromInt(1000))
	p.Positions["ACME"] = Position{Shares: 5, Value: decimal.NewFromInt(250)}

	c := p.Clone()
	c.Positions["ACME"] = Position{Shares: 1, Value: decimal.NewFromInt(50)}
	c.Positions["BETA"] = Position{Shares: 2, Value: decimal.NewFromInt(20)}

	assert.Equal(t, int64(5), p.Positions["ACME"].Shares)
	_, ok := p.Positions["BETA"]
	assert.False(t, ok)
}

func TestPortfolio_RecomputeTotal(t *testing.T) {
	p := Portfolio{
		Cashflow: decimal.RequireFromString("99740.00"),
		Positions: map[string]Position{
			"ACME": {Shares: 6, Value: decimal.RequireFromString("360.00")},
			"BETA": {Shares: -2, Value: decimal.RequireFromString("-20.50")},
		},
	}
	p.RecomputeTotal()

	assert.Equal(t, "100079.5", p.TotalAssets.String())
}

func TestPortfolio_PositionAndTickers(t *testing.T) {
	p := NewPortfolio("p1", decimal.NewFromInt(10))
	p.Positions["ZED"] = Position{Shares: 1, Value: decimal.NewFromInt(1)}
	p.Positions["ACME"] = Position{Shares: 2, Value: decimal.NewFromInt(2)}

	assert.Equal(t, int64(2), p.Position("ACME").Shares)
	assert.True(t, p.Position("NONE").Value.IsZero())
	assert.Equal(t, []string{"ACME", "ZED"}, p.Tickers())
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{"Buy", ActionBuy, false},
		{"SELL", ActionSell, false},
		{" hold ", ActionHold, false},
		{"short", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSignal(t *testing.T) {
	got, err := ParseSignal("bullish")
	require.NoError(t, err)
	assert.Equal(t, SignalBullish, got)

	got, err = ParseSignal("BEARISH")
	require.NoError(t, err)
	assert.Equal(t, SignalBearish, got)

	_, err = ParseSignal("sideways")
	assert.Error(t, err)
}
