package contracts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Action is the trade resolved by the decision node
type Action string

const (
	ActionBuy  Action = "Buy"
	ActionSell Action = "Sell"
	ActionHold Action = "Hold"
)

// ParseAction accepts any casing of Buy, Sell or Hold
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return ActionBuy, nil
	case "sell":
		return ActionSell, nil
	case "hold":
		return ActionHold, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// Decision is the single trade produced for a ticker in one run
type Decision struct {
	Ticker        string          `json:"ticker"`
	Action        Action          `json:"action"`
	Shares        int64           `json:"shares"` // never negative
	Price         decimal.Decimal `json:"price"`
	Justification string          `json:"justification"`
}

// Position is the holding of one ticker.
// Value is derived: price × shares at the owning decision, rounded to cents.
type Position struct {
	Shares int64           `json:"shares"`
	Value  decimal.Decimal `json:"value"`
}

// Portfolio is a point-in-time snapshot of cash and positions
// ⭐ SSOT: TotalAssets == Cashflow + Σ Positions[*].Value at every observable boundary
type Portfolio struct {
	ID          string              `json:"id"`
	Cashflow    decimal.Decimal     `json:"cashflow"`
	Positions   map[string]Position `json:"positions"`
	TotalAssets decimal.Decimal     `json:"total_assets"`
}

// NewPortfolio returns an all-cash portfolio
func NewPortfolio(id string, cashflow decimal.Decimal) Portfolio {
	p := Portfolio{
		ID:        id,
		Cashflow:  cashflow.Round(2),
		Positions: make(map[string]Position),
	}
	p.RecomputeTotal()
	return p
}

// Clone returns a deep copy that shares no mutable state with p
func (p Portfolio) Clone() Portfolio {
	positions := make(map[string]Position, len(p.Positions))
	for ticker, pos := range p.Positions {
		positions[ticker] = pos
	}
	p.Positions = positions
	return p
}

// RecomputeTotal sets TotalAssets from cash and position values
func (p *Portfolio) RecomputeTotal() {
	total := p.Cashflow
	for _, pos := range p.Positions {
		total = total.Add(pos.Value)
	}
	p.TotalAssets = total.Round(2)
}

// Position returns the holding for ticker, or a zero position
func (p Portfolio) Position(ticker string) Position {
	if pos, ok := p.Positions[ticker]; ok {
		return pos
	}
	return Position{Shares: 0, Value: decimal.Zero}
}

// Tickers returns the held tickers in sorted order
func (p Portfolio) Tickers() []string {
	tickers := make([]string, 0, len(p.Positions))
	for ticker := range p.Positions {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}
