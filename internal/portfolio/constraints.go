package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/deepfund/internal/contracts"
)

// Limits bounds the share count of a decision
// ⭐ SSOT: trade size limits are computed only here
type Limits struct {
	Price      decimal.Decimal
	Allocation decimal.Decimal // per-ticker budget: total assets / number of tickers
	MaxBuy     int64
	MaxSell    int64
}

// ComputeLimits derives buy and sell limits for ticker at price.
// Buying is bounded by cash and by the ticker's remaining allocation;
// selling is bounded by the shares held.
func ComputeLimits(p contracts.Portfolio, ticker string, price decimal.Decimal, numTickers int) Limits {
	if numTickers < 1 {
		numTickers = 1
	}
	pos := p.Position(ticker)

	total := p.Cashflow
	for _, other := range p.Positions {
		total = total.Add(other.Value)
	}
	allocation := total.Div(decimal.NewFromInt(int64(numTickers))).Round(2)

	budget := decimal.Min(p.Cashflow, allocation.Sub(decimal.Max(pos.Value, decimal.Zero)))
	if budget.IsNegative() {
		budget = decimal.Zero
	}

	limits := Limits{Price: price, Allocation: allocation}
	if price.IsPositive() {
		limits.MaxBuy = budget.Div(price).Floor().IntPart()
	}
	if pos.Shares > 0 {
		limits.MaxSell = pos.Shares
	}
	return limits
}

// Clamp fits a verdict into the limits. A trade clamped to zero shares
// becomes Hold, and Hold always carries zero shares.
func (l Limits) Clamp(v contracts.TradeVerdict) (contracts.Action, int64) {
	shares := v.Shares
	if shares < 0 {
		shares = 0
	}

	switch v.Action {
	case contracts.ActionBuy:
		if shares > l.MaxBuy {
			shares = l.MaxBuy
		}
	case contracts.ActionSell:
		if shares > l.MaxSell {
			shares = l.MaxSell
		}
	default:
		return contracts.ActionHold, 0
	}

	if shares == 0 {
		return contracts.ActionHold, 0
	}
	return v.Action, shares
}
