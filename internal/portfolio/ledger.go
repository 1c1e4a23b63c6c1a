package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/pkg/logger"
)

// Apply returns the portfolio after executing d for ticker. p is never
// modified. Short positions are not guarded against.
func Apply(p contracts.Portfolio, ticker string, d contracts.Decision) contracts.Portfolio {
	next := p.Clone()
	pos := next.Position(ticker)
	notional := d.Price.Mul(decimal.NewFromInt(d.Shares))

	switch d.Action {
	case contracts.ActionBuy:
		pos.Shares += d.Shares
		next.Cashflow = next.Cashflow.Sub(notional)
	case contracts.ActionSell:
		pos.Shares -= d.Shares
		next.Cashflow = next.Cashflow.Add(notional)
	}

	// value follows the latest decision price, never the previous valuation
	pos.Value = d.Price.Mul(decimal.NewFromInt(pos.Shares)).Round(2)
	next.Positions[ticker] = pos
	next.Cashflow = next.Cashflow.Round(2)
	next.RecomputeTotal()

	return next
}

// Ledger applies decisions and commits the resulting snapshot
type Ledger struct {
	store  contracts.PortfolioStore
	logger *logger.Logger
}

// NewLedger creates a new ledger
func NewLedger(store contracts.PortfolioStore, log *logger.Logger) *Ledger {
	return &Ledger{store: store, logger: log}
}

// Apply executes d and logs the updated position
func (l *Ledger) Apply(p contracts.Portfolio, ticker string, d contracts.Decision) contracts.Portfolio {
	next := Apply(p, ticker, d)
	pos := next.Positions[ticker]

	l.logger.WithFields(map[string]interface{}{
		"portfolio_id": next.ID,
		"ticker":       ticker,
		"action":       string(d.Action),
		"shares":       pos.Shares,
		"value":        pos.Value.StringFixed(2),
		"cashflow":     next.Cashflow.StringFixed(2),
		"total_assets": next.TotalAssets.StringFixed(2),
	}).Info("Position updated")

	return next
}

// Commit persists p as the snapshot for tradingDate
func (l *Ledger) Commit(ctx context.Context, configID string, p contracts.Portfolio, tradingDate time.Time) (contracts.Portfolio, error) {
	final := p.Clone()
	final.RecomputeTotal()

	if err := l.store.UpdatePortfolio(ctx, configID, final, tradingDate); err != nil {
		return contracts.Portfolio{}, fmt.Errorf("failed to commit portfolio %s: %w", final.ID, err)
	}

	l.logger.WithFields(map[string]interface{}{
		"portfolio_id": final.ID,
		"trading_date": tradingDate.Format(contracts.DateLayout),
		"cashflow":     final.Cashflow.StringFixed(2),
		"total_assets": final.TotalAssets.StringFixed(2),
	}).Info("Portfolio committed")

	return final, nil
}
