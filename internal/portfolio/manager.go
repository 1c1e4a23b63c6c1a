package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/pkg/logger"
)

// DefaultMemoryLimit is how many past snapshots feed the decision memory
const DefaultMemoryLimit = 5

// ErrNoPrice is returned when no usable closing price exists for the ticker
var ErrNoPrice = errors.New("no price for decision")

// Decider runs the decision inference call
type Decider interface {
	Decide(ctx context.Context, prompt string, model contracts.ModelConfig) (contracts.TradeVerdict, error)
}

// DecisionInput is everything the decision node sees for one ticker
type DecisionInput struct {
	ConfigID    string
	Ticker      string
	TradingDate time.Time
	Portfolio   contracts.Portfolio
	Model       contracts.ModelConfig
	NumTickers  int
	Signals     []contracts.AnalystSignal
}

// Manager is the decision node: it turns analyst signals into one Decision
type Manager struct {
	data        contracts.MarketData
	decider     Decider
	memory      contracts.RecordStore
	memoryLimit int
	logger      *logger.Logger
}

// NewManager creates a new portfolio manager
func NewManager(data contracts.MarketData, decider Decider, memory contracts.RecordStore, log *logger.Logger) *Manager {
	return &Manager{
		data:        data,
		decider:     decider,
		memory:      memory,
		memoryLimit: DefaultMemoryLimit,
		logger:      log,
	}
}

// Decide prices the ticker at its latest close, asks the model for a trade
// and clamps it to the portfolio's limits. It returns the prompt used.
func (m *Manager) Decide(ctx context.Context, in DecisionInput) (contracts.Decision, string, error) {
	price, err := m.latestClose(ctx, in.Ticker, in.TradingDate)
	if err != nil {
		return contracts.Decision{}, "", err
	}

	limits := ComputeLimits(in.Portfolio, in.Ticker, price, in.NumTickers)
	memory := m.recall(ctx, in.ConfigID, in.Ticker)
	prompt := decisionPrompt(in, limits, memory)

	verdict, err := m.decider.Decide(ctx, prompt, in.Model)
	if err != nil {
		return contracts.Decision{}, prompt, fmt.Errorf("decision call for %s failed: %w", in.Ticker, err)
	}

	action, shares := limits.Clamp(verdict)
	if action != verdict.Action || shares != verdict.Shares {
		m.logger.WithFields(map[string]interface{}{
			"ticker":          in.Ticker,
			"proposed_action": string(verdict.Action),
			"proposed_shares": verdict.Shares,
			"action":          string(action),
			"shares":          shares,
			"max_buy":         limits.MaxBuy,
			"max_sell":        limits.MaxSell,
		}).Warn("Decision clamped to limits")
	}

	return contracts.Decision{
		Ticker:        in.Ticker,
		Action:        action,
		Shares:        shares,
		Price:         price,
		Justification: verdict.Justification,
	}, prompt, nil
}

func (m *Manager) latestClose(ctx context.Context, ticker string, date time.Time) (decimal.Decimal, error) {
	bars, err := m.data.DailyBars(ctx, ticker, date)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrNoPrice, ticker, err)
	}
	if len(bars) == 0 {
		return decimal.Zero, fmt.Errorf("%w: %s: empty series", ErrNoPrice, ticker)
	}
	price := decimal.NewFromFloat(bars[len(bars)-1].Close).Round(2)
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s: non-positive close %s", ErrNoPrice, ticker, price)
	}
	return price, nil
}

// recall loads recent decisions; failures only cost context
func (m *Manager) recall(ctx context.Context, configID, ticker string) []contracts.DecisionRecord {
	if m.memory == nil || configID == "" {
		return nil
	}
	records, err := m.memory.GetDecisionMemory(ctx, configID, ticker, m.memoryLimit)
	if err != nil {
		m.logger.WithError(err).WithField("ticker", ticker).Warn("Failed to load decision memory")
		return nil
	}
	return records
}

func decisionPrompt(in DecisionInput, limits Limits, memory []contracts.DecisionRecord) string {
	pos := in.Portfolio.Position(in.Ticker)

	var b strings.Builder
	fmt.Fprintf(&b, "You are the portfolio manager. Trading date: %s. Ticker: %s.\n",
		in.TradingDate.Format(contracts.DateLayout), in.Ticker)
	b.WriteString("Combine the analyst signals below into one trade for this ticker.\n\n")

	b.WriteString("Analyst signals:\n")
	for _, s := range in.Signals {
		fmt.Fprintf(&b, "- %s: %s. %s\n", s.Analyst, s.Signal, s.Justification)
	}

	b.WriteString("\nPortfolio:\n")
	fmt.Fprintf(&b, "- Cash: %s\n", in.Portfolio.Cashflow.StringFixed(2))
	fmt.Fprintf(&b, "- Current position: %d shares valued %s\n", pos.Shares, pos.Value.StringFixed(2))
	fmt.Fprintf(&b, "- Ticker allocation: %s\n", limits.Allocation.StringFixed(2))
	fmt.Fprintf(&b, "- Current price: %s\n", limits.Price.StringFixed(2))
	fmt.Fprintf(&b, "- Max shares to buy: %d\n", limits.MaxBuy)
	fmt.Fprintf(&b, "- Max shares to sell: %d\n", limits.MaxSell)

	if len(memory) > 0 {
		b.WriteString("\nRecent decisions for this ticker (newest first):\n")
		for _, r := range memory {
			fmt.Fprintf(&b, "- %s: %s %d @ %s. %s\n",
				r.TradingDate.Format(contracts.DateLayout), r.Decision.Action, r.Decision.Shares,
				r.Decision.Price.StringFixed(2), r.Decision.Justification)
		}
	}

	b.WriteString(`
Respond with a JSON object:
{"action": "Buy" | "Sell" | "Hold", "shares": <non-negative integer>, "justification": "<one short paragraph>"}`)
	return b.String()
}
