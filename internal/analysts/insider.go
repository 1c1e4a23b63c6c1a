package analysts

import (
	"context"

	"github.com/wonny/deepfund/internal/contracts"
)

const insiderLimit = 50

// InsiderAnalyst reads recent insider transactions
type InsiderAnalyst struct {
	data  contracts.MarketData
	synth Synthesizer
}

// NewInsiderAnalyst creates a new insider analyst
func NewInsiderAnalyst(data contracts.MarketData, synth Synthesizer) *InsiderAnalyst {
	return &InsiderAnalyst{data: data, synth: synth}
}

func (a *InsiderAnalyst) Analyze(ctx context.Context, in Input) Result {
	txs, err := a.data.InsiderTransactions(ctx, in.Ticker, in.TradingDate, insiderLimit)
	if err != nil {
		return dataFailure(Insider, err)
	}
	return synthesize(ctx, a.synth, Insider, in, insiderPrompt(in, txs))
}
