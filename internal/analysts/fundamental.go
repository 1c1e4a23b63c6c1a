package analysts

import (
	"context"

	"github.com/wonny/deepfund/internal/contracts"
)

// FundamentalAnalyst reads the company overview
type FundamentalAnalyst struct {
	data  contracts.MarketData
	synth Synthesizer
}

// NewFundamentalAnalyst creates a new fundamental analyst
func NewFundamentalAnalyst(data contracts.MarketData, synth Synthesizer) *FundamentalAnalyst {
	return &FundamentalAnalyst{data: data, synth: synth}
}

func (a *FundamentalAnalyst) Analyze(ctx context.Context, in Input) Result {
	overview, err := a.data.CompanyOverview(ctx, in.Ticker)
	if err != nil {
		return dataFailure(Fundamental, err)
	}
	return synthesize(ctx, a.synth, Fundamental, in, fundamentalPrompt(in, overview))
}
