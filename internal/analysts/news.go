package analysts

import (
	"context"

	"github.com/wonny/deepfund/internal/contracts"
)

const (
	companyNewsLimit = 10
	policyNewsLimit  = 10

	topicFiscal   = "economy_fiscal"
	topicMonetary = "economy_monetary"
)

// CompanyNewsAnalyst reads news tagged with the ticker
type CompanyNewsAnalyst struct {
	data  contracts.MarketData
	synth Synthesizer
}

// NewCompanyNewsAnalyst creates a new company news analyst
func NewCompanyNewsAnalyst(data contracts.MarketData, synth Synthesizer) *CompanyNewsAnalyst {
	return &CompanyNewsAnalyst{data: data, synth: synth}
}

func (a *CompanyNewsAnalyst) Analyze(ctx context.Context, in Input) Result {
	items, err := a.data.MarketNews(ctx, contracts.NewsQuery{Ticker: in.Ticker, AsOf: in.TradingDate, Limit: companyNewsLimit})
	if err != nil {
		return dataFailure(CompanyNews, err)
	}
	prompt := newsPrompt("company news analyst judging how recent coverage moves this stock", in,
		map[string][]contracts.NewsItem{"Company news": items}, []string{"Company news"})
	return synthesize(ctx, a.synth, CompanyNews, in, prompt)
}

// PolicyAnalyst reads fiscal and monetary policy news
type PolicyAnalyst struct {
	data  contracts.MarketData
	synth Synthesizer
}

// NewPolicyAnalyst creates a new policy analyst
func NewPolicyAnalyst(data contracts.MarketData, synth Synthesizer) *PolicyAnalyst {
	return &PolicyAnalyst{data: data, synth: synth}
}

func (a *PolicyAnalyst) Analyze(ctx context.Context, in Input) Result {
	fiscal, err := a.data.MarketNews(ctx, contracts.NewsQuery{Topic: topicFiscal, AsOf: in.TradingDate, Limit: policyNewsLimit})
	if err != nil {
		return dataFailure(Policy, err)
	}
	monetary, err := a.data.MarketNews(ctx, contracts.NewsQuery{Topic: topicMonetary, AsOf: in.TradingDate, Limit: policyNewsLimit})
	if err != nil {
		return dataFailure(Policy, err)
	}
	prompt := newsPrompt("policy analyst judging how fiscal and monetary policy affect this stock", in,
		map[string][]contracts.NewsItem{"Fiscal policy": fiscal, "Monetary policy": monetary},
		[]string{"Fiscal policy", "Monetary policy"})
	return synthesize(ctx, a.synth, Policy, in, prompt)
}
