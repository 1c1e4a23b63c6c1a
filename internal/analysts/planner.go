package analysts

import (
	"context"
	"fmt"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/pkg/logger"
)

// Chooser runs the planning inference call
type Chooser interface {
	Choose(ctx context.Context, prompt string, model contracts.ModelConfig) ([]string, error)
}

// LLMPlanner asks a language model which analysts fit a ticker
type LLMPlanner struct {
	chooser Chooser
	logger  *logger.Logger
}

// NewLLMPlanner creates a new planner
func NewLLMPlanner(chooser Chooser, log *logger.Logger) *LLMPlanner {
	return &LLMPlanner{chooser: chooser, logger: log}
}

// Plan returns the recognised analyst keys from the model's reply
func (p *LLMPlanner) Plan(ctx context.Context, ticker string, model contracts.ModelConfig, candidates []Key) ([]Key, error) {
	names, err := p.chooser.Choose(ctx, plannerPrompt(ticker, candidates), model)
	if err != nil {
		return nil, fmt.Errorf("planner call failed: %w", err)
	}

	keys := make([]Key, 0, len(names))
	for _, name := range names {
		k, err := ParseKey(name)
		if err != nil {
			p.logger.WithField("name", name).Warn("Planner returned an unknown analyst")
			continue
		}
		keys = append(keys, k)
	}

	p.logger.WithFields(map[string]interface{}{
		"ticker":   ticker,
		"analysts": keys,
	}).Info("Planner selected analysts")

	return keys, nil
}
