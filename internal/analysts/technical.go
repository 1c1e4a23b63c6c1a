package analysts

import (
	"context"
	"errors"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/signals"
	"github.com/wonny/deepfund/pkg/logger"
)

// Synthesizer runs the signal inference call
type Synthesizer interface {
	Signal(ctx context.Context, prompt string, model contracts.ModelConfig) (contracts.SignalVerdict, error)
}

// TechnicalAnalyst feeds the indicator engine's readings to the synthesis call
type TechnicalAnalyst struct {
	data   contracts.MarketData
	synth  Synthesizer
	logger *logger.Logger
}

// NewTechnicalAnalyst creates a new technical analyst
func NewTechnicalAnalyst(data contracts.MarketData, synth Synthesizer, log *logger.Logger) *TechnicalAnalyst {
	return &TechnicalAnalyst{data: data, synth: synth, logger: log}
}

// Analyze implements Analyst
func (a *TechnicalAnalyst) Analyze(ctx context.Context, in Input) Result {
	bars, err := a.data.DailyBars(ctx, in.Ticker, in.TradingDate)
	if err != nil {
		return dataFailure(Technical, err)
	}
	if err := signals.CheckHistory(bars); err != nil {
		return Skipped(Technical, err)
	}

	analysis := signals.Analyze(bars)
	a.logger.WithFields(map[string]interface{}{
		"ticker":         in.Ticker,
		"trend":          analysis.Trend,
		"mean_reversion": analysis.MeanReversion,
		"rsi":            analysis.RSI,
		"volatility":     analysis.Volatility,
	}).Debug("Technical indicators computed")

	return synthesize(ctx, a.synth, Technical, in, technicalPrompt(in, analysis.Summary()))
}

// synthesize runs the inference call and shapes the reply into a Result
func synthesize(ctx context.Context, synth Synthesizer, key Key, in Input, prompt string) Result {
	verdict, err := synth.Signal(ctx, prompt, in.Model)
	if err != nil {
		return Failed(key, prompt, err)
	}
	return OK(key, contracts.AnalystSignal{
		Analyst:       string(key),
		Ticker:        in.Ticker,
		Signal:        verdict.Signal,
		Justification: verdict.Justification,
	}, prompt)
}

// dataFailure skips on missing coverage and fails on anything else
func dataFailure(key Key, err error) Result {
	if errors.Is(err, contracts.ErrDataUnavailable) {
		return Skipped(key, err)
	}
	return Failed(key, "", err)
}
