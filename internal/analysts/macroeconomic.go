package analysts

import (
	"context"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/pkg/logger"
)

const macroObservations = 6

var macroIndicators = []contracts.Indicator{
	contracts.IndicatorRealGDP,
	contracts.IndicatorCPI,
	contracts.IndicatorFederalFundsRate,
	contracts.IndicatorUnemployment,
}

// MacroeconomicAnalyst reads GDP, inflation, rates and unemployment.
// Individual missing series are tolerated; all missing skips the analyst.
type MacroeconomicAnalyst struct {
	data   contracts.MarketData
	synth  Synthesizer
	logger *logger.Logger
}

// NewMacroeconomicAnalyst creates a new macroeconomic analyst
func NewMacroeconomicAnalyst(data contracts.MarketData, synth Synthesizer, log *logger.Logger) *MacroeconomicAnalyst {
	return &MacroeconomicAnalyst{data: data, synth: synth, logger: log}
}

func (a *MacroeconomicAnalyst) Analyze(ctx context.Context, in Input) Result {
	series := make(map[contracts.Indicator][]contracts.IndicatorPoint, len(macroIndicators))
	var lastErr error
	for _, ind := range macroIndicators {
		points, err := a.data.EconomicIndicator(ctx, ind, in.TradingDate, macroObservations)
		if err != nil {
			a.logger.WithError(err).WithField("indicator", string(ind)).Warn("Macroeconomic series unavailable")
			lastErr = err
			continue
		}
		series[ind] = points
	}
	if len(series) == 0 {
		return dataFailure(Macroeconomic, lastErr)
	}
	return synthesize(ctx, a.synth, Macroeconomic, in, macroPrompt(in, series))
}
