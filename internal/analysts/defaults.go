package analysts

import (
	"sort"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/pkg/logger"
)

// NewDefaultRegistry wires every analyst to one data source and synthesizer
func NewDefaultRegistry(data contracts.MarketData, synth Synthesizer, log *logger.Logger) *Registry {
	return NewRegistry(
		NewTechnicalAnalyst(data, synth, log),
		NewFundamentalAnalyst(data, synth),
		NewInsiderAnalyst(data, synth),
		NewCompanyNewsAnalyst(data, synth),
		NewMacroeconomicAnalyst(data, synth, log),
		NewPolicyAnalyst(data, synth),
	)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
