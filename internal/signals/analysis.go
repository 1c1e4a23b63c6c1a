package signals

import (
	"fmt"
	"strings"

	"github.com/wonny/deepfund/internal/contracts"
)

// Analysis bundles every sub-strategy result for one ticker.
// No aggregation across sub-strategies happens here.
type Analysis struct {
	Trend         contracts.Signal
	MeanReversion contracts.Signal
	RSI           contracts.Signal
	RSIValue      float64
	Volatility    contracts.Signal
	Volume        VolumeStats
	Levels        PriceLevels
	LevelsFound   bool
}

// Analyze runs all sub-strategies over bars ascending by date.
// Callers are expected to have checked CheckHistory first.
func Analyze(bars []contracts.Bar) Analysis {
	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
		volumes[i] = float64(bar.Volume)
	}

	levels, found := SupportResistance(closes)

	return Analysis{
		Trend:         Trend(closes),
		MeanReversion: MeanReversion(closes),
		RSI:           RSI(closes),
		RSIValue:      RSIValue(closes),
		Volatility:    Volatility(closes),
		Volume:        Volume(closes, volumes),
		Levels:        levels,
		LevelsFound:   found,
	}
}

// Summary renders the analysis as the text block handed to the synthesis call
func (a Analysis) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trend: %s\n", a.Trend)
	fmt.Fprintf(&b, "Mean reversion: %s\n", a.MeanReversion)
	fmt.Fprintf(&b, "RSI: %s (%.2f)\n", a.RSI, a.RSIValue)
	fmt.Fprintf(&b, "Volatility: %s\n", a.Volatility)
	b.WriteString("Volume:\n")
	b.WriteString(a.Volume.String())
	b.WriteString("Price levels:\n")
	if a.LevelsFound {
		b.WriteString(a.Levels.String())
	} else {
		b.WriteString("- Failed to analyze support and resistance levels\n")
	}
	return b.String()
}
