package contracts

import (
	"fmt"
	"strings"
)

// Signal is the categorical output of an analyst
type Signal string

const (
	SignalBullish Signal = "Bullish"
	SignalBearish Signal = "Bearish"
	SignalNeutral Signal = "Neutral"
)

// ParseSignal accepts any casing of Bullish, Bearish or Neutral
func ParseSignal(s string) (Signal, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bullish":
		return SignalBullish, nil
	case "bearish":
		return SignalBearish, nil
	case "neutral":
		return SignalNeutral, nil
	default:
		return "", fmt.Errorf("unknown signal %q", s)
	}
}

// AnalystSignal is one analyst's view of one ticker for one trading date.
// ⭐ SSOT: produced once per analyst per ticker per run, never mutated
type AnalystSignal struct {
	Analyst       string `json:"analyst"`
	Ticker        string `json:"ticker"`
	Signal        Signal `json:"signal"`
	Justification string `json:"justification"`
}
