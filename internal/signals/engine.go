package signals

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/wonny/deepfund/internal/contracts"
)

// MinBars is the longest lookback any sub-strategy needs
const MinBars = 63

// ErrInsufficientHistory is returned by callers that reject short series
var ErrInsufficientHistory = errors.New("insufficient price history")

// Indicator windows and thresholds
const (
	trendShort  = 8
	trendMedium = 21
	trendLong   = 55

	bollingerWindow   = 20
	zScoreWindow      = 50
	zScoreExtreme     = 2.0
	bandPositionLimit = 0.2

	rsiPeriod  = 14
	rsiBullish = 30.0
	rsiBearish = 70.0

	volWindow        = 21
	volRegimeWindow  = 63
	volRegimeBullish = 0.8
	volRegimeBearish = 1.2
	tradingDays      = 252

	volumeWindow      = 20
	correlationWindow = 20
	unusualVolume     = 2.0

	pivotWindow    = 5
	levelsLookback = 20
)

// CheckHistory rejects series shorter than MinBars
func CheckHistory(bars []contracts.Bar) error {
	if len(bars) < MinBars {
		return fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientHistory, len(bars), MinBars)
	}
	return nil
}

// Trend compares EMA 8/21/55 at the latest bar.
// Both comparisons false is Bearish, so a perfectly flat series reads Bearish.
func Trend(closes []float64) contracts.Signal {
	short := last(ema(closes, trendShort))
	medium := last(ema(closes, trendMedium))
	long := last(ema(closes, trendLong))

	shortUp := short > medium
	mediumUp := medium > long

	switch {
	case shortUp && mediumUp:
		return contracts.SignalBullish
	case !shortUp && !mediumUp:
		return contracts.SignalBearish
	default:
		return contracts.SignalNeutral
	}
}

// MeanReversion combines the Bollinger band position with a 50-bar z-score.
// The bullish branch tests z < 2.0 (not z < -2.0) on purpose.
func MeanReversion(closes []float64) contracts.Signal {
	if len(closes) == 0 {
		return contracts.SignalNeutral
	}
	price := last(closes)

	sma := last(rollingMean(closes, bollingerWindow))
	bandStd := last(rollingStd(closes, bollingerWindow))
	ma := last(rollingMean(closes, zScoreWindow))
	std := last(rollingStd(closes, zScoreWindow))

	if bandStd == 0 || std == 0 || math.IsNaN(bandStd) || math.IsNaN(std) {
		return contracts.SignalNeutral
	}

	upper := sma + 2*bandStd
	lower := sma - 2*bandStd
	position := (price - lower) / (upper - lower)
	z := (price - ma) / std

	switch {
	case z < zScoreExtreme && position < bandPositionLimit:
		return contracts.SignalBullish
	case z > zScoreExtreme && position > 1-bandPositionLimit:
		return contracts.SignalBearish
	default:
		return contracts.SignalNeutral
	}
}

// RSIValue is the 14-bar RSI at the latest bar using simple rolling means.
// It is NaN when the window saw no movement at all.
func RSIValue(closes []float64) float64 {
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else if d < 0 {
			losses[i] = -d
		}
	}

	avgGain := last(rollingMean(gains, rsiPeriod))
	avgLoss := last(rollingMean(losses, rsiPeriod))

	switch {
	case math.IsNaN(avgGain) || math.IsNaN(avgLoss):
		return math.NaN()
	case avgLoss == 0 && avgGain == 0:
		return math.NaN()
	case avgLoss == 0:
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// RSI is Bearish above 70 and Bullish below 30
func RSI(closes []float64) contracts.Signal {
	rsi := RSIValue(closes)
	switch {
	case rsi > rsiBearish:
		return contracts.SignalBearish
	case rsi < rsiBullish:
		return contracts.SignalBullish
	default:
		return contracts.SignalNeutral
	}
}

// Volatility compares annualized 21-bar volatility with its 63-bar average.
// A low regime expects expansion (Bullish), a high one contraction (Bearish).
func Volatility(closes []float64) contracts.Signal {
	returns := pctChange(closes)
	hv := rollingStd(returns, volWindow)
	for i := range hv {
		hv[i] *= math.Sqrt(tradingDays)
	}

	volMA := last(rollingMean(hv, volRegimeWindow))
	volStd := last(rollingStd(hv, volRegimeWindow))
	current := last(hv)

	if volMA == 0 || volStd == 0 || math.IsNaN(volMA) || math.IsNaN(volStd) {
		return contracts.SignalNeutral
	}

	regime := current / volMA
	z := (current - volMA) / volStd

	switch {
	case regime < volRegimeBullish && z < -1:
		return contracts.SignalBullish
	case regime > volRegimeBearish && z > 1:
		return contracts.SignalBearish
	default:
		return contracts.SignalNeutral
	}
}

// VolumeStats is descriptive volume context, not a vote
type VolumeStats struct {
	// Rising is true when the latest volume exceeds the previous bar's 20-bar average
	Rising      bool
	Correlation float64
	Unusual     bool
}

// Volume computes the 20-bar volume average, price/volume correlation and unusual flag
func Volume(closes, volumes []float64) VolumeStats {
	volMA := rollingMean(volumes, volumeWindow)
	corr := rollingCorr(closes, volumes, correlationWindow)

	stats := VolumeStats{Correlation: last(corr)}
	n := len(volumes)
	if n >= 2 {
		stats.Rising = volumes[n-1] > volMA[n-2]
	}
	if n >= 1 {
		stats.Unusual = volumes[n-1] > volMA[n-1]*unusualVolume
	}
	return stats
}

func (v VolumeStats) String() string {
	trend := contracts.SignalBearish
	if v.Rising {
		trend = contracts.SignalBullish
	}
	var b strings.Builder
	fmt.Fprintf(&b, "- Volume trend: %s\n", trend)
	fmt.Fprintf(&b, "- Price-volume correlation: %.4f\n", v.Correlation)
	fmt.Fprintf(&b, "- Unusual volume: %t\n", v.Unusual)
	return b.String()
}

// LevelKind distinguishes support from resistance pivots
type LevelKind string

const (
	LevelSupport    LevelKind = "support"
	LevelResistance LevelKind = "resistance"
)

// Level is one detected pivot
type Level struct {
	Index int
	Price float64
	Kind  LevelKind
}

// FindLevels scans from bar 20 onward for pivots within a ±5 bar window.
// A bar is support when at least two bars on each side are above it,
// otherwise resistance when at least two bars on each side are below it.
func FindLevels(closes []float64) []Level {
	var levels []Level
	n := len(closes)
	for i := levelsLookback; i < n; i++ {
		price := closes[i]
		left := closes[max(0, i-pivotWindow):i]
		right := closes[min(n, i+1):min(n, i+pivotWindow+1)]

		switch {
		case countAbove(left, price) >= 2 && countAbove(right, price) >= 2:
			levels = append(levels, Level{Index: i, Price: price, Kind: LevelSupport})
		case countBelow(left, price) >= 2 && countBelow(right, price) >= 2:
			levels = append(levels, Level{Index: i, Price: price, Kind: LevelResistance})
		}
	}
	return levels
}

// PriceLevels is the nearest support below and resistance above the current close
type PriceLevels struct {
	Current    float64
	Support    float64
	Resistance float64
}

// SupportResistance reports false when no pivot lies on one side of the current close
func SupportResistance(closes []float64) (PriceLevels, bool) {
	if len(closes) == 0 {
		return PriceLevels{}, false
	}
	current := last(closes)
	support, resistance := math.Inf(-1), math.Inf(1)

	for _, level := range FindLevels(closes) {
		if level.Price < current && level.Price > support {
			support = level.Price
		}
		if level.Price > current && level.Price < resistance {
			resistance = level.Price
		}
	}

	if math.IsInf(support, -1) || math.IsInf(resistance, 1) {
		return PriceLevels{Current: current}, false
	}
	return PriceLevels{Current: current, Support: support, Resistance: resistance}, true
}

func (p PriceLevels) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Current price: %.2f\n", p.Current)
	fmt.Fprintf(&b, "- Nearest support: %.2f\n", p.Support)
	fmt.Fprintf(&b, "- Nearest resistance: %.2f\n", p.Resistance)
	fmt.Fprintf(&b, "- Price to support: %.4f\n", (p.Current-p.Support)/p.Support)
	fmt.Fprintf(&b, "- Price to resistance: %.4f\n", (p.Resistance-p.Current)/p.Current)
	return b.String()
}

func countAbove(xs []float64, v float64) int {
	n := 0
	for _, x := range xs {
		if x > v {
			n++
		}
	}
	return n
}

func countBelow(xs []float64, v float64) int {
	n := 0
	for _, x := range xs {
		if x < v {
			n++
		}
	}
	return n
}
