package signals

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/deepfund/internal/contracts"
)

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// alternatingReturns builds a price path whose daily returns alternate +r, -r
func alternatingReturns(prices []float64, n int, r float64) []float64 {
	p := 100.0
	if len(prices) > 0 {
		p = prices[len(prices)-1]
	}
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			p *= 1 + r
		} else {
			p *= 1 - r
		}
		prices = append(prices, p)
	}
	return prices
}

func TestEMA_SeededWithFirstValue(t *testing.T) {
	got := ema([]float64{10, 20, 30}, 3)

	require.Len(t, got, 3)
	assert.Equal(t, 10.0, got[0])
	assert.InDelta(t, 15.0, got[1], 1e-9)
	assert.InDelta(t, 22.5, got[2], 1e-9)
}

func TestRollingStd_SampleAndNaNPadding(t *testing.T) {
	got := rollingStd([]float64{1, 2, 3, 4}, 3)

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 1.0, got[2], 1e-9)
	assert.InDelta(t, 1.0, got[3], 1e-9)
}

func TestRollingMean_NaNInWindow(t *testing.T) {
	got := rollingMean([]float64{math.NaN(), 1, 2, 3}, 2)

	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 1.5, got[2], 1e-9)
}

func TestTrend(t *testing.T) {
	t.Run("monotonically increasing is bullish", func(t *testing.T) {
		assert.Equal(t, contracts.SignalBullish, Trend(linear(100, 10, 1)))
	})
	t.Run("monotonically decreasing is bearish", func(t *testing.T) {
		assert.Equal(t, contracts.SignalBearish, Trend(linear(100, 200, -1)))
	})
	t.Run("recent reversal is neutral", func(t *testing.T) {
		closes := append(linear(90, 100, -1), linear(10, 12, 3)...)
		assert.Equal(t, contracts.SignalNeutral, Trend(closes))
	})
	t.Run("flat series has both comparisons false", func(t *testing.T) {
		assert.Equal(t, contracts.SignalBearish, Trend(constant(80, 50)))
	})
}

func calmAround(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i%2)
	}
	return out
}

func TestMeanReversion(t *testing.T) {
	t.Run("drop below lower band is bullish", func(t *testing.T) {
		closes := append(calmAround(62), 90)
		assert.Equal(t, contracts.SignalBullish, MeanReversion(closes))
	})

	t.Run("spike above upper band is bearish", func(t *testing.T) {
		closes := append(calmAround(62), 110)
		assert.Equal(t, contracts.SignalBearish, MeanReversion(closes))
	})

	t.Run("inside the band is neutral", func(t *testing.T) {
		closes := append(calmAround(62), 100.5)
		assert.Equal(t, contracts.SignalNeutral, MeanReversion(closes))
	})

	t.Run("zero standard deviation degrades to neutral", func(t *testing.T) {
		assert.Equal(t, contracts.SignalNeutral, MeanReversion(constant(70, 100)))
	})

	// The bullish branch only requires z < 2.0, so a low band position is
	// bullish even when the 50-bar z-score is nowhere near -2.
	t.Run("bullish with an unremarkable z-score", func(t *testing.T) {
		closes := make([]float64, 0, 63)
		for i := 0; i < 43; i++ {
			if i%2 == 0 {
				closes = append(closes, 80)
			} else {
				closes = append(closes, 120)
			}
		}
		closes = append(closes, calmAround(19)...)
		closes = append(closes, 99)

		ma := last(rollingMean(closes, zScoreWindow))
		std := last(rollingStd(closes, zScoreWindow))
		z := (closes[len(closes)-1] - ma) / std
		require.Greater(t, z, -2.0)
		require.Less(t, z, 0.0)

		assert.Equal(t, contracts.SignalBullish, MeanReversion(closes))
	})
}

func TestRSI(t *testing.T) {
	t.Run("strictly increasing is bearish", func(t *testing.T) {
		closes := linear(80, 10, 1)
		assert.Equal(t, 100.0, RSIValue(closes))
		assert.Equal(t, contracts.SignalBearish, RSI(closes))
	})

	t.Run("decreasing then flat is bullish", func(t *testing.T) {
		closes := append(linear(70, 200, -1), constant(5, 131)...)
		assert.Less(t, RSIValue(closes), 30.0)
		assert.Equal(t, contracts.SignalBullish, RSI(closes))
	})

	t.Run("no movement is neutral", func(t *testing.T) {
		closes := constant(70, 42)
		assert.True(t, math.IsNaN(RSIValue(closes)))
		assert.Equal(t, contracts.SignalNeutral, RSI(closes))
	})

	t.Run("balanced moves are neutral", func(t *testing.T) {
		closes := calmAround(70)
		assert.InDelta(t, 50.0, RSIValue(closes), 5)
		assert.Equal(t, contracts.SignalNeutral, RSI(closes))
	})
}

func TestVolatility(t *testing.T) {
	t.Run("not enough history for the regime average is neutral", func(t *testing.T) {
		closes := alternatingReturns(nil, 63, 0.02)
		assert.Equal(t, contracts.SignalNeutral, Volatility(closes))
	})

	t.Run("constant returns are neutral", func(t *testing.T) {
		closes := linear(150, 100, 0)
		assert.Equal(t, contracts.SignalNeutral, Volatility(closes))
	})

	t.Run("volatility spike is bearish", func(t *testing.T) {
		closes := alternatingReturns([]float64{100}, 128, 0.001)
		closes = alternatingReturns(closes, 21, 0.05)
		assert.Equal(t, contracts.SignalBearish, Volatility(closes))
	})

	t.Run("volatility collapse is bullish", func(t *testing.T) {
		closes := alternatingReturns([]float64{100}, 128, 0.05)
		closes = alternatingReturns(closes, 21, 0.001)
		assert.Equal(t, contracts.SignalBullish, Volatility(closes))
	})
}

func TestVolume(t *testing.T) {
	closes := linear(30, 10, 1)
	volumes := constant(30, 1000)
	volumes[29] = 5000

	stats := Volume(closes, volumes)

	assert.True(t, stats.Rising)
	assert.True(t, stats.Unusual)
	assert.Contains(t, stats.String(), "- Volume trend: Bullish")
	assert.Contains(t, stats.String(), "- Unusual volume: true")

	calm := Volume(closes, constant(30, 1000))
	assert.False(t, calm.Rising)
	assert.False(t, calm.Unusual)
	assert.True(t, math.IsNaN(calm.Correlation))
	assert.Contains(t, calm.String(), "- Volume trend: Bearish")
}

func TestFindLevels_VShapeSupportAtTrough(t *testing.T) {
	const k = 40
	closes := append(linear(k+1, 110, -1), linear(30, 71, 1)...)
	require.Equal(t, 70.0, closes[k])

	var supports []int
	for _, level := range FindLevels(closes) {
		if level.Kind == LevelSupport {
			supports = append(supports, level.Index)
		}
	}
	assert.Contains(t, supports, k)
}

func TestSupportResistance(t *testing.T) {
	t.Run("finds nearest levels", func(t *testing.T) {
		var closes []float64
		for i := 0; i <= 30; i++ {
			closes = append(closes, 100-float64(i))
		}
		for i := 31; i <= 45; i++ {
			closes = append(closes, 70+float64(i-30)*2)
		}
		for i := 46; i <= 60; i++ {
			closes = append(closes, 100-float64(i-45))
		}

		levels, ok := SupportResistance(closes)
		require.True(t, ok)
		assert.Equal(t, 85.0, levels.Current)
		assert.Equal(t, 72.0, levels.Support)
		assert.Equal(t, 98.0, levels.Resistance)
		assert.Contains(t, levels.String(), "- Nearest support: 72.00")
	})

	t.Run("monotonic series has no levels", func(t *testing.T) {
		_, ok := SupportResistance(linear(80, 10, 1))
		assert.False(t, ok)
	})
}

func TestCheckHistory(t *testing.T) {
	err := CheckHistory(make([]contracts.Bar, MinBars-1))
	assert.True(t, errors.Is(err, ErrInsufficientHistory))
	assert.NoError(t, CheckHistory(make([]contracts.Bar, MinBars)))
}

func TestAnalyze_Summary(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.Bar, 80)
	for i := range bars {
		c := 10 + float64(i)
		bars[i] = contracts.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}

	a := Analyze(bars)

	assert.Equal(t, contracts.SignalBullish, a.Trend)
	assert.Equal(t, contracts.SignalBearish, a.RSI)
	assert.False(t, a.LevelsFound)

	summary := a.Summary()
	assert.Contains(t, summary, "Trend: Bullish")
	assert.Contains(t, summary, "RSI: Bearish (100.00)")
	assert.Contains(t, summary, "Failed to analyze support and resistance levels")
}
