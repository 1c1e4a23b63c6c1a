package signals

import "math"

// Series helpers return a value per input index and NaN where the window is
// incomplete or contains NaN, so indicator comparisons against NaN fall
// through to Neutral.

func ema(xs []float64, span int) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

func rollingMean(xs []float64, window int) []float64 {
	out := nanSeries(len(xs))
	for i := window - 1; i < len(xs); i++ {
		out[i] = mean(xs[i-window+1 : i+1])
	}
	return out
}

// rollingStd uses the sample standard deviation (n-1 denominator)
func rollingStd(xs []float64, window int) []float64 {
	out := nanSeries(len(xs))
	for i := window - 1; i < len(xs); i++ {
		out[i] = sampleStd(xs[i-window+1 : i+1])
	}
	return out
}

// rollingCorr is the Pearson correlation of xs and ys over a trailing window
func rollingCorr(xs, ys []float64, window int) []float64 {
	out := nanSeries(len(xs))
	for i := window - 1; i < len(xs); i++ {
		out[i] = pearson(xs[i-window+1:i+1], ys[i-window+1:i+1])
	}
	return out
}

// pctChange returns x[i]/x[i-1]-1 with NaN at index 0
func pctChange(xs []float64) []float64 {
	out := nanSeries(len(xs))
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i]/xs[i-1] - 1
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		if math.IsNaN(x) {
			return math.NaN()
		}
		sum += x
	}
	return sum / float64(len(xs))
}

func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	m := mean(xs)
	if math.IsNaN(m) {
		return math.NaN()
	}
	ss := 0.0
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func pearson(xs, ys []float64) float64 {
	mx, my := mean(xs), mean(ys)
	if math.IsNaN(mx) || math.IsNaN(my) {
		return math.NaN()
	}
	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(vx*vy)
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return xs[len(xs)-1]
}
