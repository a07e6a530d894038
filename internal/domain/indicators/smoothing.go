package indicators

import "math"

// Epsilon guards every denominator in the package. Denominators in price
// units use it relative to the series magnitude, see ScaleFloor.
const Epsilon = 1e-12

// Ema computes the exponential moving average of series with smoothing
// factor 2/(span+1). The first output equals the first observation so there
// is no startup bias toward zero.
func Ema(series []float64, span int) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	if span < 1 {
		span = 1
	}
	alpha := 2.0 / (float64(span) + 1.0)

	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		prev := out[i-1]
		out[i] = prev + alpha*(series[i]-prev)
	}
	return out
}

// EmaAbs is Ema over the elementwise absolute value. Used as an adaptive
// scale estimator.
func EmaAbs(series []float64, span int) []float64 {
	abs := make([]float64, len(series))
	for i, v := range series {
		abs[i] = math.Abs(v)
	}
	return Ema(abs, span)
}

// EmaStd returns the EMA-weighted standard deviation sqrt(E[x²] - E[x]²).
func EmaStd(series []float64, span int) []float64 {
	return emaStdFrom(series, Ema(series, span), span)
}

// emaStdFrom reuses an already computed mean. Moments are taken on the
// series divided by its largest magnitude and centred on the first value,
// so squaring cannot overflow and E[x²]-E[x]² does not cancel on high
// price levels.
func emaStdFrom(series, mean []float64, span int) []float64 {
	out := make([]float64, len(series))
	m := maxAbs(series)
	if m == 0 {
		return out
	}
	origin := series[0] / m

	sq := make([]float64, len(series))
	for i, v := range series {
		r := v/m - origin
		sq[i] = r * r
	}
	meanSq := Ema(sq, span)

	for i := range series {
		mu := mean[i]/m - origin
		// round-off can push the difference slightly below zero
		out[i] = m * math.Sqrt(math.Max(0, meanSq[i]-mu*mu))
	}
	return out
}

func maxAbs(series []float64) float64 {
	var m float64
	for _, v := range series {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

// ScaleFloor is the denominator floor for quantities measured in the units
// of series. It scales with the largest magnitude so scores do not depend on
// the price level.
func ScaleFloor(series []float64) float64 {
	if m := maxAbs(series); m > 0 {
		return Epsilon * m
	}
	return Epsilon
}

// Diff returns x[i]-x[i-1] with a zero at index 0.
func Diff(series []float64) []float64 {
	out := make([]float64, len(series))
	for i := 1; i < len(series); i++ {
		out[i] = series[i] - series[i-1]
	}
	return out
}

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClipScore bounds a score to [-100, 100].
func ClipScore(v float64) float64 {
	return Clip(v, -100, 100)
}
