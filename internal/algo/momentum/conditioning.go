package momentum

import (
	"math"

	"github.com/sawpanic/momentumscore/internal/domain/indicators"
	"github.com/sawpanic/momentumscore/internal/regime"
)

// softNormDivisor widens the adaptive scale before the tanh squash.
const softNormDivisor = 1.8

// significantSign treats scores inside ±threshold as neutral.
func significantSign(v, threshold float64) float64 {
	switch {
	case v > threshold:
		return 1
	case v < -threshold:
		return -1
	default:
		return 0
	}
}

// Agreement returns |Σ sign|/3 for the three indicator scores, in [0,1].
func Agreement(band, osc, imp, threshold float64) float64 {
	sum := significantSign(band, threshold) + significantSign(osc, threshold) + significantSign(imp, threshold)
	return math.Abs(sum) / 3
}

// dampByAgreement scales the composite toward MinFactor as the indicators
// disagree.
func dampByAgreement(composite, band, osc, imp []float64, p AgreementParams) []float64 {
	out := make([]float64, len(composite))
	for i := range composite {
		a := Agreement(band[i], osc[i], imp[i], p.Threshold)
		out[i] = composite[i] * (p.MinFactor + (1-p.MinFactor)*a)
	}
	return out
}

// softNormalize rescales by the EMA of the signal's own absolute value so
// that quiet and volatile series both span the full range.
func softNormalize(damped []float64, span int) []float64 {
	scale := indicators.EmaAbs(damped, span)
	out := make([]float64, len(damped))
	for i, v := range damped {
		s := math.Max(scale[i], indicators.Epsilon)
		out[i] = 100 * math.Tanh(v/(softNormDivisor*s))
	}
	return out
}

// SnapDirection returns +1 at a confirmed lower-band turn, -1 at a confirmed
// upper-band turn and 0 otherwise.
func SnapDirection(percentB, meanSlope, signalSlope float64) float64 {
	switch {
	case percentB < indicators.LowerExtreme && meanSlope > 0 && signalSlope > 0:
		return 1
	case percentB > indicators.UpperExtreme && meanSlope < 0 && signalSlope < 0:
		return -1
	default:
		return 0
	}
}

// snapExtrema nudges scores where band position, mean slope and impulse
// signal slope all point the same way.
func snapExtrema(scores []float64, ctx regime.Series, signal []float64, nudge float64) {
	for i := 1; i < len(scores); i++ {
		dir := SnapDirection(ctx.At(i).PercentB, ctx.MeanSlope(i), signal[i]-signal[i-1])
		if dir != 0 {
			scores[i] = indicators.ClipScore(scores[i] + dir*nudge)
		}
	}
}
