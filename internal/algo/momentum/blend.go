package momentum

import (
	"math"

	"github.com/sawpanic/momentumscore/internal/domain/indicators"
	"github.com/sawpanic/momentumscore/internal/regime"
)

// Sub-score mixes.
const (
	reversionBandWeight = 0.7
	reversionOscWeight  = 0.3
	trendImpulseWeight  = 0.7
	trendOscWeight      = 0.3
)

// ReversionWeight returns the share of the reversion sub-score at one bar.
// It rises from 0 at |z|=1 to 1 at |z|=2 and is capped while the market is
// strongly trending or the bands are wide: harder when both hold.
func ReversionWeight(c regime.Context, caps RegimeCaps) float64 {
	w := indicators.Clip(math.Abs(c.Z)-1, 0, 1)

	strong := c.TrendStrength > caps.TrendStrengthThreshold
	wide := c.Bandwidth > caps.BandwidthThreshold
	switch {
	case strong && wide:
		w = math.Min(w, caps.CapBoth)
	case strong || wide:
		w = math.Min(w, caps.CapEither)
	}
	return w
}

// blendRuleBased mixes reversion (band-led) and trend (impulse-led)
// sub-scores with regime-dependent weights.
func blendRuleBased(band, osc, imp []float64, ctx regime.Series, caps RegimeCaps) []float64 {
	out := make([]float64, len(band))
	for i := range out {
		wRev := ReversionWeight(ctx.At(i), caps)
		wTrend := 1 - wRev

		sRev := reversionBandWeight*band[i] + reversionOscWeight*osc[i]
		sTrend := trendImpulseWeight*imp[i] + trendOscWeight*osc[i]
		out[i] = indicators.ClipScore(wRev*sRev + wTrend*sTrend)
	}
	return out
}
