package momentum

import (
	"github.com/sawpanic/momentumscore/internal/domain/indicators"
	"github.com/sawpanic/momentumscore/internal/regime"
)

// applyML overwrites composite with bucket-weighted indicator blends where
// the bundle resolves. Bars or series that do not resolve keep the
// rule-based value. Buckets come from the reference horizon's context only.
func applyML(composite, band, osc, imp []float64, ctx regime.Series, ml *MLConfig) MLOutcome {
	out := MLOutcome{Gate: GateAbsent}
	if ml == nil {
		return out
	}
	if !ml.Active() {
		out.Gate = GateBelowConfidence
		return out
	}
	out.Gate = GateApplied
	out.PerBar = ml.PerBar()
	out.BucketCounts = make(map[regime.Bucket]int)
	out.ResolutionCounts = make(map[regime.Resolution]int)

	if out.PerBar {
		for i := range composite {
			b := regime.Classify(ctx.At(i))
			w, res := ml.Indicator.Resolve(b, ml.Fallback)
			out.BucketCounts[b]++
			out.ResolutionCounts[res]++
			if res == regime.Unresolved {
				continue
			}
			composite[i] = indicators.ClipScore(w.Blend(band[i], osc[i], imp[i]))
		}
		return out
	}

	last, ok := ctx.Last()
	if !ok {
		return out
	}
	b := regime.Classify(last)
	w, res := ml.Indicator.Resolve(b, ml.Fallback)
	out.BucketCounts[b] = len(composite)
	out.ResolutionCounts[res] = len(composite)
	if res == regime.Unresolved {
		return out
	}
	for i := range composite {
		composite[i] = indicators.ClipScore(w.Blend(band[i], osc[i], imp[i]))
	}
	return out
}
