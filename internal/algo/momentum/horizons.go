package momentum

import "math"

// RuleHorizonWeights blends normalized inverse-horizon weights with equal
// weights. equalFraction 0 is pure 1/h, 1 is pure equal weight. With
// byInverse false every horizon gets 1/n.
func RuleHorizonWeights(horizons []int, byInverse bool, equalFraction float64) []float64 {
	n := len(horizons)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	equal := 1.0 / float64(n)
	if !byInverse {
		for i := range out {
			out[i] = equal
		}
		return out
	}

	f := math.Min(math.Max(equalFraction, 0), 1)
	invSum := 0.0
	for _, h := range horizons {
		invSum += 1.0 / float64(h)
	}
	for i, h := range horizons {
		inv := (1.0 / float64(h)) / invSum
		out[i] = (1-f)*inv + f*equal
	}
	return out
}

// OverrideHorizonWeights builds weights from a horizon→weight map.
// Missing, negative and non-finite entries count as 0. ok is false when the
// override sums to zero, in which case the caller keeps its own weights.
func OverrideHorizonWeights(horizons []int, override map[int]float64) ([]float64, bool) {
	if len(override) == 0 || len(horizons) == 0 {
		return nil, false
	}
	out := make([]float64, len(horizons))
	sum := 0.0
	for i, h := range horizons {
		w := override[h]
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			w = 0
		}
		out[i] = w
		sum += w
	}
	if sum <= 0 || math.IsInf(sum, 0) {
		return nil, false
	}
	for i := range out {
		out[i] /= sum
	}
	return out, true
}

// HorizonWeights returns the weight vector applied to every indicator's
// per-horizon scores, and whether an ML override supplied it.
func HorizonWeights(cfg Config) ([]float64, bool) {
	if cfg.ML.Active() {
		if w, ok := OverrideHorizonWeights(cfg.Horizons, cfg.ML.Horizon); ok {
			return w, true
		}
	}
	return RuleHorizonWeights(cfg.Horizons, cfg.WeightByInverseHorizon, cfg.HorizonBlendEqualFraction), false
}

// aggregate combines per-horizon score series with weights.
func aggregate(perHorizon [][]float64, weights []float64, n int) []float64 {
	out := make([]float64, n)
	for k, scores := range perHorizon {
		w := weights[k]
		for i := 0; i < n; i++ {
			out[i] += w * scores[i]
		}
	}
	return out
}
