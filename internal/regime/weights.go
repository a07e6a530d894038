package regime

import "math"

// IndicatorWeights mixes the three aggregated indicator scores.
type IndicatorWeights struct {
	Band float64 `yaml:"band" json:"band"`
	RSI  float64 `yaml:"rsi" json:"rsi"`
	MACD float64 `yaml:"macd" json:"macd"`
}

// Sum returns the total weight.
func (w IndicatorWeights) Sum() float64 {
	return w.Band + w.RSI + w.MACD
}

// Normalized returns the weights rescaled to sum to 1. Non-finite and
// negative components count as 0. ok is false when nothing is left.
func (w IndicatorWeights) Normalized() (IndicatorWeights, bool) {
	clean := IndicatorWeights{
		Band: nonNegative(w.Band),
		RSI:  nonNegative(w.RSI),
		MACD: nonNegative(w.MACD),
	}
	sum := clean.Sum()
	if sum <= 0 || math.IsInf(sum, 0) {
		return IndicatorWeights{}, false
	}
	return IndicatorWeights{
		Band: clean.Band / sum,
		RSI:  clean.RSI / sum,
		MACD: clean.MACD / sum,
	}, true
}

// Blend returns the weighted sum of the three scores.
func (w IndicatorWeights) Blend(band, rsi, macd float64) float64 {
	return w.Band*band + w.RSI*rsi + w.MACD*macd
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Resolution records which table entry served a lookup.
type Resolution int

const (
	ResolvedBucket Resolution = iota
	ResolvedFallback
	ResolvedDefault
	Unresolved
)

func (r Resolution) String() string {
	switch r {
	case ResolvedBucket:
		return "bucket"
	case ResolvedFallback:
		return "fallback"
	case ResolvedDefault:
		return "default"
	default:
		return "unresolved"
	}
}

// MarshalText renders the resolution by name.
func (r Resolution) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// WeightTable holds optional per-bucket indicator weights.
type WeightTable map[Bucket]IndicatorWeights

// lookup returns the normalized entry for b, if present and usable.
func (t WeightTable) lookup(b Bucket) (IndicatorWeights, bool) {
	w, ok := t[b]
	if !ok {
		return IndicatorWeights{}, false
	}
	return w.Normalized()
}

// Resolve finds weights for bucket b, falling back to the caller-supplied
// fallback bucket and then to the Default entry.
func (t WeightTable) Resolve(b Bucket, fallback *Bucket) (IndicatorWeights, Resolution) {
	if w, ok := t.lookup(b); ok {
		return w, ResolvedBucket
	}
	if fallback != nil {
		if w, ok := t.lookup(*fallback); ok {
			return w, ResolvedFallback
		}
	}
	if w, ok := t.lookup(Default); ok {
		return w, ResolvedDefault
	}
	return IndicatorWeights{}, Unresolved
}
