package indicators

import "math"

// BandWidthMultiplier is the number of standard deviations between the mid
// line and each band.
const BandWidthMultiplier = 2.0

// Outer decile of %B on either side counts as "at the band".
const (
	LowerExtreme = 0.10
	UpperExtreme = 0.90
)

// BandParams tunes the band scorer.
type BandParams struct {
	SquashScale       float64 `yaml:"squash_scale" json:"squash_scale"`
	ExtremityBoost    float64 `yaml:"extremity_boost" json:"extremity_boost"`
	VolatilityDamping float64 `yaml:"volatility_damping" json:"volatility_damping"`
}

// BandStats holds the rolling statistics of one horizon, index-aligned to
// the input.
type BandStats struct {
	Horizon       int
	Mean          []float64
	Std           []float64
	Upper         []float64
	Lower         []float64
	Z             []float64 // standardized distance from the mean
	PercentB      []float64 // band position clamped to [0,1]
	Bandwidth     []float64 // (upper-lower)/|mean|
	TrendStrength []float64 // |Δmean|/std
}

// ComputeBandStats derives EMA mean/std bands and the regime statistics
// built on them.
func ComputeBandStats(prices []float64, horizon int) BandStats {
	n := len(prices)
	mean := Ema(prices, horizon)
	std := emaStdFrom(prices, mean, horizon)

	st := BandStats{
		Horizon:       horizon,
		Mean:          mean,
		Std:           std,
		Upper:         make([]float64, n),
		Lower:         make([]float64, n),
		Z:             make([]float64, n),
		PercentB:      make([]float64, n),
		Bandwidth:     make([]float64, n),
		TrendStrength: make([]float64, n),
	}

	floor := ScaleFloor(prices)
	for i := 0; i < n; i++ {
		st.Upper[i] = mean[i] + BandWidthMultiplier*std[i]
		st.Lower[i] = mean[i] - BandWidthMultiplier*std[i]
		st.Z[i] = (prices[i] - mean[i]) / (std[i] + floor)

		// z form of (price-lower)/width
		halfWidth := BandWidthMultiplier * std[i]
		if 2*halfWidth <= floor {
			st.PercentB[i] = 0.5
		} else {
			st.PercentB[i] = Clip(0.5+(prices[i]-mean[i])/(2*halfWidth), 0, 1)
		}
		st.Bandwidth[i] = 2 * halfWidth / (math.Abs(mean[i]) + floor)

		if i > 0 {
			st.TrendStrength[i] = math.Abs(mean[i]-mean[i-1]) / (std[i] + floor)
		}
	}
	return st
}

// IsExtreme reports whether a %B value sits in the outer decile.
func IsExtreme(percentB float64) bool {
	return percentB < LowerExtreme || percentB > UpperExtreme
}

// BandResult is the output of ScoreBand.
type BandResult struct {
	Score []float64
	Stats BandStats
}

// ScoreBand scores distance from the rolling mean. The score is
// mean-reversion biased: stretched above the mean is negative, below is
// positive. Extremes of %B amplify it and wide bands damp it.
func ScoreBand(prices []float64, horizon int, p BandParams) BandResult {
	st := ComputeBandStats(prices, horizon)
	score := make([]float64, len(prices))

	squash := math.Max(p.SquashScale, Epsilon)
	for i := range prices {
		s := -100 * math.Tanh(st.Z[i]/squash)
		if IsExtreme(st.PercentB[i]) {
			s *= 1 + p.ExtremityBoost
		}
		s /= 1 + p.VolatilityDamping*st.Bandwidth[i]
		score[i] = ClipScore(s)
	}

	return BandResult{Score: score, Stats: st}
}
