package regime

import "github.com/sawpanic/momentumscore/internal/domain/indicators"

// Context is the regime state at one time step, taken from the reference
// horizon.
type Context struct {
	Z             float64 `json:"z"`
	PercentB      float64 `json:"percent_b"`
	Bandwidth     float64 `json:"bandwidth"`
	TrendStrength float64 `json:"trend_strength"`
}

// Series is the per-bar regime context of a whole price series.
type Series struct {
	Horizon int
	stats   indicators.BandStats
}

// BuildContext wraps precomputed band statistics of the reference horizon.
func BuildContext(stats indicators.BandStats) Series {
	return Series{Horizon: stats.Horizon, stats: stats}
}

// Len returns the number of bars.
func (s Series) Len() int {
	return len(s.stats.Z)
}

// At returns the context at bar i. i must be in range.
func (s Series) At(i int) Context {
	return Context{
		Z:             s.stats.Z[i],
		PercentB:      s.stats.PercentB[i],
		Bandwidth:     s.stats.Bandwidth[i],
		TrendStrength: s.stats.TrendStrength[i],
	}
}

// Last returns the context of the final bar and false when empty.
func (s Series) Last() (Context, bool) {
	if s.Len() == 0 {
		return Context{}, false
	}
	return s.At(s.Len() - 1), true
}

// MeanSlope returns the day-over-day change of the reference mean at bar i.
func (s Series) MeanSlope(i int) float64 {
	if i <= 0 || i >= len(s.stats.Mean) {
		return 0
	}
	return s.stats.Mean[i] - s.stats.Mean[i-1]
}
