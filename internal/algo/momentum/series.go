package momentum

import "github.com/sawpanic/momentumscore/internal/regime"

// IndicatorSeries is the output of Compute. Every slice is index-aligned to
// the input prices.
type IndicatorSeries struct {
	ReferenceHorizon int       `json:"reference_horizon"`
	HorizonWeights   []float64 `json:"horizon_weights"`

	BandUpper []float64 `json:"band_upper"`
	BandMid   []float64 `json:"band_mid"`
	BandLower []float64 `json:"band_lower"`

	ImpulseLine   []float64 `json:"impulse_line"`
	ImpulseSignal []float64 `json:"impulse_signal"`
	ImpulseHist   []float64 `json:"impulse_hist"`
	FastLine      []float64 `json:"fast_line"`
	SlowLine      []float64 `json:"slow_line"`

	ScoreBand       []float64 `json:"score_band"`
	ScoreOscillator []float64 `json:"score_oscillator"`
	ScoreImpulse    []float64 `json:"score_impulse"`
	ScoreMomentum   []float64 `json:"score_momentum"`

	ML MLOutcome `json:"ml"`
}

// Len returns the number of bars.
func (s *IndicatorSeries) Len() int {
	return len(s.ScoreMomentum)
}

func emptySeries() *IndicatorSeries {
	return &IndicatorSeries{
		HorizonWeights:  []float64{},
		BandUpper:       []float64{},
		BandMid:         []float64{},
		BandLower:       []float64{},
		ImpulseLine:     []float64{},
		ImpulseSignal:   []float64{},
		ImpulseHist:     []float64{},
		FastLine:        []float64{},
		SlowLine:        []float64{},
		ScoreBand:       []float64{},
		ScoreOscillator: []float64{},
		ScoreImpulse:    []float64{},
		ScoreMomentum:   []float64{},
		ML:              MLOutcome{Gate: GateAbsent},
	}
}

// At returns series[i]; past the end it carries the last value forward, and
// an empty series yields neutral. Negative indices read the first value.
func At(series []float64, i int, neutral float64) float64 {
	if len(series) == 0 {
		return neutral
	}
	if i < 0 {
		return series[0]
	}
	if i >= len(series) {
		return series[len(series)-1]
	}
	return series[i]
}

// Gate describes what happened to the ML bundle on a call.
type Gate int

const (
	GateAbsent Gate = iota
	GateBelowConfidence
	GateApplied
)

func (g Gate) String() string {
	switch g {
	case GateAbsent:
		return "absent"
	case GateBelowConfidence:
		return "below_confidence"
	case GateApplied:
		return "applied"
	default:
		return "unknown"
	}
}

// MarshalText renders the gate by name.
func (g Gate) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// MLOutcome summarizes the ML stage of one call.
type MLOutcome struct {
	Gate             Gate                      `json:"gate"`
	HorizonOverride  bool                      `json:"horizon_override"`
	PerBar           bool                      `json:"per_bar"`
	BucketCounts     map[regime.Bucket]int     `json:"bucket_counts,omitempty"`
	ResolutionCounts map[regime.Resolution]int `json:"resolution_counts,omitempty"`
}
