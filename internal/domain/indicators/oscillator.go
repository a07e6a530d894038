package indicators

import "math"

// Hard bounds for adaptive oscillator thresholds.
const (
	MaxOverbought = 95.0
	MinOversold   = 5.0
)

// OscillatorParams tunes the RSI-style scorer.
type OscillatorParams struct {
	SlopeScale         float64 `yaml:"slope_scale" json:"slope_scale"`
	AdaptiveThresholds bool    `yaml:"adaptive_thresholds" json:"adaptive_thresholds"`
	Overbought         float64 `yaml:"overbought" json:"overbought"`
	Oversold           float64 `yaml:"oversold" json:"oversold"`
	MaxShift           float64 `yaml:"max_shift" json:"max_shift"`
	ShiftGain          float64 `yaml:"shift_gain" json:"shift_gain"`
}

// OscillatorResult is the output of ScoreOscillator.
type OscillatorResult struct {
	Score      []float64
	Raw        []float64 // 0-100 oscillator value
	Overbought []float64
	Oversold   []float64
}

// RawOscillator computes the 0-100 oscillator from EMA-smoothed up and down
// moves. Flat stretches with no movement read as 50.
func RawOscillator(prices []float64, horizon int) []float64 {
	delta := Diff(prices)
	up := make([]float64, len(delta))
	down := make([]float64, len(delta))
	for i, d := range delta {
		if d > 0 {
			up[i] = d
		} else {
			down[i] = -d
		}
	}
	avgUp := Ema(up, horizon)
	avgDown := Ema(down, horizon)

	floor := ScaleFloor(prices)
	out := make([]float64, len(prices))
	for i := range out {
		total := avgUp[i] + avgDown[i]
		if total <= floor {
			out[i] = 50
			continue
		}
		out[i] = 100 * avgUp[i] / total
	}
	return out
}

// ScoreOscillator maps the raw oscillator onto [-100,100] so that the
// endpoints line up with the (possibly trend-shifted) overbought and oversold
// levels, then adds a slope term for the direction of change.
func ScoreOscillator(prices []float64, horizon int, p OscillatorParams) OscillatorResult {
	n := len(prices)
	raw := RawOscillator(prices, horizon)

	res := OscillatorResult{
		Score:      make([]float64, n),
		Raw:        raw,
		Overbought: make([]float64, n),
		Oversold:   make([]float64, n),
	}

	var trend []float64
	if p.AdaptiveThresholds {
		trend = ComputeBandStats(prices, horizon).TrendStrength
	}

	slopeScale := math.Max(p.SlopeScale, Epsilon)
	for i := 0; i < n; i++ {
		ob, os := p.Overbought, p.Oversold
		if trend != nil {
			shift := math.Min(p.MaxShift, p.ShiftGain*trend[i])
			ob += shift
			os -= shift
		}
		ob = math.Min(ob, MaxOverbought)
		os = math.Max(os, MinOversold)
		res.Overbought[i] = ob
		res.Oversold[i] = os

		var s float64
		if raw[i] >= 50 {
			s = 100 * (raw[i] - 50) / math.Max(ob-50, Epsilon)
		} else {
			s = 100 * (raw[i] - 50) / math.Max(50-os, Epsilon)
		}

		if i > 0 {
			s += 50 * math.Tanh((raw[i]-raw[i-1])/slopeScale)
		}
		res.Score[i] = ClipScore(s)
	}
	return res
}
