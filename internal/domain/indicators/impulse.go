package indicators

import "math"

// Relative weights of the impulse, acceleration and distance components.
const (
	impulseWeight  = 0.55
	accelWeight    = 0.30
	distanceWeight = 0.15
)

// ImpulseParams tunes the MACD-style scorer.
type ImpulseParams struct {
	SlowRatio     int     `yaml:"slow_ratio" json:"slow_ratio"`
	ImpulseScale  float64 `yaml:"impulse_scale" json:"impulse_scale"`
	AccelScale    float64 `yaml:"accel_scale" json:"accel_scale"`
	DistanceScale float64 `yaml:"distance_scale" json:"distance_scale"`
	EdgeDecay     float64 `yaml:"edge_decay" json:"edge_decay"`
}

// ImpulseResult is the output of ScoreImpulse. The line series are kept for
// overlay display.
type ImpulseResult struct {
	Score  []float64
	Line   []float64 // fast - slow
	Signal []float64
	Hist   []float64
	Fast   []float64
	Slow   []float64
	Scale  []float64
}

// ScoreImpulse scores trend impulse from a fast/slow EMA difference line
// normalized by its own long-run absolute magnitude.
func ScoreImpulse(prices []float64, horizon int, p ImpulseParams) ImpulseResult {
	n := len(prices)
	ratio := p.SlowRatio
	if ratio < 1 {
		ratio = 1
	}

	fast := Ema(prices, horizon)
	slow := Ema(prices, horizon*ratio)
	line := make([]float64, n)
	for i := range line {
		line[i] = fast[i] - slow[i]
	}
	signal := Ema(line, horizon)
	hist := make([]float64, n)
	for i := range hist {
		hist[i] = line[i] - signal[i]
	}

	scale := EmaAbs(line, 3*horizon)
	floor := ScaleFloor(prices)
	for i := range scale {
		scale[i] = math.Max(scale[i], floor)
	}

	impScale := math.Max(p.ImpulseScale, Epsilon)
	accScale := math.Max(p.AccelScale, Epsilon)
	distScale := math.Max(p.DistanceScale, Epsilon)

	score := make([]float64, n)
	for i := 0; i < n; i++ {
		impulse := math.Tanh(hist[i] / (impScale * scale[i]))
		var accel float64
		if i > 0 {
			accel = math.Tanh((signal[i] - signal[i-1]) / (accScale * scale[i]))
		}
		distance := math.Tanh(line[i] / (distScale * scale[i]))

		s := impulseWeight*impulse + accelWeight*accel + distanceWeight*distance
		// far from center the impulse carries less information
		s *= math.Exp(-p.EdgeDecay * math.Abs(distance))
		score[i] = ClipScore(100 * s)
	}

	return ImpulseResult{
		Score:  score,
		Line:   line,
		Signal: signal,
		Hist:   hist,
		Fast:   fast,
		Slow:   slow,
		Scale:  scale,
	}
}
