package momentum

import (
	"github.com/sawpanic/momentumscore/internal/domain/indicators"
	"github.com/sawpanic/momentumscore/internal/regime"
)

// Core scores price series with a fixed configuration. It is safe for
// concurrent use.
type Core struct {
	config Config
}

// NewCore validates cfg and returns a scoring core.
func NewCore(cfg Config) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Horizons = sanitizeHorizons(cfg.Horizons)
	return &Core{config: cfg}, nil
}

// Config returns the configuration the core was built with.
func (c *Core) Config() Config {
	return c.config
}

// Score runs Compute with the core's configuration.
func (c *Core) Score(prices []float64) (*IndicatorSeries, error) {
	return Compute(prices, c.config)
}

// Compute converts a price series into band, oscillator, impulse and
// composite momentum scores in [-100,100], plus overlay series of the
// reference horizon. Empty prices or an empty horizon set produce empty
// output without error. Non-finite prices are rejected.
func Compute(prices []float64, cfg Config) (*IndicatorSeries, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(prices); err != nil {
		return nil, err
	}

	cfg.Horizons = sanitizeHorizons(cfg.Horizons)
	n := len(prices)
	if n == 0 || len(cfg.Horizons) == 0 {
		out := emptySeries()
		out.ML.Gate = gateOf(cfg.ML)
		return out, nil
	}

	weights, overridden := HorizonWeights(cfg)
	refHorizon := cfg.ReferenceHorizon()

	bandScores := make([][]float64, len(cfg.Horizons))
	oscScores := make([][]float64, len(cfg.Horizons))
	impScores := make([][]float64, len(cfg.Horizons))
	var refBand indicators.BandResult
	var refImp indicators.ImpulseResult

	for k, h := range cfg.Horizons {
		band := indicators.ScoreBand(prices, h, cfg.Band)
		osc := indicators.ScoreOscillator(prices, h, cfg.Oscillator)
		imp := indicators.ScoreImpulse(prices, h, cfg.Impulse)

		bandScores[k] = band.Score
		oscScores[k] = osc.Score
		impScores[k] = imp.Score
		if h == refHorizon {
			refBand = band
			refImp = imp
		}
	}

	band := aggregate(bandScores, weights, n)
	osc := aggregate(oscScores, weights, n)
	imp := aggregate(impScores, weights, n)
	// weights sum to 1, clipping only absorbs round-off
	for i := range band {
		band[i] = indicators.ClipScore(band[i])
		osc[i] = indicators.ClipScore(osc[i])
		imp[i] = indicators.ClipScore(imp[i])
	}

	ctx := regime.BuildContext(refBand.Stats)
	composite := blendRuleBased(band, osc, imp, ctx, cfg.Regime)

	outcome := applyML(composite, band, osc, imp, ctx, cfg.ML)
	outcome.HorizonOverride = overridden

	damped := dampByAgreement(composite, band, osc, imp, cfg.Agreement)
	final := softNormalize(damped, cfg.SoftNormSpan)
	snapExtrema(final, ctx, refImp.Signal, cfg.SnapNudge)

	return &IndicatorSeries{
		ReferenceHorizon: refHorizon,
		HorizonWeights:   weights,
		BandUpper:        refBand.Stats.Upper,
		BandMid:          refBand.Stats.Mean,
		BandLower:        refBand.Stats.Lower,
		ImpulseLine:      refImp.Line,
		ImpulseSignal:    refImp.Signal,
		ImpulseHist:      refImp.Hist,
		FastLine:         refImp.Fast,
		SlowLine:         refImp.Slow,
		ScoreBand:        band,
		ScoreOscillator:  osc,
		ScoreImpulse:     imp,
		ScoreMomentum:    final,
		ML:               outcome,
	}, nil
}

func gateOf(ml *MLConfig) Gate {
	switch {
	case ml == nil:
		return GateAbsent
	case ml.Active():
		return GateApplied
	default:
		return GateBelowConfidence
	}
}
