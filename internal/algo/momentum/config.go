package momentum

import (
	"fmt"
	"math"
	"sort"

	"github.com/sawpanic/momentumscore/internal/domain/indicators"
	"github.com/sawpanic/momentumscore/internal/regime"
)

// DefaultMinConfidence gates the ML layer when a bundle carries no threshold.
const DefaultMinConfidence = 0.6

// Config holds every tunable of the engine. Build it with DefaultConfig or
// NewConfig; treat it as immutable once built.
type Config struct {
	Horizons                  []int   `yaml:"horizons" json:"horizons"`
	WeightByInverseHorizon    bool    `yaml:"weight_by_inverse_horizon" json:"weight_by_inverse_horizon"`
	HorizonBlendEqualFraction float64 `yaml:"horizon_blend_equal_fraction" json:"horizon_blend_equal_fraction"`

	Band       indicators.BandParams       `yaml:"band" json:"band"`
	Oscillator indicators.OscillatorParams `yaml:"oscillator" json:"oscillator"`
	Impulse    indicators.ImpulseParams    `yaml:"impulse" json:"impulse"`
	Regime     RegimeCaps                  `yaml:"regime" json:"regime"`
	Agreement  AgreementParams             `yaml:"agreement" json:"agreement"`

	SoftNormSpan int     `yaml:"soft_norm_span" json:"soft_norm_span"`
	SnapNudge    float64 `yaml:"snap_nudge" json:"snap_nudge"`

	ML *MLConfig `yaml:"ml,omitempty" json:"ml,omitempty"`
}

// RegimeCaps limits the reversion weight during strong trends and wide bands.
type RegimeCaps struct {
	TrendStrengthThreshold float64 `yaml:"trend_strength_threshold" json:"trend_strength_threshold"`
	BandwidthThreshold     float64 `yaml:"bandwidth_threshold" json:"bandwidth_threshold"`
	CapBoth                float64 `yaml:"cap_both" json:"cap_both"`
	CapEither              float64 `yaml:"cap_either" json:"cap_either"`
}

// AgreementParams controls sign-agreement damping.
type AgreementParams struct {
	MinFactor float64 `yaml:"min_factor" json:"min_factor"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

// MLConfig is an externally trained, confidence-scored weight bundle.
type MLConfig struct {
	Confidence    float64            `yaml:"confidence" json:"confidence"`
	MinConfidence *float64           `yaml:"min_confidence,omitempty" json:"min_confidence,omitempty"`
	Indicator     regime.WeightTable `yaml:"indicator,omitempty" json:"indicator,omitempty"`
	Horizon       map[int]float64    `yaml:"horizon,omitempty" json:"horizon,omitempty"`
	ApplyPerBar   *bool              `yaml:"apply_per_bar,omitempty" json:"apply_per_bar,omitempty"`
	Fallback      *regime.Bucket     `yaml:"bucket_fallback,omitempty" json:"bucket_fallback,omitempty"`
}

// Threshold returns the minimum confidence, defaulting to 0.6.
func (m *MLConfig) Threshold() float64 {
	if m == nil || m.MinConfidence == nil {
		return DefaultMinConfidence
	}
	return *m.MinConfidence
}

// PerBar reports whether buckets are resolved bar by bar (the default).
func (m *MLConfig) PerBar() bool {
	if m == nil || m.ApplyPerBar == nil {
		return true
	}
	return *m.ApplyPerBar
}

// Active reports whether the bundle is present and clears its confidence gate.
func (m *MLConfig) Active() bool {
	if m == nil {
		return false
	}
	if math.IsNaN(m.Confidence) || math.IsInf(m.Confidence, 0) {
		return false
	}
	return m.Confidence >= m.Threshold()
}

// DefaultConfig returns the fully populated default configuration.
func DefaultConfig() Config {
	return Config{
		Horizons:                  []int{5, 10, 20, 40, 80, 160},
		WeightByInverseHorizon:    true,
		HorizonBlendEqualFraction: 0.35,
		Band: indicators.BandParams{
			SquashScale:       1.5,
			ExtremityBoost:    0.25,
			VolatilityDamping: 2.0,
		},
		Oscillator: indicators.OscillatorParams{
			SlopeScale:         4.0,
			AdaptiveThresholds: true,
			Overbought:         70,
			Oversold:           30,
			MaxShift:           10,
			ShiftGain:          40,
		},
		Impulse: indicators.ImpulseParams{
			SlowRatio:     4,
			ImpulseScale:  1.0,
			AccelScale:    0.5,
			DistanceScale: 2.0,
			EdgeDecay:     0.5,
		},
		Regime: RegimeCaps{
			TrendStrengthThreshold: 0.15,
			BandwidthThreshold:     0.10,
			CapBoth:                0.40,
			CapEither:              0.60,
		},
		Agreement: AgreementParams{
			MinFactor: 0.70,
			Threshold: 5,
		},
		SoftNormSpan: 50,
		SnapNudge:    10,
	}
}

// Override is a partial configuration. Nil fields keep their defaults.
type Override struct {
	Horizons                  []int    `yaml:"horizons" toml:"horizons"`
	WeightByInverseHorizon    *bool    `yaml:"weight_by_inverse_horizon" toml:"weight_by_inverse_horizon"`
	HorizonBlendEqualFraction *float64 `yaml:"horizon_blend_equal_fraction" toml:"horizon_blend_equal_fraction"`

	Band       *BandOverride       `yaml:"band" toml:"band"`
	Oscillator *OscillatorOverride `yaml:"oscillator" toml:"oscillator"`
	Impulse    *ImpulseOverride    `yaml:"impulse" toml:"impulse"`
	Regime     *RegimeOverride     `yaml:"regime" toml:"regime"`
	Agreement  *AgreementOverride  `yaml:"agreement" toml:"agreement"`

	SoftNormSpan *int     `yaml:"soft_norm_span" toml:"soft_norm_span"`
	SnapNudge    *float64 `yaml:"snap_nudge" toml:"snap_nudge"`

	ML *MLConfig `yaml:"-" toml:"-"`
}

type BandOverride struct {
	SquashScale       *float64 `yaml:"squash_scale" toml:"squash_scale"`
	ExtremityBoost    *float64 `yaml:"extremity_boost" toml:"extremity_boost"`
	VolatilityDamping *float64 `yaml:"volatility_damping" toml:"volatility_damping"`
}

type OscillatorOverride struct {
	SlopeScale         *float64 `yaml:"slope_scale" toml:"slope_scale"`
	AdaptiveThresholds *bool    `yaml:"adaptive_thresholds" toml:"adaptive_thresholds"`
	Overbought         *float64 `yaml:"overbought" toml:"overbought"`
	Oversold           *float64 `yaml:"oversold" toml:"oversold"`
	MaxShift           *float64 `yaml:"max_shift" toml:"max_shift"`
	ShiftGain          *float64 `yaml:"shift_gain" toml:"shift_gain"`
}

type ImpulseOverride struct {
	SlowRatio     *int     `yaml:"slow_ratio" toml:"slow_ratio"`
	ImpulseScale  *float64 `yaml:"impulse_scale" toml:"impulse_scale"`
	AccelScale    *float64 `yaml:"accel_scale" toml:"accel_scale"`
	DistanceScale *float64 `yaml:"distance_scale" toml:"distance_scale"`
	EdgeDecay     *float64 `yaml:"edge_decay" toml:"edge_decay"`
}

type RegimeOverride struct {
	TrendStrengthThreshold *float64 `yaml:"trend_strength_threshold" toml:"trend_strength_threshold"`
	BandwidthThreshold     *float64 `yaml:"bandwidth_threshold" toml:"bandwidth_threshold"`
	CapBoth                *float64 `yaml:"cap_both" toml:"cap_both"`
	CapEither              *float64 `yaml:"cap_either" toml:"cap_either"`
}

type AgreementOverride struct {
	MinFactor *float64 `yaml:"min_factor" toml:"min_factor"`
	Threshold *float64 `yaml:"threshold" toml:"threshold"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// NewConfig merges o onto DefaultConfig field by field and validates the
// result.
func NewConfig(o Override) (Config, error) {
	cfg := DefaultConfig()

	if o.Horizons != nil {
		cfg.Horizons = append([]int(nil), o.Horizons...)
	}
	set(&cfg.WeightByInverseHorizon, o.WeightByInverseHorizon)
	set(&cfg.HorizonBlendEqualFraction, o.HorizonBlendEqualFraction)

	if b := o.Band; b != nil {
		set(&cfg.Band.SquashScale, b.SquashScale)
		set(&cfg.Band.ExtremityBoost, b.ExtremityBoost)
		set(&cfg.Band.VolatilityDamping, b.VolatilityDamping)
	}
	if r := o.Oscillator; r != nil {
		set(&cfg.Oscillator.SlopeScale, r.SlopeScale)
		set(&cfg.Oscillator.AdaptiveThresholds, r.AdaptiveThresholds)
		set(&cfg.Oscillator.Overbought, r.Overbought)
		set(&cfg.Oscillator.Oversold, r.Oversold)
		set(&cfg.Oscillator.MaxShift, r.MaxShift)
		set(&cfg.Oscillator.ShiftGain, r.ShiftGain)
	}
	if m := o.Impulse; m != nil {
		set(&cfg.Impulse.SlowRatio, m.SlowRatio)
		set(&cfg.Impulse.ImpulseScale, m.ImpulseScale)
		set(&cfg.Impulse.AccelScale, m.AccelScale)
		set(&cfg.Impulse.DistanceScale, m.DistanceScale)
		set(&cfg.Impulse.EdgeDecay, m.EdgeDecay)
	}
	if g := o.Regime; g != nil {
		set(&cfg.Regime.TrendStrengthThreshold, g.TrendStrengthThreshold)
		set(&cfg.Regime.BandwidthThreshold, g.BandwidthThreshold)
		set(&cfg.Regime.CapBoth, g.CapBoth)
		set(&cfg.Regime.CapEither, g.CapEither)
	}
	if a := o.Agreement; a != nil {
		set(&cfg.Agreement.MinFactor, a.MinFactor)
		set(&cfg.Agreement.Threshold, a.Threshold)
	}
	set(&cfg.SoftNormSpan, o.SoftNormSpan)
	set(&cfg.SnapNudge, o.SnapNudge)
	cfg.ML = o.ML

	cfg.Horizons = sanitizeHorizons(cfg.Horizons)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// sanitizeHorizons sorts ascending and drops duplicates.
func sanitizeHorizons(h []int) []int {
	out := append([]int(nil), h...)
	sort.Ints(out)
	j := 0
	for i, v := range out {
		if i > 0 && v == out[j-1] {
			continue
		}
		out[j] = v
		j++
	}
	return out[:j]
}

// Validate checks value ranges. An empty horizon set is valid and yields
// empty output.
func (c Config) Validate() error {
	for _, h := range c.Horizons {
		if h <= 0 {
			return fmt.Errorf("%w: horizon %d must be positive", ErrInvalidConfig, h)
		}
	}
	checks := []struct {
		name   string
		v      float64
		lo, hi float64
	}{
		{"horizon_blend_equal_fraction", c.HorizonBlendEqualFraction, 0, 1},
		{"regime.cap_both", c.Regime.CapBoth, 0, 1},
		{"regime.cap_either", c.Regime.CapEither, 0, 1},
		{"agreement.min_factor", c.Agreement.MinFactor, 0, 1},
	}
	for _, chk := range checks {
		if math.IsNaN(chk.v) || chk.v < chk.lo || chk.v > chk.hi {
			return fmt.Errorf("%w: %s=%v outside [%v,%v]", ErrInvalidConfig, chk.name, chk.v, chk.lo, chk.hi)
		}
	}

	positive := map[string]float64{
		"band.squash_scale":      c.Band.SquashScale,
		"oscillator.slope_scale": c.Oscillator.SlopeScale,
		"impulse.impulse_scale":  c.Impulse.ImpulseScale,
		"impulse.accel_scale":    c.Impulse.AccelScale,
		"impulse.distance_scale": c.Impulse.DistanceScale,
	}
	for _, name := range sortedKeys(positive) {
		if v := positive[name]; !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s=%v must be positive", ErrInvalidConfig, name, v)
		}
	}

	if c.Impulse.SlowRatio < 1 {
		return fmt.Errorf("%w: impulse.slow_ratio=%d must be at least 1", ErrInvalidConfig, c.Impulse.SlowRatio)
	}
	if c.SoftNormSpan < 1 {
		return fmt.Errorf("%w: soft_norm_span=%d must be at least 1", ErrInvalidConfig, c.SoftNormSpan)
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReferenceHorizon returns the middle horizon of the sorted set, or 0 when
// there are none.
func (c Config) ReferenceHorizon() int {
	h := sanitizeHorizons(c.Horizons)
	if len(h) == 0 {
		return 0
	}
	return h[(len(h)-1)/2]
}
