package momentum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/momentumscore/internal/domain/indicators"
	"github.com/sawpanic/momentumscore/internal/regime"
)

func nan() float64 { return math.NaN() }

func sum(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s
}

func TestRuleHorizonWeights(t *testing.T) {
	horizons := []int{5, 10, 20, 40, 80, 160}

	for _, frac := range []float64{0, 0.35, 1} {
		w := RuleHorizonWeights(horizons, true, frac)
		require.Len(t, w, len(horizons))
		assert.InDelta(t, 1.0, sum(w), 1e-9, "fraction %v", frac)
	}

	inv := RuleHorizonWeights(horizons, true, 0)
	for i := 1; i < len(inv); i++ {
		assert.Greater(t, inv[i-1], inv[i], "short horizons weigh more")
	}
	assert.InDelta(t, 2*inv[1], inv[0], 1e-12)

	for _, w := range RuleHorizonWeights(horizons, true, 1) {
		assert.InDelta(t, 1.0/6, w, 1e-12)
	}
	for _, w := range RuleHorizonWeights(horizons, false, 0) {
		assert.InDelta(t, 1.0/6, w, 1e-12)
	}
	assert.Empty(t, RuleHorizonWeights(nil, true, 0.35))
}

func TestOverrideHorizonWeights(t *testing.T) {
	horizons := []int{5, 10, 20}

	w, ok := OverrideHorizonWeights(horizons, map[int]float64{5: 2, 20: 2, 999: 5})
	require.True(t, ok)
	assert.Equal(t, []float64{0.5, 0, 0.5}, w)

	w, ok = OverrideHorizonWeights(horizons, map[int]float64{5: -1, 10: nan(), 20: 1})
	require.True(t, ok)
	assert.Equal(t, []float64{0, 0, 1}, w)

	_, ok = OverrideHorizonWeights(horizons, map[int]float64{5: 0, 10: 0})
	assert.False(t, ok, "all-zero override is ignored")
	_, ok = OverrideHorizonWeights(horizons, nil)
	assert.False(t, ok)
}

func TestHorizonWeights_OverrideOnlyWhenGated(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Horizons = []int{5, 10, 20}
	rule := RuleHorizonWeights(cfg.Horizons, true, cfg.HorizonBlendEqualFraction)

	cfg.ML = &MLConfig{Confidence: 0.9, Horizon: map[int]float64{10: 1}}
	w, overridden := HorizonWeights(cfg)
	assert.True(t, overridden)
	assert.Equal(t, []float64{0, 1, 0}, w)

	cfg.ML.Confidence = 0.1
	w, overridden = HorizonWeights(cfg)
	assert.False(t, overridden)
	assert.Equal(t, rule, w)

	cfg.ML = &MLConfig{Confidence: 0.9, Horizon: map[int]float64{10: 0}}
	w, overridden = HorizonWeights(cfg)
	assert.False(t, overridden)
	assert.Equal(t, rule, w)
}

func TestReversionWeight(t *testing.T) {
	caps := DefaultConfig().Regime
	tests := []struct {
		name string
		ctx  regime.Context
		want float64
	}{
		{"inside one sigma", regime.Context{Z: 0.8}, 0},
		{"linear ramp", regime.Context{Z: -1.5}, 0.5},
		{"saturates", regime.Context{Z: 3}, 1},
		{"strong trend", regime.Context{Z: 3, TrendStrength: 0.5}, 0.6},
		{"wide bands", regime.Context{Z: 3, Bandwidth: 0.2}, 0.6},
		{"both", regime.Context{Z: 3, TrendStrength: 0.5, Bandwidth: 0.2}, 0.4},
		{"cap above weight", regime.Context{Z: 1.3, TrendStrength: 0.5, Bandwidth: 0.2}, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ReversionWeight(tt.ctx, caps), 1e-12)
		})
	}
}

func TestAgreement(t *testing.T) {
	assert.InDelta(t, 1.0, Agreement(40, 20, 10, 5), 1e-12)
	assert.InDelta(t, 1.0, Agreement(-40, -20, -10, 5), 1e-12)
	assert.InDelta(t, 1.0/3, Agreement(40, -20, 10, 5), 1e-12)
	assert.InDelta(t, 2.0/3, Agreement(40, 3, 10, 5), 1e-12, "inside the threshold counts as neutral")
	assert.InDelta(t, 0.0, Agreement(1, -1, 4, 5), 1e-12)
}

func TestDampByAgreement(t *testing.T) {
	p := AgreementParams{MinFactor: 0.7, Threshold: 5}
	out := dampByAgreement(
		[]float64{50, 50},
		[]float64{40, 40},
		[]float64{20, 1},
		[]float64{10, -10},
		p,
	)
	assert.InDelta(t, 50.0, out[0], 1e-12)
	assert.InDelta(t, 50*0.7, out[1], 1e-12)
}

func TestSoftNormalize(t *testing.T) {
	out := softNormalize([]float64{0, 0, 0}, 50)
	assert.Equal(t, []float64{0, 0, 0}, out)

	out = softNormalize([]float64{10, 10, 10, 10}, 50)
	want := 100 * math.Tanh(1/softNormDivisor)
	for _, v := range out {
		assert.InDelta(t, want, v, 1e-9)
	}

	quiet := softNormalize([]float64{1, -2, 1.5, -1}, 5)
	loud := softNormalize([]float64{100, -200, 150, -100}, 5)
	assert.InDeltaSlice(t, quiet, loud, 1e-9, "scale invariant")
}

func TestSnapDirection(t *testing.T) {
	assert.Equal(t, 1.0, SnapDirection(0.05, 0.1, 0.2))
	assert.Equal(t, -1.0, SnapDirection(0.95, -0.1, -0.2))
	assert.Equal(t, 0.0, SnapDirection(0.05, -0.1, 0.2), "mean still falling")
	assert.Equal(t, 0.0, SnapDirection(0.10, 0.1, 0.2), "boundary is not extreme")
	assert.Equal(t, 0.0, SnapDirection(0.5, 1, 1))
}

func flatContext(n int) regime.Series {
	return regime.BuildContext(indicators.ComputeBandStats(constantPrices(n, 100), 20))
}

func TestApplyML_PerBarResolution(t *testing.T) {
	n := 4
	ctx := flatContext(n)
	band := []float64{10, 20, 30, 40}
	osc := []float64{-5, -5, -5, -5}
	imp := []float64{1, 2, 3, 4}
	trend := regime.Trend

	tests := []struct {
		name    string
		ml      *MLConfig
		want    []float64
		resolve regime.Resolution
	}{
		{
			name:    "bucket",
			ml:      &MLConfig{Confidence: 1, Indicator: regime.WeightTable{regime.Range: {Band: 2}}},
			want:    band,
			resolve: regime.ResolvedBucket,
		},
		{
			name: "fallback",
			ml: &MLConfig{
				Confidence: 1,
				Indicator:  regime.WeightTable{regime.Trend: {MACD: 1}},
				Fallback:   &trend,
			},
			want:    imp,
			resolve: regime.ResolvedFallback,
		},
		{
			name: "default",
			ml: &MLConfig{
				Confidence: 1,
				Indicator:  regime.WeightTable{regime.Trend: {MACD: 1}, regime.Default: {RSI: 1}},
			},
			want:    osc,
			resolve: regime.ResolvedDefault,
		},
		{
			name:    "unresolved keeps rule-based",
			ml:      &MLConfig{Confidence: 1, Indicator: regime.WeightTable{regime.Trend: {MACD: 1}}},
			want:    []float64{7, 7, 7, 7},
			resolve: regime.Unresolved,
		},
		{
			name:    "all-zero entry is unusable",
			ml:      &MLConfig{Confidence: 1, Indicator: regime.WeightTable{regime.Range: {}}},
			want:    []float64{7, 7, 7, 7},
			resolve: regime.Unresolved,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composite := []float64{7, 7, 7, 7}
			out := applyML(composite, band, osc, imp, ctx, tt.ml)

			assert.Equal(t, GateApplied, out.Gate)
			assert.True(t, out.PerBar)
			assert.InDeltaSlice(t, tt.want, composite, 1e-12)
			assert.Equal(t, n, out.BucketCounts[regime.Range])
			assert.Equal(t, n, out.ResolutionCounts[tt.resolve])
		})
	}
}

func TestApplyML_LastBarMode(t *testing.T) {
	ctx := flatContext(3)
	perBar := false
	composite := []float64{7, 7, 7}
	ml := &MLConfig{
		Confidence:  0.7,
		ApplyPerBar: &perBar,
		Indicator:   regime.WeightTable{regime.Range: {Band: 0.5, MACD: 0.5}},
	}

	out := applyML(composite, []float64{10, 20, 30}, []float64{0, 0, 0}, []float64{30, 20, 10}, ctx, ml)
	assert.False(t, out.PerBar)
	assert.InDeltaSlice(t, []float64{20, 20, 20}, composite, 1e-12)
	assert.Equal(t, 3, out.ResolutionCounts[regime.ResolvedBucket])
}

func TestApplyML_GateLeavesCompositeAlone(t *testing.T) {
	ctx := flatContext(2)
	composite := []float64{7, 7}
	table := regime.WeightTable{regime.Default: {Band: 1}}

	out := applyML(composite, []float64{1, 1}, []float64{1, 1}, []float64{1, 1}, ctx, nil)
	assert.Equal(t, GateAbsent, out.Gate)
	out = applyML(composite, []float64{1, 1}, []float64{1, 1}, []float64{1, 1}, ctx, &MLConfig{Confidence: 0.2, Indicator: table})
	assert.Equal(t, GateBelowConfidence, out.Gate)
	assert.Nil(t, out.ResolutionCounts)
	assert.Equal(t, []float64{7, 7}, composite)
}
