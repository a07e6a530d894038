package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sawpanic/momentumscore/internal/algo/momentum"
	"github.com/sawpanic/momentumscore/internal/regime"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverride(t *testing.T) {
	path := writeFile(t, "momentum.yaml", `
horizons: [10, 30]
horizon_blend_equal_fraction: 0.5
oscillator:
  adaptive_thresholds: false
  overbought: 75
agreement:
  min_factor: 0.8
`)
	o, err := LoadOverride(path)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 30}, o.Horizons)
	require.NotNil(t, o.Oscillator)
	require.NotNil(t, o.Oscillator.AdaptiveThresholds)
	assert.False(t, *o.Oscillator.AdaptiveThresholds)
	assert.Nil(t, o.Band)

	cfg, err := momentum.NewConfig(o)
	require.NoError(t, err)
	assert.Equal(t, 75.0, cfg.Oscillator.Overbought)
	assert.Equal(t, 30.0, cfg.Oscillator.Oversold)
	assert.Equal(t, 0.8, cfg.Agreement.MinFactor)
	assert.Equal(t, momentum.DefaultConfig().Band, cfg.Band)
}

func TestLoadOverride_TOML(t *testing.T) {
	path := writeFile(t, "momentum.toml", `
horizons = [5, 20, 80]
soft_norm_span = 20

[band]
squash_scale = 2.0

[regime]
cap_either = 0.5
`)
	o, err := LoadOverride(path)
	require.NoError(t, err)

	cfg, err := momentum.NewConfig(o)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 20, 80}, cfg.Horizons)
	assert.Equal(t, 20, cfg.SoftNormSpan)
	assert.Equal(t, 2.0, cfg.Band.SquashScale)
	assert.Equal(t, 0.5, cfg.Regime.CapEither)
	assert.Equal(t, 0.4, cfg.Regime.CapBoth)

	_, err = ParseOverrideTOML([]byte("span = 3\n"))
	assert.Error(t, err, "unknown keys are rejected")
}

func TestParseOverride_Errors(t *testing.T) {
	o, err := ParseOverride(nil)
	require.NoError(t, err)
	assert.Equal(t, momentum.Override{}, o)

	_, err = ParseOverride([]byte("horizns: [5]\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = LoadOverride(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMLBundle_JSON(t *testing.T) {
	path := writeFile(t, "bundle.json", `{
  "confidence": 0.82,
  "minConfidence": 0.7,
  "indicator": {
    "Trend": {"band": 0.2, "rsi": 0.3, "macd": 0.5},
    "range": {"band": 0.6, "rsi": 0.4},
    "sideways": {"band": 1}
  },
  "horizon": {"5": 0.5, "20": 0.5, "abc": 1, "-3": 1},
  "applyPerBar": false,
  "bucketFallback": "range"
}`)
	ml, err := LoadMLBundle(path)
	require.NoError(t, err)

	assert.Equal(t, 0.82, ml.Confidence)
	assert.Equal(t, 0.7, ml.Threshold())
	assert.True(t, ml.Active())
	assert.False(t, ml.PerBar())
	require.NotNil(t, ml.Fallback)
	assert.Equal(t, regime.Range, *ml.Fallback)

	assert.Len(t, ml.Indicator, 2, "unknown bucket skipped")
	assert.Equal(t, regime.IndicatorWeights{Band: 0.6, RSI: 0.4}, ml.Indicator[regime.Range])
	assert.Equal(t, 0.5, ml.Indicator[regime.Trend].MACD)
	assert.Equal(t, map[int]float64{5: 0.5, 20: 0.5}, ml.Horizon)
}

func TestLoadMLBundle_YAML(t *testing.T) {
	path := writeFile(t, "bundle.yaml", `
confidence: 0.65
indicator:
  extreme: {band: 0.7, rsi: 0.2, macd: 0.1}
  default: {band: 0.34, rsi: 0.33, macd: 0.33}
horizon:
  10: 1
  40: 3
bucketFallback: sideways
`)
	ml, err := LoadMLBundle(path)
	require.NoError(t, err)

	assert.True(t, ml.Active(), "default threshold is 0.6")
	assert.True(t, ml.PerBar())
	assert.Nil(t, ml.Fallback, "unknown fallback ignored")
	assert.Contains(t, ml.Indicator, regime.Default)
	assert.Contains(t, ml.Indicator, regime.Extreme)
	assert.Equal(t, map[int]float64{10: 1, 40: 3}, ml.Horizon)
}

func TestLoadMLBundle_MissingConfidenceDegrades(t *testing.T) {
	path := writeFile(t, "bundle.json", `{"indicator": {"trend": {"macd": 1}}}`)
	ml, err := LoadMLBundle(path)
	require.NoError(t, err)
	assert.False(t, ml.Active())
}

func TestLoadMLBundle_Malformed(t *testing.T) {
	_, err := LoadMLBundle(writeFile(t, "bundle.json", `{"confidence": `))
	assert.Error(t, err)

	_, err = LoadMLBundle(writeFile(t, "bundle.yaml", "horizon: [1, 2]\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	override := writeFile(t, "override.yaml", "soft_norm_span: 30\n")
	bundle := writeFile(t, "bundle.json", `{"confidence": 0.9, "indicator": {"default": {"band": 1}}}`)

	cfg, err := Load(override, bundle)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.SoftNormSpan)
	require.NotNil(t, cfg.ML)
	assert.True(t, cfg.ML.Active())

	cfg, err = Load("", "")
	require.NoError(t, err)
	assert.Equal(t, momentum.DefaultConfig(), cfg)

	bad := writeFile(t, "bad.yaml", "soft_norm_span: 0\n")
	_, err = Load(bad, "")
	assert.ErrorIs(t, err, momentum.ErrInvalidConfig)
}

func TestMarshalConfig(t *testing.T) {
	cfg := momentum.DefaultConfig()
	fb := regime.Extreme
	cfg.ML = &momentum.MLConfig{
		Confidence: 0.7,
		Indicator:  regime.WeightTable{regime.Trend: {MACD: 1}},
		Fallback:   &fb,
	}

	data, err := MarshalConfig(cfg)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, []interface{}{5, 10, 20, 40, 80, 160}, doc["horizons"])
	ml := doc["ml"].(map[string]interface{})
	assert.Equal(t, "extreme", ml["bucket_fallback"])
	assert.Contains(t, ml["indicator"], "trend")
}
