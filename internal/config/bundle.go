package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/sawpanic/momentumscore/internal/algo/momentum"
	"github.com/sawpanic/momentumscore/internal/regime"
)

// bundleFile is the on-disk ML weight bundle produced by the training
// pipeline. Every field is optional; absent weights count as 0.
type bundleFile struct {
	Confidence     *float64                `json:"confidence" yaml:"confidence"`
	MinConfidence  *float64                `json:"minConfidence" yaml:"minConfidence"`
	Indicator      map[string]weightTriple `json:"indicator" yaml:"indicator"`
	Horizon        horizonMap              `json:"horizon" yaml:"horizon"`
	ApplyPerBar    *bool                   `json:"applyPerBar" yaml:"applyPerBar"`
	BucketFallback *string                 `json:"bucketFallback" yaml:"bucketFallback"`
}

type weightTriple struct {
	Band *float64 `json:"band" yaml:"band"`
	RSI  *float64 `json:"rsi" yaml:"rsi"`
	MACD *float64 `json:"macd" yaml:"macd"`
}

// horizonMap keeps horizon keys as raw text so that YAML integer keys and
// JSON string keys decode the same way.
type horizonMap map[string]float64

func (h *horizonMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("horizon must be a mapping, got %s", value.Tag)
	}
	out := make(horizonMap, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var w float64
		if err := value.Content[i+1].Decode(&w); err != nil {
			return fmt.Errorf("horizon %q: %w", value.Content[i].Value, err)
		}
		out[value.Content[i].Value] = w
	}
	*h = out
	return nil
}

// LoadMLBundle reads an ML weight bundle. Files ending in .json are decoded
// as JSON, anything else as YAML. Unknown bucket names and horizon keys that
// are not positive integers are skipped with a warning.
func LoadMLBundle(path string) (*momentum.MLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ML bundle: %w", err)
	}

	var raw bundleFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse ML bundle %s: %w", path, err)
	}
	return raw.toMLConfig(path), nil
}

func (b bundleFile) toMLConfig(source string) *momentum.MLConfig {
	ml := &momentum.MLConfig{
		MinConfidence: b.MinConfidence,
		ApplyPerBar:   b.ApplyPerBar,
	}
	if b.Confidence != nil {
		ml.Confidence = *b.Confidence
	} else {
		log.Warn().Str("bundle", source).Msg("ML bundle has no confidence, rule-based scoring will be used")
	}

	if len(b.Indicator) > 0 {
		ml.Indicator = make(regime.WeightTable, len(b.Indicator))
		for _, name := range sortedNames(b.Indicator) {
			bucket, ok := regime.ParseBucket(name)
			if !ok {
				log.Warn().Str("bundle", source).Str("bucket", name).Msg("Skipping unknown regime bucket")
				continue
			}
			t := b.Indicator[name]
			ml.Indicator[bucket] = regime.IndicatorWeights{
				Band: deref(t.Band),
				RSI:  deref(t.RSI),
				MACD: deref(t.MACD),
			}
		}
	}

	if len(b.Horizon) > 0 {
		ml.Horizon = make(map[int]float64, len(b.Horizon))
		for key, w := range b.Horizon {
			h, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil || h <= 0 {
				log.Warn().Str("bundle", source).Str("horizon", key).Msg("Skipping invalid horizon key")
				continue
			}
			ml.Horizon[h] = w
		}
	}

	if b.BucketFallback != nil && *b.BucketFallback != "" {
		if fb, ok := regime.ParseBucket(*b.BucketFallback); ok {
			ml.Fallback = &fb
		} else {
			log.Warn().Str("bundle", source).Str("bucket", *b.BucketFallback).Msg("Ignoring unknown fallback bucket")
		}
	}
	return ml
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func sortedNames(m map[string]weightTriple) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
