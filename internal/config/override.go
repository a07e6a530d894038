package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/sawpanic/momentumscore/internal/algo/momentum"
)

// LoadOverride reads a partial engine configuration. Files ending in .toml
// are decoded as TOML, anything else as YAML. Unknown keys are rejected so
// that typos do not silently fall back to defaults.
func LoadOverride(path string) (momentum.Override, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return momentum.Override{}, fmt.Errorf("failed to read config override: %w", err)
	}
	var o momentum.Override
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		o, err = ParseOverrideTOML(data)
	} else {
		o, err = ParseOverride(data)
	}
	if err != nil {
		return momentum.Override{}, fmt.Errorf("failed to parse config override %s: %w", path, err)
	}
	return o, nil
}

// ParseOverride decodes a YAML override document. An empty document is an
// empty override.
func ParseOverride(data []byte) (momentum.Override, error) {
	var o momentum.Override
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && !errors.Is(err, io.EOF) {
		return momentum.Override{}, err
	}
	return o, nil
}

// ParseOverrideTOML decodes a TOML override document.
func ParseOverrideTOML(data []byte) (momentum.Override, error) {
	var o momentum.Override
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&o); err != nil {
		return momentum.Override{}, err
	}
	return o, nil
}

// Load builds the effective configuration from an optional override file and
// an optional ML bundle file. Empty paths are skipped.
func Load(overridePath, bundlePath string) (momentum.Config, error) {
	var o momentum.Override
	if overridePath != "" {
		var err error
		if o, err = LoadOverride(overridePath); err != nil {
			return momentum.Config{}, err
		}
		log.Debug().Str("path", overridePath).Msg("Loaded config override")
	}
	if bundlePath != "" {
		ml, err := LoadMLBundle(bundlePath)
		if err != nil {
			return momentum.Config{}, err
		}
		o.ML = ml
		log.Debug().Str("path", bundlePath).
			Float64("confidence", ml.Confidence).
			Bool("active", ml.Active()).
			Msg("Loaded ML bundle")
	}

	cfg, err := momentum.NewConfig(o)
	if err != nil {
		return momentum.Config{}, fmt.Errorf("invalid momentum config: %w", err)
	}
	return cfg, nil
}

// MarshalConfig renders the effective configuration as YAML.
func MarshalConfig(cfg momentum.Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
