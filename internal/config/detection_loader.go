package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadDetectionFile loads detector thresholds from a YAML file using Koanf.
// The file overrides the built-in defaults field by field, so a partial file
// tuning a single threshold is valid.
//
// Error cases:
//   - File not found or cannot be read
//   - Invalid YAML syntax
//   - Threshold out of valid range (ConfigError from Validate)
func LoadDetectionFile(filepath string) (*DetectionConfig, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(filepath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load detection config from %q: %w", filepath, err)
	}

	// Start from defaults so an absent key keeps its documented value
	cfg := DefaultDetectionConfig()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse detection config from %q: %w", filepath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("detection config validation failed for %q: %w", filepath, err)
	}

	return cfg, nil
}
