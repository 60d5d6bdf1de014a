package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Target is one (providers, source) combination the scheduler collects each
// cycle. Combinations fail independently; one timing out does not abort the
// others.
type Target struct {
	Providers []string `yaml:"providers"`
	Source    string   `yaml:"source"`
	// Cost enables cost collection for this target in addition to usage.
	Cost bool `yaml:"cost,omitempty"`
}

// TargetsFile is the YAML document declaring collection targets, the
// collector command, and the environment allow-list forwarded to it.
type TargetsFile struct {
	// Collector is the collector argv prefix, e.g. ["quota-collector"].
	Collector []string `yaml:"collector"`
	// EnvAllowlist names environment variables forwarded to the collector;
	// entries ending in "*" match by prefix.
	EnvAllowlist []string `yaml:"envAllowlist"`
	Targets      []Target `yaml:"targets"`
}

// LoadTargets reads and validates a targets file.
func LoadTargets(path string) (*TargetsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets file: %w", err)
	}

	var file TargetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse targets file: %w", err)
	}

	for i, target := range file.Targets {
		if target.Source == "" {
			return nil, fmt.Errorf("target %d missing source", i)
		}
		if len(target.Providers) == 0 {
			return nil, fmt.Errorf("target %d missing providers", i)
		}
	}

	return &file, nil
}
