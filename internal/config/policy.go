package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/grovelight/leafsense/internal/core/domain"
)

// PolicyFile is the optional YAML overlay for operator-tunable behavior
// that does not belong in env vars: decision thresholds and history bounds.
type PolicyFile struct {
	Decision domain.DecisionPolicy `yaml:"decision"`
	History  HistoryPolicy         `yaml:"history"`
}

type HistoryPolicy struct {
	Limit int `yaml:"limit"`
}

// LoadPolicyFile reads and parses the overlay. An empty path is not an
// error: it returns the zero value and callers fall back to defaults. A
// configured but unreadable or malformed file is an error; silently
// running with default thresholds against operator intent is worse than
// failing startup.
func LoadPolicyFile(path string) (PolicyFile, error) {
	if path == "" {
		return PolicyFile{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return PolicyFile{}, fmt.Errorf("read policy file: %w", err)
	}
	var pf PolicyFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return PolicyFile{}, fmt.Errorf("parse policy file: %w", err)
	}
	return pf, nil
}

// Apply merges the overlay into the loaded config and returns the decision
// policy to run with. Zero-valued overlay fields keep their defaults.
func (pf PolicyFile) Apply(cfg Config) (Config, domain.DecisionPolicy) {
	if pf.History.Limit > 0 {
		cfg.HistoryLimit = pf.History.Limit
	}
	return cfg, pf.Decision.Normalize()
}
