// Package config implements manifest loading for the runtime's non-credential
// settings (spec.md's ambient configuration layer): which provider adapters
// to wire up, their default models, and the agent loop's cycle/token limits.
// Loading follows the teacher-adjacent pattern in the example pack's
// config packages (gopkg.in/yaml.v3-tagged structs, a LoadConfig entry
// point, SetDefaults, Validate), and additionally schema-validates the raw
// document with github.com/santhosh-tekuri/jsonschema/v6 before unmarshal so
// a malformed manifest fails with a precise JSON-pointer path rather than a
// confusing yaml.v3 type error.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProviderConfig describes one provider adapter to wire into the engine.
type ProviderConfig struct {
	// Tag is the value an Agent Specification's default_provider names to
	// select this adapter.
	Tag string `yaml:"tag"`
	// Kind selects the adapter implementation ("anthropic" or "openai").
	Kind string `yaml:"kind"`
	// APIKeyEnv names the environment variable holding the credential; the
	// manifest itself never carries a raw API key.
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Model     string `yaml:"model,omitempty"`
	// RateLimitTPM bounds the adapter to a tokens-per-minute budget (0
	// disables limiting). Estimated from request size, not provider-reported
	// usage, so it is a coarse local safeguard rather than an exact quota.
	RateLimitTPM int `yaml:"rate_limit_tpm,omitempty"`
}

// LimitsConfig holds the agent loop limits read from the manifest. Loading
// parses and defaults them only; neither the engine nor cmd/demo passes them
// on to provider.Config, so they do not bound a run.
type LimitsConfig struct {
	MaxCycles       int `yaml:"max_cycles,omitempty"`
	ReasoningBudget int `yaml:"reasoning_budget,omitempty"`
	MaxTokens       int `yaml:"max_tokens,omitempty"`
}

// Manifest is the root configuration document.
type Manifest struct {
	Version   string           `yaml:"version"`
	Name      string           `yaml:"name,omitempty"`
	Providers []ProviderConfig `yaml:"providers"`
	Limits    LimitsConfig     `yaml:"limits,omitempty"`
}

// SetDefaults fills unset fields with the runtime's defaults.
func (m *Manifest) SetDefaults() {
	if m.Limits.MaxCycles <= 0 {
		m.Limits.MaxCycles = 64
	}
	if m.Limits.MaxTokens <= 0 {
		m.Limits.MaxTokens = 4096
	}
	for i := range m.Providers {
		if m.Providers[i].APIKeyEnv == "" {
			m.Providers[i].APIKeyEnv = defaultAPIKeyEnv(m.Providers[i].Kind)
		}
	}
}

func defaultAPIKeyEnv(kind string) string {
	switch kind {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// Validate checks the manifest's own invariants beyond what the JSON schema
// already rejects: provider tag uniqueness and a known adapter kind.
func (m *Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Providers))
	for _, p := range m.Providers {
		if p.Tag == "" {
			return fmt.Errorf("config: provider entry missing tag")
		}
		if _, dup := seen[p.Tag]; dup {
			return fmt.Errorf("config: duplicate provider tag %q", p.Tag)
		}
		seen[p.Tag] = struct{}{}
		switch p.Kind {
		case "anthropic", "openai":
		default:
			return fmt.Errorf("config: provider %q has unknown kind %q", p.Tag, p.Kind)
		}
	}
	return nil
}

// APIKey resolves p's credential from its configured environment variable.
func (p ProviderConfig) APIKey() (string, error) {
	key := os.Getenv(p.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("config: environment variable %q for provider %q is unset", p.APIKeyEnv, p.Tag)
	}
	return key, nil
}

// LoadFile loads and validates a manifest from a YAML file on disk.
func LoadFile(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return LoadBytes(raw)
}

// LoadBytes loads and validates a manifest from raw YAML bytes.
func LoadBytes(raw []byte) (*Manifest, error) {
	if err := ValidateSchema(raw); err != nil {
		return nil, fmt.Errorf("config: schema validation: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	m.SetDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
