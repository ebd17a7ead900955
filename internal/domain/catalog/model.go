package catalog

import (
	"fmt"

	decimal "github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ProviderKind identifies the backend vendor family a model belongs to.
type ProviderKind string

const (
	ProviderOpenAI     ProviderKind = "openai"
	ProviderAnthropic  ProviderKind = "anthropic"
	ProviderGoogle     ProviderKind = "google"
	ProviderMistral    ProviderKind = "mistral"
	ProviderGroq       ProviderKind = "groq"
	ProviderOpenRouter ProviderKind = "openrouter"
	ProviderOllama     ProviderKind = "ollama"
	ProviderCustom     ProviderKind = "custom" // for any customer-provided API
)

// Capability is a hard feature flag a model either has or does not have.
type Capability string

const (
	CapabilityCodeGeneration  Capability = "code_generation"
	CapabilityMath            Capability = "math"
	CapabilityVision          Capability = "vision"
	CapabilityFunctionCalling Capability = "function_calling"
	CapabilityStreaming       Capability = "streaming"
	CapabilityWebSearch       Capability = "web_search"
	CapabilityCreativeWriting Capability = "creative_writing"
)

// Pricing holds the declared cost per one million tokens.
type Pricing struct {
	InputPerMillion  decimal.Decimal `json:"input_per_million" yaml:"input_per_million"`
	OutputPerMillion decimal.Decimal `json:"output_per_million" yaml:"output_per_million"`
	Currency         string          `json:"currency" yaml:"currency"` // "USD" (fixed if you only bill in USD)
}

// UnmarshalYAML decodes pricing amounts from YAML scalars.
// decimal.Decimal has no native yaml.v3 support, so amounts are read as
// strings and parsed exactly.
func (p *Pricing) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		InputPerMillion  string `yaml:"input_per_million"`
		OutputPerMillion string `yaml:"output_per_million"`
		Currency         string `yaml:"currency"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	var err error
	if raw.InputPerMillion != "" {
		if p.InputPerMillion, err = decimal.NewFromString(raw.InputPerMillion); err != nil {
			return fmt.Errorf("parse input_per_million: %w", err)
		}
	}
	if raw.OutputPerMillion != "" {
		if p.OutputPerMillion, err = decimal.NewFromString(raw.OutputPerMillion); err != nil {
			return fmt.Errorf("parse output_per_million: %w", err)
		}
	}
	p.Currency = raw.Currency
	return nil
}

// Performance is the observed performance snapshot for a model.
// All score fields are bounded to [0,100]; latency is an average in milliseconds.
type Performance struct {
	Quality          float64 `json:"quality" yaml:"quality"`
	CostEfficiency   float64 `json:"cost_efficiency" yaml:"cost_efficiency"`
	AvgLatencyMs     float64 `json:"avg_latency_ms" yaml:"avg_latency_ms"`
	Reliability      float64 `json:"reliability" yaml:"reliability"`
	UserSatisfaction float64 `json:"user_satisfaction" yaml:"user_satisfaction"`
}

// ModelConfig captures identity and static facts about one backend model.
// Entries are maintained out-of-band (catalog file, periodic refresh) and are
// read-only during request processing.
type ModelConfig struct {
	ID              string       `json:"id" yaml:"id"`
	DisplayName     string       `json:"display_name" yaml:"display_name"`
	Provider        ProviderKind `json:"provider" yaml:"provider"`
	Capabilities    []Capability `json:"capabilities" yaml:"capabilities"`
	Specializations []string     `json:"specializations" yaml:"specializations"`
	Pricing         Pricing      `json:"pricing" yaml:"pricing"`
	Performance     Performance  `json:"performance" yaml:"performance"`
}

// HasCapability reports whether the model declares the given capability.
func (m *ModelConfig) HasCapability(cap Capability) bool {
	for _, c := range m.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// HasSpecialization reports whether the model declares the given free-text specialization tag.
func (m *ModelConfig) HasSpecialization(tag string) bool {
	for _, s := range m.Specializations {
		if s == tag {
			return true
		}
	}
	return false
}

// Validate checks identity and performance bounds.
func (m *ModelConfig) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("model id is required")
	}
	if m.Provider == "" {
		return fmt.Errorf("model %q: provider is required", m.ID)
	}
	for name, score := range map[string]float64{
		"quality":           m.Performance.Quality,
		"cost_efficiency":   m.Performance.CostEfficiency,
		"reliability":       m.Performance.Reliability,
		"user_satisfaction": m.Performance.UserSatisfaction,
	} {
		if score < 0 || score > 100 {
			return fmt.Errorf("model %q: %s score %v out of range [0,100]", m.ID, name, score)
		}
	}
	if m.Performance.AvgLatencyMs < 0 {
		return fmt.Errorf("model %q: avg_latency_ms must not be negative", m.ID)
	}
	return nil
}
