package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	decimal "github.com/shopspring/decimal"
)

func testModels() []ModelConfig {
	return []ModelConfig{
		{
			ID:           "gpt-4o",
			DisplayName:  "GPT-4o",
			Provider:     ProviderOpenAI,
			Capabilities: []Capability{CapabilityCodeGeneration, CapabilityVision, CapabilityStreaming},
			Performance:  Performance{Quality: 95, CostEfficiency: 70, AvgLatencyMs: 2500, Reliability: 98, UserSatisfaction: 92},
		},
		{
			ID:           "claude-sonnet",
			DisplayName:  "Claude Sonnet",
			Provider:     ProviderAnthropic,
			Capabilities: []Capability{CapabilityCodeGeneration, CapabilityStreaming},
			Performance:  Performance{Quality: 93, CostEfficiency: 75, AvgLatencyMs: 2200, Reliability: 97, UserSatisfaction: 94},
		},
	}
}

func TestRegistryGetModel(t *testing.T) {
	r := NewRegistry(testModels(), nil)

	m, err := r.GetModel("gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.DisplayName != "GPT-4o" {
		t.Fatalf("unexpected model: %+v", m)
	}

	if _, err := r.GetModel("nope"); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestRegistrySkipsInvalidAndDuplicateEntries(t *testing.T) {
	models := testModels()
	models = append(models,
		ModelConfig{ID: "gpt-4o", Provider: ProviderOpenAI}, // duplicate
		ModelConfig{ID: "", Provider: ProviderOpenAI},       // missing id
		ModelConfig{ID: "bad-score", Provider: ProviderOpenAI, Performance: Performance{Quality: 140}},
	)

	r := NewRegistry(models, nil)
	if r.Len() != 2 {
		t.Fatalf("expected 2 models after filtering, got %d", r.Len())
	}
}

func TestRegistryListByCapability(t *testing.T) {
	r := NewRegistry(testModels(), nil)

	vision := r.ListByCapability(CapabilityVision)
	if len(vision) != 1 || vision[0].ID != "gpt-4o" {
		t.Fatalf("unexpected vision models: %+v", vision)
	}

	code := r.ListByCapability(CapabilityCodeGeneration)
	if len(code) != 2 {
		t.Fatalf("expected 2 code models, got %d", len(code))
	}
}

func TestRegistryUpdatePerformanceSwapsSnapshot(t *testing.T) {
	r := NewRegistry(testModels(), nil)
	before := r.ListModels()

	if err := r.UpdatePerformance("gpt-4o", Performance{Quality: 90, CostEfficiency: 70, AvgLatencyMs: 2000, Reliability: 98, UserSatisfaction: 92}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Snapshot taken before the update is unchanged.
	if before[0].Performance.Quality != 95 {
		t.Fatalf("old snapshot mutated: %+v", before[0].Performance)
	}

	m, err := r.GetModel("gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Performance.Quality != 90 {
		t.Fatalf("expected updated quality, got %v", m.Performance.Quality)
	}

	if err := r.UpdatePerformance("nope", Performance{}); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yml")
	content := `
providers:
  - kind: openai
    base_url: https://api.openai.com/v1
    api_key_env: OPENAI_API_KEY
models:
  - id: gpt-4o-mini
    display_name: GPT-4o mini
    provider: openai
    capabilities: [code_generation, streaming]
    specializations: [speed, cost efficiency]
    pricing:
      input_per_million: "0.15"
      output_per_million: "0.60"
      currency: USD
    performance:
      quality: 82
      cost_efficiency: 95
      avg_latency_ms: 800
      reliability: 97
      user_satisfaction: 88
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	r, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, err := r.GetModel("gpt-4o-mini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Pricing.InputPerMillion.Equal(decimal.RequireFromString("0.15")) {
		t.Fatalf("unexpected input pricing: %s", m.Pricing.InputPerMillion)
	}
	if !m.HasSpecialization("speed") {
		t.Fatalf("expected speed specialization: %+v", m.Specializations)
	}

	p, ok := r.ProviderFor(ProviderOpenAI)
	if !ok || p.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("unexpected provider config: %+v", p)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile("does/not/exist.yml"); err == nil {
		t.Fatal("expected error for missing file")
	}

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yml")
	if err := os.WriteFile(empty, []byte("models: []\n"), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := LoadFromFile(empty); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}
