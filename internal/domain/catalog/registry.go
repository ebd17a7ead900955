// Package catalog provides the read-only model registry consumed by the
// routing and ensemble engine. Mutations happen out-of-band (catalog file
// reload, periodic performance refresh); readers always see a consistent
// snapshot and never block on updates.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"apex-server/router-api/internal/infrastructure/logger"
)

var ErrModelNotFound = errors.New("model not found in catalog")

// ProviderConfig describes how to reach one backend vendor.
type ProviderConfig struct {
	Kind      ProviderKind `json:"kind" yaml:"kind"`
	BaseURL   string       `json:"base_url" yaml:"base_url"`
	APIKeyEnv string       `json:"api_key_env" yaml:"api_key_env"` // env var holding the key, never the secret itself
}

// catalogFile is the on-disk shape of the model catalog.
type catalogFile struct {
	Providers []ProviderConfig `yaml:"providers"`
	Models    []ModelConfig    `yaml:"models"`
}

// snapshot is an immutable view of the catalog. Replaced wholesale on update.
type snapshot struct {
	models    []ModelConfig
	byID      map[string]*ModelConfig
	providers map[ProviderKind]ProviderConfig
}

// Registry is the queryable catalog of available backend models.
// Reads are lock-free snapshot reads; updates swap the snapshot atomically.
type Registry struct {
	current atomic.Pointer[snapshot]
}

// NewRegistry builds a registry from a static model list. Duplicate ids and
// invalid entries are skipped with a warning, mirroring catalog file loading.
func NewRegistry(models []ModelConfig, providers []ProviderConfig) *Registry {
	r := &Registry{}
	r.replace(models, providers)
	return r
}

// LoadFromFile reads the YAML catalog and builds a registry from it.
func LoadFromFile(path string) (*Registry, error) {
	r := &Registry{}
	if err := r.Reload(path); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the catalog file and swaps the snapshot in one step.
// In-flight readers keep the snapshot they started with.
func (r *Registry) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read model catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse model catalog: %w", err)
	}
	if len(file.Models) == 0 {
		return fmt.Errorf("model catalog %q contains no models", path)
	}

	r.replace(file.Models, file.Providers)
	return nil
}

func (r *Registry) replace(models []ModelConfig, providers []ProviderConfig) {
	log := logger.GetLogger()

	snap := &snapshot{
		models:    make([]ModelConfig, 0, len(models)),
		byID:      make(map[string]*ModelConfig, len(models)),
		providers: make(map[ProviderKind]ProviderConfig, len(providers)),
	}

	for _, m := range models {
		if err := m.Validate(); err != nil {
			log.Warn().Err(err).Msg("skipping invalid catalog entry")
			continue
		}
		if _, exists := snap.byID[m.ID]; exists {
			log.Warn().Str("model_id", m.ID).Msg("skipping duplicate catalog entry")
			continue
		}
		snap.models = append(snap.models, m)
		snap.byID[m.ID] = &snap.models[len(snap.models)-1]
	}

	for _, p := range providers {
		snap.providers[p.Kind] = p
	}

	r.current.Store(snap)
}

// ListModels returns all catalog models in declaration order.
// The returned slice is a copy; callers may not mutate registry state through it.
func (r *Registry) ListModels() []ModelConfig {
	snap := r.current.Load()
	out := make([]ModelConfig, len(snap.models))
	copy(out, snap.models)
	return out
}

// GetModel returns the model with the given id or ErrModelNotFound.
func (r *Registry) GetModel(id string) (ModelConfig, error) {
	snap := r.current.Load()
	if m, ok := snap.byID[id]; ok {
		return *m, nil
	}
	return ModelConfig{}, fmt.Errorf("%w: %s", ErrModelNotFound, id)
}

// ListByCapability returns all models declaring the capability, in declaration order.
func (r *Registry) ListByCapability(cap Capability) []ModelConfig {
	snap := r.current.Load()
	out := make([]ModelConfig, 0, len(snap.models))
	for _, m := range snap.models {
		if m.HasCapability(cap) {
			out = append(out, m)
		}
	}
	return out
}

// ProviderFor returns the provider config for a kind, if declared.
func (r *Registry) ProviderFor(kind ProviderKind) (ProviderConfig, bool) {
	snap := r.current.Load()
	p, ok := snap.providers[kind]
	return p, ok
}

// Providers returns all declared provider configs.
func (r *Registry) Providers() []ProviderConfig {
	snap := r.current.Load()
	out := make([]ProviderConfig, 0, len(snap.providers))
	for _, p := range snap.providers {
		out = append(out, p)
	}
	return out
}

// UpdatePerformance replaces the performance snapshot of one model.
// Used by the periodic refresh job; no-op if the model is unknown.
func (r *Registry) UpdatePerformance(id string, perf Performance) error {
	old := r.current.Load()
	if _, ok := old.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}

	models := make([]ModelConfig, len(old.models))
	copy(models, old.models)
	for i := range models {
		if models[i].ID == id {
			models[i].Performance = perf
			if err := models[i].Validate(); err != nil {
				return err
			}
			break
		}
	}

	providers := make([]ProviderConfig, 0, len(old.providers))
	for _, p := range old.providers {
		providers = append(providers, p)
	}
	r.replace(models, providers)
	return nil
}

// Len returns the number of models in the current snapshot.
func (r *Registry) Len() int {
	return len(r.current.Load().models)
}
