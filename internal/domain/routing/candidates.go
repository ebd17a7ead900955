package routing

import (
	"apex-server/router-api/internal/domain/catalog"
	"apex-server/router-api/internal/utils/functional"
)

// Preferences carries caller-supplied routing constraints and biases.
type Preferences struct {
	// PreferredModels short-circuits all later filters when at least one
	// preferred id is present in the pool.
	PreferredModels []string `json:"preferred_models,omitempty"`
	ExcludedModels  []string `json:"excluded_models,omitempty"`
	// RequiredCapabilities are correctness-hard: a model lacking one is
	// never eligible, even if that empties the pool.
	RequiredCapabilities []catalog.Capability `json:"required_capabilities,omitempty"`
	PrioritizeCost       bool                 `json:"prioritize_cost,omitempty"`
	PrioritizeSpeed      bool                 `json:"prioritize_speed,omitempty"`
}

// Complexity regime boundaries and the quality bar used by fallbacks.
const (
	highComplexityThreshold = 0.7
	lowComplexityThreshold  = 0.3
	highQualityBar          = 90
	fastLatencyMs           = 1000
)

// intentCapabilities maps intent categories to the capability a candidate
// must declare. Categories absent from the map apply no intent filter.
var intentCapabilities = map[IntentCategory]catalog.Capability{
	IntentCodeGeneration:  catalog.CapabilityCodeGeneration,
	IntentCodeReview:      catalog.CapabilityCodeGeneration,
	IntentDebugging:       catalog.CapabilityCodeGeneration,
	IntentMath:            catalog.CapabilityMath,
	IntentCreativeWriting: catalog.CapabilityCreativeWriting,
	IntentResearch:        catalog.CapabilityWebSearch,
}

// SelectCandidates narrows the full model list down to candidates compatible
// with the intent, the complexity regime and the caller's constraints.
//
// It never returns an empty list: every soft filter that would empty the
// pool is skipped, and the final fallback returns the unfiltered list. Only
// the hard-capability filter may legitimately empty the intermediate pool.
func SelectCandidates(all []catalog.ModelConfig, intent Intent, complexity ComplexityScore, prefs Preferences) []catalog.ModelConfig {
	pool := all

	// Preference short-circuits all later filters.
	if len(prefs.PreferredModels) > 0 {
		preferred := functional.Filter(pool, func(m catalog.ModelConfig) bool {
			return containsID(prefs.PreferredModels, m.ID)
		})
		if len(preferred) > 0 {
			return preferred
		}
	}

	if len(prefs.ExcludedModels) > 0 {
		filtered := functional.Filter(pool, func(m catalog.ModelConfig) bool {
			return !containsID(prefs.ExcludedModels, m.ID)
		})
		pool = fallback(filtered, pool)
	}

	// Hard capability requirements may empty the pool: these are
	// correctness requirements, not soft preferences.
	for _, required := range prefs.RequiredCapabilities {
		capability := required
		pool = functional.Filter(pool, func(m catalog.ModelConfig) bool {
			return m.HasCapability(capability)
		})
	}

	pool = applyIntentFilter(pool, all, intent)
	pool = applyComplexityFilter(pool, complexity)

	if len(pool) == 0 {
		return all
	}
	return pool
}

func applyIntentFilter(pool, all []catalog.ModelConfig, intent Intent) []catalog.ModelConfig {
	capability, ok := intentCapabilities[intent.Primary]
	if !ok {
		return pool
	}

	filtered := functional.Filter(pool, func(m catalog.ModelConfig) bool {
		return m.HasCapability(capability)
	})
	if len(filtered) > 0 {
		return filtered
	}

	// Research without a web-capable model falls back to the high-quality
	// tier rather than an empty set.
	if intent.Primary == IntentResearch {
		highQuality := functional.Filter(all, func(m catalog.ModelConfig) bool {
			return m.Performance.Quality >= highQualityBar
		})
		return fallback(highQuality, pool)
	}

	return filtered
}

func applyComplexityFilter(pool []catalog.ModelConfig, complexity ComplexityScore) []catalog.ModelConfig {
	switch {
	case complexity.Overall > highComplexityThreshold:
		filtered := functional.Filter(pool, func(m catalog.ModelConfig) bool {
			return m.Performance.Quality >= highQualityBar || m.HasSpecialization("reasoning")
		})
		return fallback(filtered, pool)
	case complexity.Overall < lowComplexityThreshold:
		filtered := functional.Filter(pool, func(m catalog.ModelConfig) bool {
			return m.HasSpecialization("speed") ||
				m.HasSpecialization("cost efficiency") ||
				m.Performance.AvgLatencyMs < fastLatencyMs
		})
		return fallback(filtered, pool)
	default:
		// Mid-range complexity applies no additional filter.
		return pool
	}
}

// fallback keeps the previous pool when a soft filter empties it.
func fallback(filtered, previous []catalog.ModelConfig) []catalog.ModelConfig {
	if len(filtered) == 0 {
		return previous
	}
	return filtered
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
