package routing

import (
	"sort"

	"apex-server/router-api/internal/domain/catalog"
)

// RankedModel pairs a candidate with its weighted score.
type RankedModel struct {
	Model catalog.ModelConfig `json:"model"`
	Score float64             `json:"score"`
}

// intentSpecializations maps intent categories to the specialization tags a
// well-matched model is expected to carry.
var intentSpecializations = map[IntentCategory][]string{
	IntentCodeGeneration:    {"code", "programming", "software"},
	IntentCodeReview:        {"code", "analysis"},
	IntentDebugging:         {"code", "debugging"},
	IntentReasoning:         {"reasoning", "analysis", "logic"},
	IntentMath:              {"math", "reasoning"},
	IntentCreativeWriting:   {"creative", "writing"},
	IntentResearch:          {"research", "web", "current events"},
	IntentAnalysis:          {"analysis", "reasoning"},
	IntentConversation:      {"chat", "general"},
	IntentTranslation:       {"translation", "multilingual"},
	IntentSummarization:     {"summarization", "writing"},
	IntentQuestionAnswering: {"general", "knowledge"},
}

// Rank scores and orders candidates, strictly descending by score. Equal
// scores preserve the candidates' original order. Pure function: identical
// inputs always produce identical output.
func Rank(candidates []catalog.ModelConfig, intent Intent, complexity ComplexityScore, prefs Preferences) []RankedModel {
	ranked := make([]RankedModel, len(candidates))
	for i, model := range candidates {
		ranked[i] = RankedModel{
			Model: model,
			Score: scoreModel(model, intent, complexity, prefs),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// scoreModel computes the weighted multi-criteria score for one candidate.
// The cost weighting is 20 normally and 30 under PrioritizeCost, never both;
// the same applies to speed under PrioritizeSpeed.
func scoreModel(model catalog.ModelConfig, intent Intent, complexity ComplexityScore, prefs Preferences) float64 {
	perf := model.Performance

	costWeight := 20.0
	if prefs.PrioritizeCost {
		costWeight = 30.0
	}
	speedWeight := 20.0
	if prefs.PrioritizeSpeed {
		speedWeight = 30.0
	}

	score := perf.Quality / 100 * 40
	score += perf.CostEfficiency / 100 * costWeight
	score += speedScore(perf.AvgLatencyMs) * speedWeight
	score += intentMatch(model, intent) * 10
	score += complexityMatch(perf, complexity) * 10
	score += perf.Reliability / 100 * 5
	score += perf.UserSatisfaction / 100 * 5
	return score
}

// speedScore maps average latency onto [0,1], 5s and above scoring zero.
func speedScore(latencyMs float64) float64 {
	ratio := latencyMs / 5000
	if ratio > 1 {
		ratio = 1
	}
	return 1 - ratio
}

// intentMatch awards 0.3 per expected specialization tag the model carries,
// capped at 1.0.
func intentMatch(model catalog.ModelConfig, intent Intent) float64 {
	match := 0.0
	for _, tag := range intentSpecializations[intent.Primary] {
		if model.HasSpecialization(tag) {
			match += 0.3
		}
	}
	if match > 1.0 {
		match = 1.0
	}
	return match
}

// complexityMatch rewards quality for hard requests, speed for easy ones and
// a quality/cost balance in between.
func complexityMatch(perf catalog.Performance, complexity ComplexityScore) float64 {
	switch {
	case complexity.Overall > highComplexityThreshold:
		return perf.Quality / 100
	case complexity.Overall < lowComplexityThreshold:
		return speedScore(perf.AvgLatencyMs)
	default:
		return (perf.Quality/100 + perf.CostEfficiency/100) / 2
	}
}
