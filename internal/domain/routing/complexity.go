package routing

import (
	"regexp"
	"strings"
)

// ComplexityScore holds six independent difficulty sub-scores and their
// weighted combination, all in [0,1]. Ephemeral, per request.
type ComplexityScore struct {
	PromptLength       float64 `json:"prompt_length"`
	TechnicalDepth     float64 `json:"technical_depth"`
	MultiStep          float64 `json:"multi_step"`
	ContextDependency  float64 `json:"context_dependency"`
	DomainSpecificity  float64 `json:"domain_specificity"`
	OutputRequirements float64 `json:"output_requirements"`
	Overall            float64 `json:"overall"`
}

// complexityWeights combine the sub-scores. The weights must sum to exactly
// 1.0: Overall is consumed downstream as a probability-like value.
var complexityWeights = struct {
	PromptLength       float64
	TechnicalDepth     float64
	MultiStep          float64
	ContextDependency  float64
	DomainSpecificity  float64
	OutputRequirements float64
}{
	PromptLength:       0.15,
	TechnicalDepth:     0.25,
	MultiStep:          0.2,
	ContextDependency:  0.15,
	DomainSpecificity:  0.15,
	OutputRequirements: 0.1,
}

// technicalTerms is the fixed vocabulary behind the technical-depth score.
var technicalTerms = []string{
	"algorithm",
	"database",
	"architecture",
	"optimization",
	"concurrency",
	"encryption",
	"compiler",
	"distributed",
	"kubernetes",
	"protocol",
}

var sequencingWords = []*regexp.Regexp{
	regexp.MustCompile(`\bfirst\b`),
	regexp.MustCompile(`\bthen\b`),
	regexp.MustCompile(`\bnext\b`),
	regexp.MustCompile(`\bfinally\b`),
	regexp.MustCompile(`\bstep\b`),
}

var structuringWords = []*regexp.Regexp{
	regexp.MustCompile(`\bjson\b`),
	regexp.MustCompile(`\btable\b`),
	regexp.MustCompile(`\blist\b`),
	regexp.MustCompile(`\bformat\b`),
	regexp.MustCompile(`\bstructure\b`),
}

// AnalyzeComplexity scores a request along six difficulty dimensions and
// combines them. It never fails; every sub-score is clamped to [0,1].
func AnalyzeComplexity(text string, messageCount int) ComplexityScore {
	lower := strings.ToLower(text)

	score := ComplexityScore{
		PromptLength:      clamp01(float64(len(text)) / 2000),
		TechnicalDepth:    clamp01(float64(countTerms(lower, technicalTerms)) / 5),
		MultiStep:         clamp01(float64(countMatches(lower, sequencingWords)) / 3),
		ContextDependency: clamp01(float64(messageCount) / 10),
		OutputRequirements: clamp01(
			float64(countMatches(lower, structuringWords)) / 3),
	}
	// Domain specificity intentionally reuses the technical-depth value.
	// The two dimensions are coupled in this design, not accidentally equal;
	// keep them in sync when changing either.
	score.DomainSpecificity = score.TechnicalDepth

	score.Overall = clamp01(
		score.PromptLength*complexityWeights.PromptLength +
			score.TechnicalDepth*complexityWeights.TechnicalDepth +
			score.MultiStep*complexityWeights.MultiStep +
			score.ContextDependency*complexityWeights.ContextDependency +
			score.DomainSpecificity*complexityWeights.DomainSpecificity +
			score.OutputRequirements*complexityWeights.OutputRequirements)

	return score
}

// countTerms counts how many distinct vocabulary terms occur in the text.
func countTerms(lower string, terms []string) int {
	count := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			count++
		}
	}
	return count
}

// countMatches counts total occurrences across all word patterns.
func countMatches(lower string, patterns []*regexp.Regexp) int {
	count := 0
	for _, pattern := range patterns {
		count += len(pattern.FindAllStringIndex(lower, -1))
	}
	return count
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
