package routing

import (
	"fmt"

	decimal "github.com/shopspring/decimal"

	"apex-server/router-api/internal/domain/catalog"
	"apex-server/router-api/internal/utils/functional"
)

const (
	maxAlternatives = 3
	// charsPerToken is the fixed char-to-token heuristic used for cost
	// estimation. An approximation, not a tokenizer.
	charsPerToken = 4
	// outputTokenRatio assumes responses average half the prompt length.
	outputTokenRatio = 0.5
)

var million = decimal.NewFromInt(1_000_000)

// ModelSelection is the engine's routing decision: the chosen model, the
// retained alternates, a reproducible justification and per-request
// estimates. Returned to the caller, never persisted.
type ModelSelection struct {
	Model              catalog.ModelConfig   `json:"model"`
	Confidence         float64               `json:"confidence"`
	Reasoning          []string              `json:"reasoning"`
	Alternatives       []catalog.ModelConfig `json:"alternatives,omitempty"`
	EstimatedCost      decimal.Decimal       `json:"estimated_cost"`
	EstimatedLatencyMs float64               `json:"estimated_latency_ms"`
	EstimatedQuality   float64               `json:"estimated_quality"`
	Intent             Intent                `json:"intent"`
	Complexity         ComplexityScore       `json:"complexity"`
}

// Finalize turns a non-empty ranked list into the final selection: rank[0]
// is the chosen model, rank[1..3] the alternates. Deterministic given the
// same inputs, which makes the explanation reproducible.
func Finalize(ranked []RankedModel, requestText string, intent Intent, complexity ComplexityScore) *ModelSelection {
	chosen := ranked[0]

	alternates := ranked[1:]
	if len(alternates) > maxAlternatives {
		alternates = alternates[:maxAlternatives]
	}

	confidence := 1.0
	if len(ranked) > 1 && chosen.Score+ranked[1].Score > 0 {
		confidence = chosen.Score / (chosen.Score + ranked[1].Score)
	}

	return &ModelSelection{
		Model:      chosen.Model,
		Confidence: confidence,
		Reasoning:  buildReasoning(chosen.Model, intent, complexity),
		Alternatives: functional.Map(alternates, func(r RankedModel) catalog.ModelConfig {
			return r.Model
		}),
		EstimatedCost:      EstimateCost(chosen.Model, requestText),
		EstimatedLatencyMs: chosen.Model.Performance.AvgLatencyMs,
		EstimatedQuality:   chosen.Model.Performance.Quality,
		Intent:             intent,
		Complexity:         complexity,
	}
}

// EstimateCost prices a request against a model using the chars/4 token
// heuristic and an assumed 0.5 output-to-input token ratio.
func EstimateCost(model catalog.ModelConfig, requestText string) decimal.Decimal {
	inputTokens := decimal.NewFromInt(int64(len(requestText) / charsPerToken))
	outputTokens := inputTokens.Mul(decimal.NewFromFloat(outputTokenRatio))

	inputCost := inputTokens.Div(million).Mul(model.Pricing.InputPerMillion)
	outputCost := outputTokens.Div(million).Mul(model.Pricing.OutputPerMillion)
	return inputCost.Add(outputCost)
}

// buildReasoning produces the fixed-template justification for a selection.
func buildReasoning(model catalog.ModelConfig, intent Intent, complexity ComplexityScore) []string {
	reasoning := []string{
		fmt.Sprintf("Classified request as %s (secondary: %s)", intent.Primary, intent.Secondary),
		fmt.Sprintf("Estimated complexity %.2f", complexity.Overall),
		fmt.Sprintf("%s has a quality score of %.0f/100", model.DisplayName, model.Performance.Quality),
		fmt.Sprintf("Cost efficiency is %.0f/100 with an average latency of %.0fms", model.Performance.CostEfficiency, model.Performance.AvgLatencyMs),
	}
	if len(model.Specializations) > 0 {
		reasoning = append(reasoning, fmt.Sprintf("Specialized in: %v", model.Specializations))
	}
	return reasoning
}
