package routing

import (
	"reflect"
	"strings"
	"testing"

	decimal "github.com/shopspring/decimal"

	"apex-server/router-api/internal/domain/catalog"
)

func rankedFixture(scores ...float64) []RankedModel {
	ranked := make([]RankedModel, len(scores))
	for i, score := range scores {
		ranked[i] = RankedModel{
			Model: catalog.ModelConfig{ID: string(rune('a' + i)), Performance: catalog.Performance{AvgLatencyMs: 1000, Quality: 90}},
			Score: score,
		}
	}
	return ranked
}

func TestFinalizeSingleCandidateIsCertain(t *testing.T) {
	selection := Finalize(rankedFixture(72.5), "hello", Intent{Primary: IntentConversation}, midComplexity())
	if selection.Confidence != 1.0 {
		t.Errorf("single candidate confidence = %v, want 1.0", selection.Confidence)
	}
	if len(selection.Alternatives) != 0 {
		t.Errorf("single candidate must have no alternatives, got %d", len(selection.Alternatives))
	}
}

func TestFinalizeConfidenceIsScoreRatio(t *testing.T) {
	selection := Finalize(rankedFixture(60, 40), "hello", Intent{Primary: IntentConversation}, midComplexity())
	if selection.Confidence != 0.6 {
		t.Errorf("confidence = %v, want 0.6", selection.Confidence)
	}
	if selection.Model.ID != "a" {
		t.Errorf("chosen model = %s, want the top-ranked one", selection.Model.ID)
	}
}

func TestFinalizeCapsAlternativesAtThree(t *testing.T) {
	selection := Finalize(rankedFixture(90, 80, 70, 60, 50, 40), "hello", Intent{Primary: IntentConversation}, midComplexity())
	if len(selection.Alternatives) != 3 {
		t.Fatalf("alternatives = %d, want 3", len(selection.Alternatives))
	}
	want := []string{"b", "c", "d"}
	for i, alt := range selection.Alternatives {
		if alt.ID != want[i] {
			t.Errorf("alternative %d = %s, want %s", i, alt.ID, want[i])
		}
	}
}

func TestEstimateCost(t *testing.T) {
	model := catalog.ModelConfig{
		ID: "priced",
		Pricing: catalog.Pricing{
			InputPerMillion:  decimal.RequireFromString("3.00"),
			OutputPerMillion: decimal.RequireFromString("15.00"),
		},
	}

	// 400 chars is 100 input tokens and 50 assumed output tokens:
	// 100/1e6*3.00 + 50/1e6*15.00 = 0.00105
	text := strings.Repeat("abcd", 100)
	cost := EstimateCost(model, text)
	if want := decimal.RequireFromString("0.00105"); !cost.Equal(want) {
		t.Errorf("cost = %s, want %s", cost, want)
	}
}

func TestEstimateCostTinyTextIsFree(t *testing.T) {
	model := catalog.ModelConfig{
		Pricing: catalog.Pricing{InputPerMillion: decimal.RequireFromString("3.00")},
	}
	if cost := EstimateCost(model, "hi"); !cost.IsZero() {
		t.Errorf("sub-token text cost = %s, want 0", cost)
	}
}

func TestFinalizeReasoningIsReproducible(t *testing.T) {
	ranked := []RankedModel{{
		Model: catalog.ModelConfig{
			ID:              "code-pro",
			DisplayName:     "Code Pro",
			Specializations: []string{"code", "reasoning"},
			Performance:     catalog.Performance{Quality: 95, CostEfficiency: 65, AvgLatencyMs: 2200},
		},
		Score: 88,
	}}
	intent := Intent{Primary: IntentCodeGeneration, Secondary: IntentReasoning}

	first := Finalize(ranked, "write a parser", intent, midComplexity())
	second := Finalize(ranked, "write a parser", intent, midComplexity())
	if !reflect.DeepEqual(first.Reasoning, second.Reasoning) {
		t.Fatal("reasoning must be reproducible for identical inputs")
	}

	joined := strings.Join(first.Reasoning, "\n")
	for _, fragment := range []string{"code_generation", "Code Pro", "95/100", "2200ms", "Specialized in"} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("reasoning missing %q:\n%s", fragment, joined)
		}
	}
}
