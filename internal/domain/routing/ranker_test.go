package routing

import (
	"math"
	"testing"

	"apex-server/router-api/internal/domain/catalog"
)

func scoresClose(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRankOrdersDescending(t *testing.T) {
	ranked := Rank(testModels(), Intent{Primary: IntentCodeGeneration}, midComplexity(), Preferences{})
	if len(ranked) != len(testModels()) {
		t.Fatalf("expected %d ranked models, got %d", len(testModels()), len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("scores not descending at %d: %v > %v", i, ranked[i].Score, ranked[i-1].Score)
		}
	}
}

func TestRankStableOnTies(t *testing.T) {
	perf := catalog.Performance{Quality: 90, CostEfficiency: 80, AvgLatencyMs: 1000, Reliability: 99, UserSatisfaction: 89}
	twins := []catalog.ModelConfig{
		{ID: "twin-a", Performance: perf},
		{ID: "twin-b", Performance: perf},
	}

	ranked := Rank(twins, Intent{Primary: IntentConversation}, midComplexity(), Preferences{})
	if !scoresClose(ranked[0].Score, ranked[1].Score) {
		t.Fatalf("identical models must tie, got %v and %v", ranked[0].Score, ranked[1].Score)
	}
	if ranked[0].Model.ID != "twin-a" || ranked[1].Model.ID != "twin-b" {
		t.Errorf("ties must preserve input order, got %s then %s", ranked[0].Model.ID, ranked[1].Model.ID)
	}
}

func TestRankPrioritizeCostFlips(t *testing.T) {
	// latency at the 5s cutoff and zeroed reliability/satisfaction isolate
	// the quality, cost and complexity terms
	premium := catalog.ModelConfig{
		ID:          "premium",
		Performance: catalog.Performance{Quality: 100, CostEfficiency: 40, AvgLatencyMs: 5000},
	}
	economical := catalog.ModelConfig{
		ID:          "economical",
		Performance: catalog.Performance{Quality: 85, CostEfficiency: 70, AvgLatencyMs: 5000},
	}
	models := []catalog.ModelConfig{premium, economical}
	intent := Intent{Primary: IntentConversation}

	normal := Rank(models, intent, highComplexity(), Preferences{})
	if normal[0].Model.ID != "premium" {
		t.Errorf("without cost priority the higher-quality model must win, got %s", normal[0].Model.ID)
	}
	if !scoresClose(normal[0].Score, 58) || !scoresClose(normal[1].Score, 56.5) {
		t.Errorf("unexpected scores %v and %v", normal[0].Score, normal[1].Score)
	}

	costFirst := Rank(models, intent, highComplexity(), Preferences{PrioritizeCost: true})
	if costFirst[0].Model.ID != "economical" {
		t.Errorf("with cost priority the cheaper model must win, got %s", costFirst[0].Model.ID)
	}
	if !scoresClose(costFirst[0].Score, 63.5) || !scoresClose(costFirst[1].Score, 62) {
		t.Errorf("unexpected scores %v and %v", costFirst[0].Score, costFirst[1].Score)
	}
}

func TestRankFasterModelScoresHigher(t *testing.T) {
	slow := catalog.ModelConfig{
		ID:          "slow",
		Performance: catalog.Performance{Quality: 90, CostEfficiency: 80, AvgLatencyMs: 2400, Reliability: 99, UserSatisfaction: 89},
	}
	fast := slow
	fast.ID = "fast"
	fast.Performance.AvgLatencyMs = 400

	ranked := Rank([]catalog.ModelConfig{slow, fast}, Intent{Primary: IntentConversation}, midComplexity(), Preferences{})
	if ranked[0].Model.ID != "fast" {
		t.Errorf("lower latency must rank higher, got %s first", ranked[0].Model.ID)
	}
}

func TestRankIntentSpecializationBonus(t *testing.T) {
	plain := catalog.ModelConfig{
		ID:          "plain",
		Performance: catalog.Performance{Quality: 90, CostEfficiency: 80, AvgLatencyMs: 1000, Reliability: 99, UserSatisfaction: 89},
	}
	specialized := plain
	specialized.ID = "specialized"
	specialized.Specializations = []string{"code"}

	ranked := Rank([]catalog.ModelConfig{plain, specialized}, Intent{Primary: IntentCodeGeneration}, midComplexity(), Preferences{})
	if ranked[0].Model.ID != "specialized" {
		t.Fatalf("specialization must break the tie, got %s first", ranked[0].Model.ID)
	}
	if !scoresClose(ranked[0].Score-ranked[1].Score, 3) {
		t.Errorf("one matching tag is worth 3 points, got a gap of %v", ranked[0].Score-ranked[1].Score)
	}
}

func TestShippedCatalogCoversIntentVocabulary(t *testing.T) {
	registry, err := catalog.LoadFromFile("../../../config/models.yml")
	if err != nil {
		t.Fatalf("load shipped catalog: %v", err)
	}
	models := registry.ListModels()

	for category, tags := range intentSpecializations {
		matched := false
		for _, m := range models {
			if intentMatch(m, Intent{Primary: category}) > 0 {
				matched = true
				break
			}
		}
		if !matched {
			t.Errorf("no shipped model carries any of %v for intent %s", tags, category)
		}
	}

	specialist, err := registry.GetModel("claude-sonnet-4")
	if err != nil {
		t.Fatalf("shipped catalog is missing claude-sonnet-4: %v", err)
	}
	if bonus := intentMatch(specialist, Intent{Primary: IntentCodeGeneration}); !scoresClose(bonus, 0.3) {
		t.Errorf("expected code generation bonus 0.3 for claude-sonnet-4, got %v", bonus)
	}
}

func TestRankDeterministic(t *testing.T) {
	intent := Intent{Primary: IntentCodeGeneration}
	first := Rank(testModels(), intent, midComplexity(), Preferences{PrioritizeSpeed: true})
	second := Rank(testModels(), intent, midComplexity(), Preferences{PrioritizeSpeed: true})

	for i := range first {
		if first[i].Model.ID != second[i].Model.ID || !scoresClose(first[i].Score, second[i].Score) {
			t.Fatalf("ranking is not deterministic at position %d", i)
		}
	}
}
