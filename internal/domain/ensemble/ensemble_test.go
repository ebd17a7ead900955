package ensemble

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"apex-server/router-api/internal/domain/catalog"
	"apex-server/router-api/internal/infrastructure/gateway"
	"apex-server/router-api/internal/utils/platformerrors"
)

type fakeInvoker struct {
	responses map[string]string
	failures  map[string]error
	calls     atomic.Int32
}

func (f *fakeInvoker) Invoke(_ context.Context, req gateway.Request) (*gateway.Response, error) {
	f.calls.Add(1)
	if err, ok := f.failures[req.Model]; ok {
		return nil, err
	}
	content, ok := f.responses[req.Model]
	if !ok {
		return nil, errors.New("no canned response for " + req.Model)
	}
	return &gateway.Response{Model: req.Model, Content: content, FinishReason: "stop"}, nil
}

func ensembleRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	perf := func(quality float64) catalog.Performance {
		return catalog.Performance{
			Quality:          quality,
			CostEfficiency:   70,
			AvgLatencyMs:     800,
			Reliability:      99,
			UserSatisfaction: 85,
		}
	}
	models := []catalog.ModelConfig{
		{ID: "model-a", Provider: catalog.ProviderOpenAI, Performance: perf(95)},
		{ID: "model-b", Provider: catalog.ProviderAnthropic, Performance: perf(90)},
		{ID: "model-c", Provider: catalog.ProviderGoogle, Performance: perf(85)},
		{ID: "model-d", Provider: catalog.ProviderMistral, Performance: perf(60)},
	}
	return catalog.NewRegistry(models, nil)
}

func askRequest() gateway.Request {
	return gateway.Request{Messages: []gateway.Message{{Role: "user", Content: "capital of France?"}}}
}

func TestCombineVoting(t *testing.T) {
	invoker := &fakeInvoker{responses: map[string]string{
		"model-a": "Paris",
		"model-b": "paris ",
		"model-c": "PARIS",
		"model-d": "London",
	}}
	agg := NewAggregator(ensembleRegistry(t), invoker)

	resp, err := agg.Combine(context.Background(), askRequest(), Config{
		Models:   []string{"model-a", "model-b", "model-c", "model-d"},
		Strategy: StrategyVoting,
	})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if resp.Result != "paris" {
		t.Errorf("expected winning canonical text paris, got %q", resp.Result)
	}
	if resp.AgreementScore != 0.75 {
		t.Errorf("expected agreement 0.75, got %v", resp.AgreementScore)
	}
	if len(resp.Contributors) != 4 {
		t.Errorf("expected 4 contributors, got %d", len(resp.Contributors))
	}
	want := 0.75*0.7 + (4.0/5.0)*0.3
	if math.Abs(resp.Confidence-want) > 1e-9 {
		t.Errorf("expected confidence %v, got %v", want, resp.Confidence)
	}
}

func TestCombineVotingTieKeepsFirst(t *testing.T) {
	invoker := &fakeInvoker{responses: map[string]string{
		"model-a": "yes",
		"model-b": "no",
	}}
	agg := NewAggregator(ensembleRegistry(t), invoker)

	resp, err := agg.Combine(context.Background(), askRequest(), Config{
		Models:   []string{"model-a", "model-b"},
		Strategy: StrategyVoting,
	})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if resp.Result != "yes" {
		t.Errorf("tie must keep the first canonical form, got %q", resp.Result)
	}
	if resp.AgreementScore != 0.5 {
		t.Errorf("expected agreement 0.5, got %v", resp.AgreementScore)
	}
}

func TestCombineWeighted(t *testing.T) {
	invoker := &fakeInvoker{responses: map[string]string{
		"model-a": "answer from a",
		"model-b": "answer from b",
		"model-c": "answer from c",
	}}
	agg := NewAggregator(ensembleRegistry(t), invoker)

	resp, err := agg.Combine(context.Background(), askRequest(), Config{
		Models:   []string{"model-a", "model-b", "model-c"},
		Strategy: StrategyWeighted,
		Weights:  map[string]float64{"model-b": 3},
	})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if resp.Result != "answer from b" {
		t.Errorf("expected highest-weight response, got %q", resp.Result)
	}
	// 3 / (1 + 3 + 1)
	if math.Abs(resp.AgreementScore-0.6) > 1e-9 {
		t.Errorf("expected agreement 0.6, got %v", resp.AgreementScore)
	}
}

func TestCombineWeightedDefaultsToFirst(t *testing.T) {
	invoker := &fakeInvoker{responses: map[string]string{
		"model-a": "first answer",
		"model-b": "second answer",
	}}
	agg := NewAggregator(ensembleRegistry(t), invoker)

	resp, err := agg.Combine(context.Background(), askRequest(), Config{
		Models:   []string{"model-a", "model-b"},
		Strategy: StrategyWeighted,
	})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if resp.Result != "first answer" {
		t.Errorf("equal weights must keep the first contributor, got %q", resp.Result)
	}
}

func TestCombineWeightedHonorsZeroWeight(t *testing.T) {
	invoker := &fakeInvoker{responses: map[string]string{
		"model-a": "silenced answer",
		"model-b": "answer from b",
		"model-c": "answer from c",
	}}
	agg := NewAggregator(ensembleRegistry(t), invoker)

	resp, err := agg.Combine(context.Background(), askRequest(), Config{
		Models:   []string{"model-a", "model-b", "model-c"},
		Strategy: StrategyWeighted,
		Weights:  map[string]float64{"model-a": 0},
	})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if resp.Result != "answer from b" {
		t.Errorf("a zero-weighted model must not win, got %q", resp.Result)
	}
	// 1 / (0 + 1 + 1)
	if math.Abs(resp.AgreementScore-0.5) > 1e-9 {
		t.Errorf("expected agreement 0.5, got %v", resp.AgreementScore)
	}
}

func TestCombineWeightedAllZeroWeights(t *testing.T) {
	invoker := &fakeInvoker{responses: map[string]string{
		"model-a": "first answer",
		"model-b": "second answer",
	}}
	agg := NewAggregator(ensembleRegistry(t), invoker)

	resp, err := agg.Combine(context.Background(), askRequest(), Config{
		Models:   []string{"model-a", "model-b"},
		Strategy: StrategyWeighted,
		Weights:  map[string]float64{"model-a": 0, "model-b": 0},
	})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if resp.Result != "first answer" {
		t.Errorf("all-zero weights must keep the first contributor, got %q", resp.Result)
	}
	if resp.AgreementScore != 0 {
		t.Errorf("all-zero weights carry no agreement, got %v", resp.AgreementScore)
	}
}

func TestCombineBestOfPrefersQualityAndCompleteness(t *testing.T) {
	invoker := &fakeInvoker{responses: map[string]string{
		"model-a": "A thorough, complete explanation of the topic at hand.",
		"model-d": "short",
	}}
	agg := NewAggregator(ensembleRegistry(t), invoker)

	resp, err := agg.Combine(context.Background(), askRequest(), Config{
		Models:   []string{"model-d", "model-a"},
		Strategy: StrategyBestOf,
	})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if resp.Result != "A thorough, complete explanation of the topic at hand." {
		t.Errorf("expected the high-quality model's response, got %q", resp.Result)
	}
	if resp.AgreementScore <= 0 || resp.AgreementScore > 1 {
		t.Errorf("agreement out of range: %v", resp.AgreementScore)
	}
}

func TestCombineConsensusPicksCentroid(t *testing.T) {
	invoker := &fakeInvoker{responses: map[string]string{
		"model-a": "the capital of france is paris",
		"model-b": "the capital of france is paris indeed",
		"model-c": "paris is the capital of france",
	}}
	agg := NewAggregator(ensembleRegistry(t), invoker)

	resp, err := agg.Combine(context.Background(), askRequest(), Config{
		Models:             []string{"model-a", "model-b", "model-c"},
		Strategy:           StrategyConsensus,
		ConsensusThreshold: 0.5,
	})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	// model-a and model-c share identical word sets; either is a valid
	// centroid but the scan keeps the first best, model-a
	if resp.Result != "the capital of france is paris" {
		t.Errorf("expected centroid response, got %q", resp.Result)
	}
	if resp.AgreementScore < 0.5 {
		t.Errorf("expected agreement at or above threshold, got %v", resp.AgreementScore)
	}
}

func TestCombineConsensusFallsBackToBestOf(t *testing.T) {
	invoker := &fakeInvoker{responses: map[string]string{
		"model-a": "completely different topic about databases.",
		"model-b": "unrelated musings on compilers.",
		"model-c": "a third thing entirely, cooking recipes.",
	}}
	agg := NewAggregator(ensembleRegistry(t), invoker)

	resp, err := agg.Combine(context.Background(), askRequest(), Config{
		Models:             []string{"model-a", "model-b", "model-c"},
		Strategy:           StrategyConsensus,
		ConsensusThreshold: 0.9,
	})
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	// best_of favors model-a, the highest declared quality
	if resp.Result != "completely different topic about databases." {
		t.Errorf("expected best_of fallback selection, got %q", resp.Result)
	}
}

func TestCombinePartialFailureExcludesContributor(t *testing.T) {
	invoker := &fakeInvoker{
		responses: map[string]string{
			"model-a": "Paris",
			"model-b": "Paris",
		},
		failures: map[string]error{
			"model-c": errors.New("provider timeout"),
		},
	}
	agg := NewAggregator(ensembleRegistry(t), invoker)

	resp, err := agg.Combine(context.Background(), askRequest(), Config{
		Models:   []string{"model-a", "model-b", "model-c"},
		Strategy: StrategyVoting,
	})
	if err != nil {
		t.Fatalf("partial failure must not error: %v", err)
	}
	if len(resp.Contributors) != 2 {
		t.Fatalf("expected 2 contributors, got %d", len(resp.Contributors))
	}
	for _, c := range resp.Contributors {
		if c.Model.ID == "model-c" {
			t.Error("failed model must be excluded from contributors")
		}
	}
	if resp.AgreementScore != 1.0 {
		t.Errorf("expected unanimous agreement among survivors, got %v", resp.AgreementScore)
	}
}

func TestCombineTotalFailure(t *testing.T) {
	invoker := &fakeInvoker{failures: map[string]error{
		"model-a": errors.New("down"),
		"model-b": errors.New("down"),
	}}
	agg := NewAggregator(ensembleRegistry(t), invoker)

	_, err := agg.Combine(context.Background(), askRequest(), Config{
		Models:   []string{"model-a", "model-b"},
		Strategy: StrategyVoting,
	})
	if err == nil {
		t.Fatal("expected error when every model fails")
	}
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeAllModelsFailed) {
		t.Errorf("expected ALL_MODELS_FAILED, got %v", err)
	}
}

func TestCombineUnknownModelExcluded(t *testing.T) {
	invoker := &fakeInvoker{responses: map[string]string{
		"model-a": "Paris",
	}}
	agg := NewAggregator(ensembleRegistry(t), invoker)

	resp, err := agg.Combine(context.Background(), askRequest(), Config{
		Models:   []string{"model-a", "not-in-catalog"},
		Strategy: StrategyVoting,
	})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if len(resp.Contributors) != 1 {
		t.Errorf("uncataloged model must be excluded, got %d contributors", len(resp.Contributors))
	}
}

func TestCombineUnknownStrategyFailsBeforeInvocation(t *testing.T) {
	invoker := &fakeInvoker{responses: map[string]string{"model-a": "Paris"}}
	agg := NewAggregator(ensembleRegistry(t), invoker)

	_, err := agg.Combine(context.Background(), askRequest(), Config{
		Models:   []string{"model-a"},
		Strategy: Strategy("majority"),
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("expected VALIDATION error, got %v", err)
	}
	if invoker.calls.Load() != 0 {
		t.Errorf("no model may be invoked for an unknown strategy, got %d calls", invoker.calls.Load())
	}
}

func TestCombineNoModels(t *testing.T) {
	agg := NewAggregator(ensembleRegistry(t), &fakeInvoker{})
	_, err := agg.Combine(context.Background(), askRequest(), Config{Strategy: StrategyVoting})
	if err == nil {
		t.Fatal("expected validation error for empty model list")
	}
}
