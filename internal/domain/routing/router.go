package routing

import (
	"context"

	"golang.org/x/sync/errgroup"

	"apex-server/router-api/internal/domain/catalog"
	"apex-server/router-api/internal/infrastructure/logger"
	"apex-server/router-api/internal/infrastructure/metrics"
	"apex-server/router-api/internal/utils/platformerrors"
)

// Request is a routing request: the text to route plus conversational
// context and caller constraints.
type Request struct {
	Text          string      `json:"text"`
	HistoryLength int         `json:"history_length"`
	Preferences   Preferences `json:"preferences"`
}

// Router is the single-model selection service. It holds no mutable state of
// its own; all model facts come from the injected registry snapshot.
type Router struct {
	registry   *catalog.Registry
	classifier *Classifier
}

// NewRouter creates the routing service around an explicit registry.
func NewRouter(registry *catalog.Registry) *Router {
	return &Router{
		registry:   registry,
		classifier: NewClassifier(),
	}
}

// SelectModel runs the full decision pipeline: classify and analyze the
// request concurrently, filter the registry to candidates, rank them and
// finalize an explained selection.
//
// Given identical request text, history length, preferences and registry
// snapshot the result is identical: there is no hidden randomness.
func (r *Router) SelectModel(ctx context.Context, req *Request) (*ModelSelection, error) {
	log := logger.GetLogger()

	// Classification and complexity analysis are pure and independent;
	// join both before candidate selection.
	var (
		intent     Intent
		complexity ComplexityScore
	)
	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		intent = r.classifier.Classify(req.Text, req.HistoryLength)
		return nil
	})
	eg.Go(func() error {
		complexity = AnalyzeComplexity(req.Text, req.HistoryLength)
		return nil
	})
	_ = eg.Wait() // neither stage can fail

	models := r.registry.ListModels()
	candidates := SelectCandidates(models, intent, complexity, req.Preferences)
	if len(candidates) == 0 {
		// Unreachable given the selector's fallback guarantee; treated as
		// an internal invariant violation, not a user-facing condition.
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"candidate selection returned an empty pool", nil, "e3b7f3f8-6a4f-4e59-9da3-52fb4f9a1f11")
	}

	ranked := Rank(candidates, intent, complexity, req.Preferences)
	selection := Finalize(ranked, req.Text, intent, complexity)

	metrics.SelectionsTotal.WithLabelValues(string(intent.Primary), selection.Model.ID).Inc()
	log.Debug().
		Str("model_id", selection.Model.ID).
		Str("intent", string(intent.Primary)).
		Float64("complexity", complexity.Overall).
		Float64("confidence", selection.Confidence).
		Int("candidates", len(candidates)).
		Msg("model selected")

	return selection, nil
}

// Registry exposes the underlying catalog for callers that validate model
// ids before a request (e.g. ensemble configuration checks).
func (r *Router) Registry() *catalog.Registry {
	return r.registry
}
