package ensemble

import (
	"context"
	"math"
	"sync"

	"apex-server/router-api/internal/domain/catalog"
	"apex-server/router-api/internal/infrastructure/gateway"
	"apex-server/router-api/internal/infrastructure/logger"
	"apex-server/router-api/internal/infrastructure/metrics"
	"apex-server/router-api/internal/utils/platformerrors"
)

// Strategy selects how contributor responses are reduced to one result.
type Strategy string

const (
	StrategyVoting    Strategy = "voting"
	StrategyWeighted  Strategy = "weighted"
	StrategyBestOf    Strategy = "best_of"
	StrategyConsensus Strategy = "consensus"
)

const (
	agreementWeight = 0.7
	countWeight     = 0.3
	// contributor count at which the corroboration term saturates
	countSaturation = 5.0
)

// Config names the models to fan out to and how to reduce their answers.
type Config struct {
	Models             []string           `json:"models"`
	Strategy           Strategy           `json:"strategy"`
	Weights            map[string]float64 `json:"weights,omitempty"`
	ConsensusThreshold float64            `json:"consensus_threshold,omitempty"`
}

// Contribution is one model's successful answer within an ensemble run.
type Contribution struct {
	Model    catalog.ModelConfig `json:"model"`
	Response string              `json:"response"`
	Weight   float64             `json:"weight"`
}

// Response is the reduced outcome of an ensemble run. Contributors holds
// every model that answered successfully; failed models are absent.
type Response struct {
	Result         string         `json:"result"`
	Contributors   []Contribution `json:"contributors"`
	AgreementScore float64        `json:"agreement_score"`
	Confidence     float64        `json:"confidence"`
	Strategy       Strategy       `json:"strategy"`
}

// Invoker is the provider capability the aggregator consumes. The gateway
// satisfies it; tests inject fakes.
type Invoker interface {
	Invoke(ctx context.Context, req gateway.Request) (*gateway.Response, error)
}

// Aggregator fans a request out to several models in parallel and reduces
// their independent answers under the configured strategy.
type Aggregator struct {
	registry *catalog.Registry
	invoker  Invoker
}

func NewAggregator(registry *catalog.Registry, invoker Invoker) *Aggregator {
	return &Aggregator{
		registry: registry,
		invoker:  invoker,
	}
}

// Combine invokes every named model concurrently, waits for all of them,
// and reduces the successful answers. A model that fails is logged and
// excluded; the run errors only when no model succeeds.
func (a *Aggregator) Combine(ctx context.Context, req gateway.Request, cfg Config) (*Response, error) {
	if err := a.validate(ctx, cfg); err != nil {
		metrics.EnsembleRunsTotal.WithLabelValues(string(cfg.Strategy), "rejected").Inc()
		return nil, err
	}

	type slot struct {
		contribution Contribution
		err          error
	}
	slots := make([]slot, len(cfg.Models))

	var wg sync.WaitGroup
	for i, modelID := range cfg.Models {
		wg.Add(1)
		go func(i int, modelID string) {
			defer wg.Done()

			model, err := a.registry.GetModel(modelID)
			if err != nil {
				slots[i].err = err
				return
			}

			modelReq := req
			modelReq.Model = modelID
			resp, err := a.invoker.Invoke(ctx, modelReq)
			if err != nil {
				slots[i].err = err
				return
			}

			slots[i].contribution = Contribution{
				Model:    model,
				Response: resp.Content,
				Weight:   a.weightFor(cfg, modelID),
			}
		}(i, modelID)
	}
	wg.Wait()

	log := logger.GetLogger()
	contributors := make([]Contribution, 0, len(slots))
	for i, s := range slots {
		if s.err != nil {
			log.Warn().
				Err(s.err).
				Str("model", cfg.Models[i]).
				Str("strategy", string(cfg.Strategy)).
				Msg("ensemble contributor failed, excluding")
			continue
		}
		contributors = append(contributors, s.contribution)
	}

	if len(contributors) == 0 {
		metrics.EnsembleRunsTotal.WithLabelValues(string(cfg.Strategy), "all_failed").Inc()
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeAllModelsFailed,
			"every ensemble model failed", nil, "5a1c7e30-9d42-4b86-a3f5-e820c6d1b794",
			map[string]any{"models": cfg.Models, "strategy": string(cfg.Strategy)})
	}

	result, agreement := a.reduce(cfg, contributors)

	metrics.EnsembleRunsTotal.WithLabelValues(string(cfg.Strategy), "ok").Inc()
	log.Debug().
		Str("strategy", string(cfg.Strategy)).
		Int("requested", len(cfg.Models)).
		Int("contributed", len(contributors)).
		Float64("agreement", agreement).
		Msg("ensemble combined")

	return &Response{
		Result:         result,
		Contributors:   contributors,
		AgreementScore: agreement,
		Confidence:     deriveConfidence(agreement, len(contributors)),
		Strategy:       cfg.Strategy,
	}, nil
}

func (a *Aggregator) validate(ctx context.Context, cfg Config) error {
	switch cfg.Strategy {
	case StrategyVoting, StrategyWeighted, StrategyBestOf, StrategyConsensus:
	default:
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"unknown ensemble strategy: "+string(cfg.Strategy), nil, "b9f2d4a6-1c75-4e08-8b3d-60a5e9c7f241")
	}
	if len(cfg.Models) == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"ensemble requires at least one model", nil, "e4d86f02-3a91-47c5-9e6b-d157a0c8b362")
	}
	return nil
}

func (a *Aggregator) reduce(cfg Config, contributors []Contribution) (string, float64) {
	switch cfg.Strategy {
	case StrategyVoting:
		return reduceVoting(contributors)
	case StrategyWeighted:
		return reduceWeighted(contributors)
	case StrategyConsensus:
		return reduceConsensus(contributors, cfg.ConsensusThreshold)
	default:
		return reduceBestOf(contributors)
	}
}

// weightFor returns the caller-supplied weight, including an explicit zero,
// and defaults to 1 only for models absent from the map.
func (a *Aggregator) weightFor(cfg Config, modelID string) float64 {
	if w, ok := cfg.Weights[modelID]; ok {
		return w
	}
	return 1
}

// deriveConfidence rewards both agreement and corroborating model count.
func deriveConfidence(agreement float64, contributorCount int) float64 {
	countTerm := math.Min(float64(contributorCount)/countSaturation, 1)
	return agreement*agreementWeight + countTerm*countWeight
}
