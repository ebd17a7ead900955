package gateway

import (
	"context"
	"os"
	"sync"
	"time"

	"apex-server/router-api/internal/domain/catalog"
	"apex-server/router-api/internal/infrastructure/logger"
	"apex-server/router-api/internal/infrastructure/metrics"
	"apex-server/router-api/internal/utils/httpclients"
	"apex-server/router-api/internal/utils/platformerrors"
)

// Config tunes the outbound behavior shared by all provider clients.
type Config struct {
	Timeout time.Duration
	Retry   RetryConfig
	Breaker BreakerConfig
}

// DefaultConfig returns the gateway settings used when none are supplied.
func DefaultConfig() Config {
	return Config{
		Timeout: 120 * time.Second,
		Retry:   DefaultRetryConfig(),
		Breaker: DefaultBreakerConfig(),
	}
}

// Gateway dispatches completion calls to whichever provider hosts the
// requested model. Each provider gets its own client and circuit breaker;
// retries wrap the breaker so an open circuit fails fast.
type Gateway struct {
	registry *catalog.Registry
	cfg      Config

	mu       sync.Mutex
	clients  map[catalog.ProviderKind]*providerClient
	breakers map[catalog.ProviderKind]*breaker
}

// NewGateway builds a gateway over the given catalog.
func NewGateway(registry *catalog.Registry, cfg Config) *Gateway {
	return &Gateway{
		registry: registry,
		cfg:      cfg,
		clients:  make(map[catalog.ProviderKind]*providerClient),
		breakers: make(map[catalog.ProviderKind]*breaker),
	}
}

// Invoke sends a completion request to the provider hosting req.Model and
// returns the full response. Transient failures are retried; repeated
// failures trip the provider's circuit breaker.
func (g *Gateway) Invoke(ctx context.Context, req Request) (*Response, error) {
	client, brk, kind, err := g.clientFor(ctx, req.Model)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := withRetry(callCtx, g.cfg.Retry, "invoke "+req.Model, func() (*Response, error) {
		var out *Response
		execErr := brk.execute(func() error {
			var callErr error
			out, callErr = client.complete(callCtx, req)
			return callErr
		})
		return out, execErr
	})
	metrics.ProviderDuration.WithLabelValues(string(kind), req.Model).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ProviderErrorsTotal.WithLabelValues(string(kind), errorLabel(err)).Inc()
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeProviderError,
			"provider call failed", err, "", map[string]any{"model": req.Model, "provider": string(kind)})
	}
	return resp, nil
}

// InvokeStream opens a streaming completion. The stream is not retried:
// once deltas flow the call is committed, so only the initial connection
// goes through the breaker.
func (g *Gateway) InvokeStream(ctx context.Context, req Request) (*Stream, error) {
	client, brk, kind, err := g.clientFor(ctx, req.Model)
	if err != nil {
		return nil, err
	}

	metrics.ActiveStreams.Inc()
	var stream *Stream
	execErr := brk.execute(func() error {
		var callErr error
		stream, callErr = client.streamComplete(ctx, req)
		return callErr
	})
	if execErr != nil {
		metrics.ActiveStreams.Dec()
		metrics.ProviderErrorsTotal.WithLabelValues(string(kind), errorLabel(execErr)).Inc()
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeProviderError,
			"provider stream failed", execErr, "", map[string]any{"model": req.Model, "provider": string(kind)})
	}

	go func() {
		select {
		case <-stream.Done():
		case <-ctx.Done():
		}
		metrics.ActiveStreams.Dec()
	}()
	return stream, nil
}

// CheckAvailability probes the provider's model listing endpoint.
func (g *Gateway) CheckAvailability(ctx context.Context, kind catalog.ProviderKind) bool {
	provider, ok := g.registry.ProviderFor(kind)
	if !ok {
		return false
	}
	client, _ := g.ensureClient(provider)
	return client.healthy(ctx)
}

// ListProviderModels returns the model ids the provider itself advertises,
// which may differ from the catalog's view.
func (g *Gateway) ListProviderModels(ctx context.Context, kind catalog.ProviderKind) ([]string, error) {
	provider, ok := g.registry.ProviderFor(kind)
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeNotFound,
			"unknown provider: "+string(kind), nil, "6b4a2c90-e1d8-4f53-a7b2-3c9e8d5f0a17")
	}
	client, _ := g.ensureClient(provider)
	return client.listModels(ctx)
}

// BreakerState reports the circuit state for a provider, for health output.
func (g *Gateway) BreakerState(kind catalog.ProviderKind) BreakerState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if brk, ok := g.breakers[kind]; ok {
		return brk.currentState()
	}
	return BreakerClosed
}

func (g *Gateway) clientFor(ctx context.Context, modelID string) (*providerClient, *breaker, catalog.ProviderKind, error) {
	model, err := g.registry.GetModel(modelID)
	if err != nil {
		return nil, nil, "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeNotFound,
			"model not in catalog: "+modelID, err, "0f5d8e21-b3a7-4c96-8d40-7e2f1a9c6b53")
	}
	provider, ok := g.registry.ProviderFor(model.Provider)
	if !ok {
		return nil, nil, "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal,
			"no provider configured for "+string(model.Provider), nil, "d8a03b67-4e29-4f85-b1c6-92f7e0d4a538")
	}
	client, brk := g.ensureClient(provider)
	return client, brk, provider.Kind, nil
}

// ensureClient lazily builds the client and breaker for a provider so that
// catalog reloads can introduce new providers without a restart.
func (g *Gateway) ensureClient(provider catalog.ProviderConfig) (*providerClient, *breaker) {
	g.mu.Lock()
	defer g.mu.Unlock()

	client, ok := g.clients[provider.Kind]
	if !ok {
		apiKey := ""
		if provider.APIKeyEnv != "" {
			apiKey = os.Getenv(provider.APIKeyEnv)
			if apiKey == "" {
				log := logger.GetLogger()
				log.Warn().
					Str("provider", string(provider.Kind)).
					Str("env", provider.APIKeyEnv).
					Msg("provider API key env var is empty")
			}
		}
		client = newProviderClient(
			httpclients.NewClient(string(provider.Kind)),
			string(provider.Kind),
			provider.BaseURL,
			apiKey,
		)
		g.clients[provider.Kind] = client
	}

	brk, ok := g.breakers[provider.Kind]
	if !ok {
		brk = newBreaker(string(provider.Kind), g.cfg.Breaker)
		g.breakers[provider.Kind] = brk
	}
	return client, brk
}

func errorLabel(err error) string {
	if platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal) {
		return string(platformerrors.ErrorTypeExternal)
	}
	return "transport"
}
