package infrastructure

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"apex-server/router-api/internal/config"
	"apex-server/router-api/internal/domain/catalog"
	"apex-server/router-api/internal/infrastructure/crontab"
	"apex-server/router-api/internal/infrastructure/gateway"
	"apex-server/router-api/internal/infrastructure/logger"
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.Load()
}

// ProvideRegistry loads the model catalog from its configured file.
func ProvideRegistry(cfg *config.Config, log zerolog.Logger) (*catalog.Registry, error) {
	registry, err := catalog.LoadFromFile(cfg.ModelCatalogPath)
	if err != nil {
		return nil, err
	}
	log.Info().Int("models", registry.Len()).Str("path", cfg.ModelCatalogPath).Msg("model catalog loaded")
	return registry, nil
}

// ProvideGateway builds the provider gateway with retry and breaker
// settings from the environment.
func ProvideGateway(cfg *config.Config, registry *catalog.Registry) *gateway.Gateway {
	gwCfg := gateway.DefaultConfig()
	gwCfg.Timeout = cfg.GatewayTimeout
	gwCfg.Retry.MaxAttempts = cfg.GatewayRetryAttempts
	gwCfg.Breaker.Enabled = cfg.GatewayBreakerEnabled
	gwCfg.Breaker.Timeout = cfg.GatewayBreakerTimeout
	gwCfg.Breaker.FailureThreshold = cfg.GatewayBreakerFailures
	return gateway.NewGateway(registry, gwCfg)
}

// Infrastructure holds all infrastructure dependencies
type Infrastructure struct {
	Logger   zerolog.Logger
	Registry *catalog.Registry
	Gateway  *gateway.Gateway
}

// NewInfrastructure creates a new infrastructure instance
func NewInfrastructure(
	log zerolog.Logger,
	registry *catalog.Registry,
	gw *gateway.Gateway,
) *Infrastructure {
	return &Infrastructure{
		Logger:   log,
		Registry: registry,
		Gateway:  gw,
	}
}

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config
	ProvideConfig,

	// Logger
	logger.GetLogger,

	// Model catalog
	ProvideRegistry,

	// Provider gateway
	ProvideGateway,

	// Crontab for catalog refresh
	crontab.NewCrontab,

	// Infrastructure struct
	NewInfrastructure,
)
