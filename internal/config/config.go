package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Global singleton for packages that cannot take injected config
var globalConfig *Config

// Config holds all environment backed configuration for router-api.
type Config struct {
	// HTTP Server
	HTTPPort    int `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort int `env:"METRICS_PORT" envDefault:"9091"`

	// Model Catalog
	ModelCatalogPath       string `env:"MODEL_CATALOG_PATH" envDefault:"config/models.yml"`
	CatalogRefreshEnabled  bool   `env:"CATALOG_REFRESH_ENABLED" envDefault:"true"`
	CatalogRefreshInterval int    `env:"CATALOG_REFRESH_INTERVAL_MINUTES" envDefault:"60"`

	// Provider Gateway
	GatewayTimeout         time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"120s"`
	GatewayRetryAttempts   int           `env:"GATEWAY_RETRY_ATTEMPTS" envDefault:"3"`
	GatewayBreakerEnabled  bool          `env:"GATEWAY_BREAKER_ENABLED" envDefault:"true"`
	GatewayBreakerTimeout  time.Duration `env:"GATEWAY_BREAKER_TIMEOUT" envDefault:"45s"`
	GatewayBreakerFailures int           `env:"GATEWAY_BREAKER_FAILURES" envDefault:"15"`

	// Observability / Logging
	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	OTLPEndpoint     string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPHeaders      string        `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	ServiceName      string        `env:"SERVICE_NAME" envDefault:"router-api"`
	ServiceNamespace string        `env:"SERVICE_NAMESPACE" envDefault:"apex"`
	Environment      string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"console"`

	// Internal
	EnvReloadedAt time.Time
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.ModelCatalogPath = strings.TrimSpace(cfg.ModelCatalogPath)
	if cfg.ModelCatalogPath == "" {
		cfg.ModelCatalogPath = "config/models.yml"
	}

	if cfg.CatalogRefreshInterval <= 0 {
		cfg.CatalogRefreshInterval = 60
	}

	cfg.EnvReloadedAt = time.Now()
	globalConfig = cfg
	return cfg, nil
}

// GetGlobal returns the last loaded configuration, loading it on first use.
func GetGlobal() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			return nil
		}
		return cfg
	}
	return globalConfig
}

// GetEnvReloadedAt returns when the environment was last reloaded
func GetEnvReloadedAt() time.Time {
	if globalConfig != nil {
		return globalConfig.EnvReloadedAt
	}
	return time.Time{}
}

// Version is stamped at build time via -ldflags.
var Version = "dev"

func IsDev() bool {
	return strings.HasPrefix(Version, "dev")
}
