package domain

import (
	"github.com/google/wire"

	"apex-server/router-api/internal/domain/catalog"
	"apex-server/router-api/internal/domain/ensemble"
	"apex-server/router-api/internal/domain/routing"
	"apex-server/router-api/internal/infrastructure/gateway"
)

// ServiceProvider provides all domain services
var ServiceProvider = wire.NewSet(
	// Routing engine
	routing.NewRouter,

	// Ensemble aggregation
	ProvideAggregator,
)

// ProvideAggregator binds the gateway as the aggregator's invoker.
func ProvideAggregator(registry *catalog.Registry, gw *gateway.Gateway) *ensemble.Aggregator {
	return ensemble.NewAggregator(registry, gw)
}
