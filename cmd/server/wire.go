//go:build wireinject

package main

import (
	"apex-server/router-api/internal/domain"
	"apex-server/router-api/internal/infrastructure"
	"apex-server/router-api/internal/interfaces"

	"github.com/google/wire"
)

func CreateApplication() (*Application, error) {
	wire.Build(
		domain.ServiceProvider,
		infrastructure.InfrastructureProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}
