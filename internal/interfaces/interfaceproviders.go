package interfaces

import (
	"apex-server/router-api/internal/interfaces/httpserver"
	"apex-server/router-api/internal/interfaces/httpserver/handlers/routinghandler"
	v1 "apex-server/router-api/internal/interfaces/httpserver/routes/v1"
	"apex-server/router-api/internal/interfaces/httpserver/routes/v1/routingroute"

	"github.com/google/wire"
)

var InterfacesProvider = wire.NewSet(
	routinghandler.NewRoutingHandler,
	routingroute.NewRoutingRoute,
	v1.NewV1Route,
	httpserver.NewHttpServer,
)
