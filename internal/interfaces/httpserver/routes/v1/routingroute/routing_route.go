package routingroute

import (
	"github.com/gin-gonic/gin"

	"apex-server/router-api/internal/interfaces/httpserver/handlers/routinghandler"
)

// RoutingRoute binds the routing engine endpoints under /v1.
type RoutingRoute struct {
	handler *routinghandler.RoutingHandler
}

func NewRoutingRoute(handler *routinghandler.RoutingHandler) *RoutingRoute {
	return &RoutingRoute{handler: handler}
}

func (r *RoutingRoute) RegisterRouter(router gin.IRouter) {
	routing := router.Group("/routing")
	routing.POST("/select", r.handler.SelectModel)
	routing.POST("/ensemble", r.handler.CombineEnsemble)

	router.POST("/chat/completions", r.handler.ChatCompletions)
	router.GET("/models", r.handler.ListModels)
}
