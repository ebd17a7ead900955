package v1

import (
	"net/http"
	"time"

	"apex-server/router-api/internal/config"
	"apex-server/router-api/internal/interfaces/httpserver/routes/v1/routingroute"

	"github.com/gin-gonic/gin"
)

// V1Route groups every /v1 route family.
type V1Route struct {
	routing *routingroute.RoutingRoute
}

func NewV1Route(routing *routingroute.RoutingRoute) *V1Route {
	return &V1Route{routing: routing}
}

func (v *V1Route) RegisterRouter(router gin.IRouter) {
	group := router.Group("/v1")

	group.GET("/version", versionHandler)
	group.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	group.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	v.routing.RegisterRouter(group)
}

// versionHandler reports the build version and when the environment was
// last reloaded by the cron job.
func versionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":         config.Version,
		"env_reloaded_at": config.GetEnvReloadedAt().Format(time.RFC3339),
	})
}
