package httpserver

import (
	"fmt"
	"net/http"

	"apex-server/router-api/internal/config"
	"apex-server/router-api/internal/infrastructure"
	middleware "apex-server/router-api/internal/interfaces/httpserver/middlewares"
	v1 "apex-server/router-api/internal/interfaces/httpserver/routes/v1"

	"github.com/gin-gonic/gin"
)

// HTTPServer owns the gin engine, its middleware chain and route
// registration.
type HTTPServer struct {
	engine  *gin.Engine
	infra   *infrastructure.Infrastructure
	v1Route *v1.V1Route
	config  *config.Config
}

func NewHttpServer(v1Route *v1.V1Route, infra *infrastructure.Infrastructure, cfg *config.Config) *HTTPServer {
	if config.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.TracingMiddleware(cfg.ServiceName),
		middleware.LoggingMiddleware(infra.Logger),
		middleware.MetricsMiddleware(),
		middleware.CORSMiddleware(),
	)

	// Root-level probes for orchestrators that cannot follow the /v1 prefix.
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	return &HTTPServer{
		engine:  engine,
		infra:   infra,
		v1Route: v1Route,
		config:  cfg,
	}
}

// Run registers the versioned routes and serves until the listener fails.
func (s *HTTPServer) Run() error {
	s.v1Route.RegisterRouter(s.engine.Group("/"))
	return s.engine.Run(fmt.Sprintf(":%d", s.config.HTTPPort))
}
