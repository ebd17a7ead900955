package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"apex-server/router-api/internal/config"
	"apex-server/router-api/internal/infrastructure/crontab"
	"apex-server/router-api/internal/infrastructure/logger"
	"apex-server/router-api/internal/infrastructure/observability"
	"apex-server/router-api/internal/interfaces/httpserver"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	_ "net/http/pprof"
)

// Application bundles the long-running components the wire graph produces.
type Application struct {
	httpServer *httpserver.HTTPServer
	crontab    *crontab.Crontab
}

func init() {
	log := logger.GetLogger()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("configure logger")
	}
}

// Start runs the API listener, the metrics and pprof listeners and the cron
// loop. Any of them failing stops the rest through the shared context.
func (app *Application) Start() error {
	cfg := config.GetGlobal()

	eg, ctx := errgroup.WithContext(context.Background())
	eg.Go(func() error {
		// pprof via the default mux
		return http.ListenAndServe("0.0.0.0:6060", nil)
	})
	eg.Go(func() error {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		return http.ListenAndServe(fmt.Sprintf(":%d", cfg.MetricsPort), mux)
	})
	eg.Go(func() error {
		return app.crontab.Run(ctx)
	})
	eg.Go(func() error {
		return app.httpServer.Run()
	})
	return eg.Wait()
}

func main() {
	ctx := context.Background()
	log := logger.GetLogger()

	cfg := config.GetGlobal()
	if cfg == nil {
		log.Fatal().Msg("config not loaded")
	}

	app, err := CreateApplication()
	if err != nil {
		log.Fatal().Err(err).Msg("create application")
	}

	otelShutdown, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize observability")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown telemetry")
			}
		}()
	}

	if err := app.Start(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
