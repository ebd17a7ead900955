package crontab

import (
	"context"
	"fmt"
	"time"

	"apex-server/router-api/internal/config"
	"apex-server/router-api/internal/domain/catalog"
	"apex-server/router-api/internal/infrastructure/logger"
	"apex-server/router-api/internal/utils/platformerrors"

	"github.com/mileusna/crontab"
)

const (
	DefaultRefreshInterval = 60               // in minutes
	CronJobTimeout         = 10 * time.Minute // Timeout for each cron job execution
)

type Crontab struct {
	ctab     *crontab.Crontab
	registry *catalog.Registry
}

func NewCrontab(registry *catalog.Registry) *Crontab {
	return &Crontab{
		ctab:     crontab.New(),
		registry: registry,
	}
}

func (c *Crontab) Run(ctx context.Context) error {
	log := logger.GetLogger()

	cfg := config.GetGlobal()
	if cfg != nil && cfg.CatalogRefreshEnabled {
		interval := cfg.CatalogRefreshInterval
		if interval <= 0 {
			interval = DefaultRefreshInterval
		}

		cronExpr := fmt.Sprintf("*/%d * * * *", interval)
		if interval >= 60 {
			cronExpr = "0 * * * *"
		}
		if err := c.ctab.AddJob(cronExpr, func() {
			c.refreshCatalog(cfg.ModelCatalogPath)
		}); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add catalog refresh job")
		}
		log.Warn().Msgf("Catalog refresh scheduled: every %d minute(s)", interval)
	}

	// Schedule environment reload job
	if err := c.ctab.AddJob("* * * * *", func() {
		config.Load()
	}); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add env reload job")
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

// refreshCatalog re-reads the model catalog file and swaps in the new
// snapshot. In-flight requests keep reading the old snapshot.
func (c *Crontab) refreshCatalog(path string) {
	log := logger.GetLogger()

	if err := c.registry.Reload(path); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to refresh model catalog")
		return
	}
	log.Info().Msgf("Refreshed model catalog: %d models", c.registry.Len())
}
