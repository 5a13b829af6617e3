package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations when running in dev with AutoMigrate on.
// Non-postgres drivers are skipped since the migrations use postgres DDL.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !shouldAutoRun(cfg) {
		return nil
	}
	if client == nil {
		return fmt.Errorf("db client is required")
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	logg.Info(ctx, "running goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}

func shouldAutoRun(cfg *config.Config) bool {
	if cfg == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return false
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	return driver == "" || driver == db.DriverPostgres
}
