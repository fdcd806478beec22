// Package storage selects the configured saved-route backend.
package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/starmap/internal/config"
	"github.com/cory-johannsen/starmap/internal/route"
	"github.com/cory-johannsen/starmap/internal/storage/postgres"
	"github.com/cory-johannsen/starmap/internal/storage/sqlite"
)

// Open connects the backend named by cfg.Storage.Driver. The "none" driver
// yields a nil store and a no-op closer.
//
// Postcondition: Returns a store and its closer, or a non-nil error.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (route.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pool.Health(ctx, 5*time.Second); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("database health check: %w", err)
		}
		logger.Info("route store ready",
			zap.String("driver", "postgres"),
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Name),
		)
		return pool.Routes(), pool.Close, nil
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("route store ready",
			zap.String("driver", "sqlite"),
			zap.String("path", cfg.Storage.SQLitePath),
		)
		return store, func() { _ = store.Close() }, nil
	case "none", "":
		return nil, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
