// Package open selects and opens the storage backend named by configuration.
package open

import (
	"context"
	"fmt"
	"log/slog"

	"evcircle/internal/config"
	"evcircle/internal/database"
	"evcircle/internal/middleware"
	"evcircle/internal/storage"
	"evcircle/internal/storage/memory"
	"evcircle/internal/storage/mongostore"
	"evcircle/internal/storage/sqlstore"
)

// Open returns the backend selected by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	var (
		s   storage.Storage
		err error
	)
	switch cfg.StorageDriver {
	case config.DriverMemory, "":
		s = memory.New()
	case config.DriverPostgres, config.DriverSQLite:
		db, connErr := database.Connect(cfg)
		if connErr != nil {
			return nil, connErr
		}
		s, err = sqlstore.New(db)
	case config.DriverMongo:
		s, err = mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, err
	}
	middleware.Logger.Info("Storage backend ready", slog.String("backend", s.Backend()))
	return s, nil
}
