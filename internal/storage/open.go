package storage

import (
	"context"
	"fmt"

	"le-palanka/internal/config"
	"le-palanka/internal/database"
	"le-palanka/internal/logger"
)

// MigrationsPath is where the postgres backend looks for schema files
var MigrationsPath = "migrations"

// Open builds the backend selected by cfg.Storage.Driver
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (Backend, error) {
	fields := map[string]interface{}{
		"driver": cfg.Storage.Driver,
		"path":   cfg.Storage.Path,
	}

	var (
		backend Backend
		err     error
	)

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		backend = NewMemoryStore()
	case config.DriverFile:
		backend, err = NewFileStore(cfg.Storage.Path)
	case config.DriverSQLite:
		backend, err = NewSQLiteStore(ctx, cfg.Storage.Path)
	case config.DriverPostgres:
		backend, err = openPostgres(ctx, cfg, log)
	default:
		err = fmt.Errorf("unknown storage driver: %q", cfg.Storage.Driver)
	}

	if err != nil {
		log.Error("storage_open_failed", "Failed to open storage backend", "startup", err, fields)
		return nil, err
	}

	log.Info("storage_opened", "Storage backend ready", "startup", fields)
	return backend, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, log *logger.Logger) (Backend, error) {
	db, err := database.New(ctx, cfg.DatabaseURL(), log)
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrations(ctx, MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return NewPostgresStore(db), nil
}
