package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/todo/internal/config"
	boltInfra "github.com/fastygo/todo/internal/infrastructure/boltdb"
	pgInfra "github.com/fastygo/todo/internal/infrastructure/postgres"
	sqliteInfra "github.com/fastygo/todo/internal/infrastructure/sqlite"
	"github.com/fastygo/todo/repository"
	"github.com/fastygo/todo/repository/boltdb"
	"github.com/fastygo/todo/repository/postgres"
	"github.com/fastygo/todo/repository/sqlite"
)

// CloseFunc releases the store.
type CloseFunc func(ctx context.Context) error

// Open builds the entity store selected by cfg.Store.Driver, applying
// migrations first for the SQL drivers when enabled.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.TodoRepository, CloseFunc, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("driver", cfg.Store.Driver))

	switch cfg.Store.Driver {
	case config.DriverBolt:
		db, err := boltInfra.Open(cfg.Store.BoltPath, logger, boltdb.Bucket)
		if err != nil {
			return nil, nil, err
		}
		return boltdb.NewTodoRepository(db), func(context.Context) error { return db.Close() }, nil

	case config.DriverSQLite:
		if cfg.Migrations.Enabled {
			if err := sqliteInfra.RunMigrations(cfg.Store.SQLitePath, cfg.MigrationsDir(), logger); err != nil {
				return nil, nil, err
			}
		}
		db, err := sqliteInfra.Open(ctx, cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewTodoRepository(db), func(context.Context) error { return db.Close() }, nil

	case config.DriverPostgres:
		if cfg.Migrations.Enabled {
			if err := pgInfra.RunMigrations(cfg.Database.URL, cfg.MigrationsDir(), cfg.Database.Name, logger); err != nil {
				return nil, nil, err
			}
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewTodoRepository(pool), func(context.Context) error {
			pgInfra.Close(pool, logger)
			return nil
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
