// Package app assembles the storage stack selected by configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"inventory-api/internal/cache"
	"inventory-api/internal/config"
	"inventory-api/internal/database"
	"inventory-api/internal/logger"
	"inventory-api/internal/model"
	"inventory-api/internal/repository"
)

// Storage is the product repository handed to the services plus the cache
// behind it, if any.
type Storage struct {
	Products repository.ProductRepository
	Cache    *cache.Cache
}

// OpenStorage opens the configured backend, seeds it when asked and wraps it
// with the Redis cache when REDIS_ADDR is set.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.SeedData {
		n, err := repository.Seed(ctx, repo, model.SeedProducts())
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("seed products: %w", err)
		}
		logger.Info(ctx, "Seeded product catalogue", slog.Int("inserted", n))
	}

	storage := &Storage{Products: repo}
	if !cfg.CacheEnabled() {
		return storage, nil
	}

	c, err := cache.Connect(ctx, cfg.RedisAddr, cfg.CachePrefix, cfg.CacheTTL)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	// Entries written by a previous process may describe a different dataset.
	if err := c.DeletePattern(ctx, "*"); err != nil {
		logger.Warn(ctx, "Failed to clear product cache", slog.String("error", err.Error()))
	}
	logger.Info(ctx, "Product cache enabled", slog.String("addr", cfg.RedisAddr))

	storage.Cache = c
	storage.Products = repository.NewCachedProductRepository(repo, c)
	return storage, nil
}

// Close releases the cache and the backend.
func (s *Storage) Close() error {
	var errs []error
	if s.Cache != nil {
		logger.Info(context.Background(), "Product cache stats", slog.Any("stats", s.Cache.Stats()))
		errs = append(errs, s.Cache.Close())
	}
	errs = append(errs, s.Products.Close())
	return errors.Join(errs...)
}

func openRepository(ctx context.Context, cfg *config.Config) (repository.ProductRepository, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return repository.NewMemoryProductRepository(), nil

	case config.DriverSQLite, config.DriverPostgres:
		open := database.OpenSQLite
		target := cfg.SQLitePath
		if cfg.StorageDriver == config.DriverPostgres {
			open = database.OpenPostgres
			target = cfg.PostgresDSN
		}
		db, err := open(ctx, target, cfg.DBDebug)
		if err != nil {
			return nil, err
		}
		repo := repository.NewGormProductRepository(db)
		if err := repo.Migrate(); err != nil {
			_ = repo.Close()
			return nil, err
		}
		return repo, nil

	case config.DriverMongo:
		m, err := database.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		return repository.NewMongoProductRepository(m.Database), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
