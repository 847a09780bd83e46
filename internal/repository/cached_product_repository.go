package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"inventory-api/internal/logger"
	"inventory-api/internal/model"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"
)

var CachedProductRepositoryTracer = otel.Tracer("CachedProductRepository")

// Cache is the subset of the read cache the repository decorator needs.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	DeletePattern(ctx context.Context, pattern string) error
}

// CachedProductRepository serves reads cache-aside and drops every cached
// entry after a successful write. Cache failures are logged and fall through
// to the wrapped repository.
//
// Every invalidation starts a new generation. A load is stored only if no
// invalidation happened while it ran, and loads never join a flight from an
// older generation.
type CachedProductRepository struct {
	next  ProductRepository
	cache Cache
	group singleflight.Group

	genMu sync.RWMutex
	gen   uint64
}

func NewCachedProductRepository(next ProductRepository, cache Cache) *CachedProductRepository {
	return &CachedProductRepository{next: next, cache: cache}
}

func (r *CachedProductRepository) ListAll(ctx context.Context) ([]model.Product, error) {
	ctx, span := CachedProductRepositoryTracer.Start(ctx, "CachedProductRepository.ListAll")
	defer span.End()

	return readThrough(ctx, r, "all", r.next.ListAll)
}

func (r *CachedProductRepository) FindByID(ctx context.Context, id int) (model.Product, error) {
	ctx, span := CachedProductRepositoryTracer.Start(ctx, "CachedProductRepository.FindByID")
	defer span.End()

	return readThrough(ctx, r, fmt.Sprintf("id:%d", id), func(ctx context.Context) (model.Product, error) {
		return r.next.FindByID(ctx, id)
	})
}

func (r *CachedProductRepository) FindByCategoryName(ctx context.Context, name string) ([]model.Product, error) {
	ctx, span := CachedProductRepositoryTracer.Start(ctx, "CachedProductRepository.FindByCategoryName")
	defer span.End()

	return readThrough(ctx, r, "category:"+model.CategoryKey(name), func(ctx context.Context) ([]model.Product, error) {
		return r.next.FindByCategoryName(ctx, name)
	})
}

func (r *CachedProductRepository) ListFeatured(ctx context.Context) ([]model.Product, error) {
	ctx, span := CachedProductRepositoryTracer.Start(ctx, "CachedProductRepository.ListFeatured")
	defer span.End()

	return readThrough(ctx, r, "featured", r.next.ListFeatured)
}

func (r *CachedProductRepository) Insert(ctx context.Context, draft model.Product) (model.Product, error) {
	ctx, span := CachedProductRepositoryTracer.Start(ctx, "CachedProductRepository.Insert")
	defer span.End()

	created, err := r.next.Insert(ctx, draft)
	if err != nil {
		return model.Product{}, err
	}
	r.invalidate(ctx)
	return created, nil
}

func (r *CachedProductRepository) Update(ctx context.Context, id int, patch model.ProductPatch) (model.Product, error) {
	ctx, span := CachedProductRepositoryTracer.Start(ctx, "CachedProductRepository.Update")
	defer span.End()

	updated, err := r.next.Update(ctx, id, patch)
	if err != nil {
		return model.Product{}, err
	}
	r.invalidate(ctx)
	return updated, nil
}

func (r *CachedProductRepository) Delete(ctx context.Context, id int) (model.Product, error) {
	ctx, span := CachedProductRepositoryTracer.Start(ctx, "CachedProductRepository.Delete")
	defer span.End()

	removed, err := r.next.Delete(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	r.invalidate(ctx)
	return removed, nil
}

func (r *CachedProductRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

func (r *CachedProductRepository) Close() error {
	return r.next.Close()
}

func (r *CachedProductRepository) generation() uint64 {
	r.genMu.RLock()
	defer r.genMu.RUnlock()
	return r.gen
}

// invalidate holds genMu so no store from the previous generation can land
// between the bump and the delete.
func (r *CachedProductRepository) invalidate(ctx context.Context) {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	r.gen++
	if err := r.cache.DeletePattern(ctx, "*"); err != nil {
		logger.Warn(ctx, "Failed to invalidate product cache", slog.String("error", err.Error()))
	}
}

// readThrough answers from the cache when possible. Concurrent misses for the
// same key share a single load. Errors, ErrNotFound included, are not cached.
func readThrough[T any](ctx context.Context, r *CachedProductRepository, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	found, err := r.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn(ctx, "Product cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return cached, nil
	}

	gen := r.generation()
	v, err, _ := r.group.Do(fmt.Sprintf("%d/%s", gen, key), func() (any, error) {
		return load(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	loaded := v.(T)

	r.store(ctx, gen, key, loaded)
	return cloneResult(loaded), nil
}

// store writes value unless the cache was invalidated after gen was read.
func (r *CachedProductRepository) store(ctx context.Context, gen uint64, key string, value any) {
	r.genMu.RLock()
	defer r.genMu.RUnlock()
	if r.gen != gen {
		logger.Debug(ctx, "Skipped caching a load that raced a write", slog.String("key", key))
		return
	}
	if err := r.cache.Set(ctx, key, value); err != nil {
		logger.Warn(ctx, "Product cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// cloneResult detaches a value shared by singleflight callers.
func cloneResult[T any](v T) T {
	switch x := any(v).(type) {
	case model.Product:
		return any(x.Clone()).(T)
	case []model.Product:
		out := make([]model.Product, len(x))
		for i, p := range x {
			out[i] = p.Clone()
		}
		return any(out).(T)
	}
	return v
}
