package repository

import (
	"context"
	"slices"
	"sync"

	"inventory-api/internal/model"

	"go.opentelemetry.io/otel"
)

var MemoryProductRepositoryTracer = otel.Tracer("MemoryProductRepository")

// MemoryProductRepository keeps products in insertion order for the lifetime
// of the process. Ids come from a counter that only moves forward, so an id
// freed by Delete is never handed out again.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products []model.Product
	lastID   int
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: []model.Product{}}
}

func (r *MemoryProductRepository) ListAll(ctx context.Context) ([]model.Product, error) {
	_, span := MemoryProductRepositoryTracer.Start(ctx, "MemoryProductRepository.ListAll")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(model.Product) bool { return true }), nil
}

func (r *MemoryProductRepository) FindByID(ctx context.Context, id int) (model.Product, error) {
	_, span := MemoryProductRepositoryTracer.Start(ctx, "MemoryProductRepository.FindByID")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(id)
	if i < 0 {
		return model.Product{}, ErrNotFound
	}
	return r.products[i].Clone(), nil
}

func (r *MemoryProductRepository) FindByCategoryName(ctx context.Context, name string) ([]model.Product, error) {
	_, span := MemoryProductRepositoryTracer.Start(ctx, "MemoryProductRepository.FindByCategoryName")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(p model.Product) bool { return p.HasCategory(name) }), nil
}

func (r *MemoryProductRepository) ListFeatured(ctx context.Context) ([]model.Product, error) {
	_, span := MemoryProductRepositoryTracer.Start(ctx, "MemoryProductRepository.ListFeatured")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()
	featured := r.filter(model.Product.IsFeatured)
	if len(featured) == 0 {
		return nil, ErrNoFeatured
	}
	return featured, nil
}

func (r *MemoryProductRepository) Insert(ctx context.Context, draft model.Product) (model.Product, error) {
	_, span := MemoryProductRepositoryTracer.Start(ctx, "MemoryProductRepository.Insert")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastID++
	stored := draft.Clone()
	stored.ID = r.lastID
	r.products = append(r.products, stored)
	return stored.Clone(), nil
}

func (r *MemoryProductRepository) Update(ctx context.Context, id int, patch model.ProductPatch) (model.Product, error) {
	_, span := MemoryProductRepositoryTracer.Start(ctx, "MemoryProductRepository.Update")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return model.Product{}, ErrNotFound
	}
	r.products[i].Apply(patch)
	return r.products[i].Clone(), nil
}

func (r *MemoryProductRepository) Delete(ctx context.Context, id int) (model.Product, error) {
	_, span := MemoryProductRepositoryTracer.Start(ctx, "MemoryProductRepository.Delete")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return model.Product{}, ErrNotFound
	}
	removed := r.products[i]
	r.products = slices.Delete(r.products, i, i+1)
	return removed, nil
}

func (r *MemoryProductRepository) Ping(context.Context) error {
	return nil
}

func (r *MemoryProductRepository) Close() error {
	return nil
}

// indexOf must be called with r.mu held.
func (r *MemoryProductRepository) indexOf(id int) int {
	return slices.IndexFunc(r.products, func(p model.Product) bool { return p.ID == id })
}

// filter must be called with r.mu held.
func (r *MemoryProductRepository) filter(keep func(model.Product) bool) []model.Product {
	out := []model.Product{}
	for _, p := range r.products {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}
