package repository

import (
	"context"
	"errors"
	"fmt"

	"inventory-api/internal/model"
)

// ErrNotFound is returned when no product matches an id or a policy-gated query.
var ErrNotFound = errors.New("product not found")

// ErrNoFeatured is returned by ListFeatured when no product qualifies.
var ErrNoFeatured = fmt.Errorf("no featured products available: %w", ErrNotFound)

// StorageError wraps a failure of the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// ProductRepository is the sole owner of product state. Every implementation
// returns products that share no memory with its own copy.
type ProductRepository interface {
	ListAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id int) (model.Product, error)
	FindByCategoryName(ctx context.Context, name string) ([]model.Product, error)
	ListFeatured(ctx context.Context) ([]model.Product, error)
	Insert(ctx context.Context, draft model.Product) (model.Product, error)
	Update(ctx context.Context, id int, patch model.ProductPatch) (model.Product, error)
	Delete(ctx context.Context, id int) (model.Product, error)
	Ping(ctx context.Context) error
	Close() error
}

// Seed inserts products into repo when it holds none. It returns the number
// of products inserted.
func Seed(ctx context.Context, repo ProductRepository, products []model.Product) (int, error) {
	existing, err := repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, p := range products {
		if _, err := repo.Insert(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(products), nil
}
