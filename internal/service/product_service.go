package service

import (
	"context"
	"log/slog"

	"inventory-api/internal/logger"
	"inventory-api/internal/model"
	"inventory-api/internal/repository"
	"inventory-api/internal/validator"

	"go.opentelemetry.io/otel"
)

var ProductServiceTracer = otel.Tracer("ProductService")

// ProductService validates write payloads and delegates to the repository.
// Errors from the repository are returned unchanged so callers can match
// repository.ErrNotFound and *repository.StorageError.
type ProductService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) GetAll(ctx context.Context) ([]model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.GetAll")
	defer span.End()

	return s.repo.ListAll(ctx)
}

func (s *ProductService) GetByID(ctx context.Context, id int) (model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.GetByID")
	defer span.End()

	return s.repo.FindByID(ctx, id)
}

func (s *ProductService) GetByCategory(ctx context.Context, name string) ([]model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.GetByCategory")
	defer span.End()

	return s.repo.FindByCategoryName(ctx, name)
}

func (s *ProductService) GetFeatured(ctx context.Context) ([]model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.GetFeatured")
	defer span.End()

	products, err := s.repo.ListFeatured(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Featured products", productAttrs(products)...)
	return products, nil
}

// Create validates body as a full product and stores it.
func (s *ProductService) Create(ctx context.Context, body []byte) (model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Create")
	defer span.End()

	draft, err := validator.ValidateCreate(body)
	if err != nil {
		span.RecordError(err)
		return model.Product{}, err
	}

	created, err := s.repo.Insert(ctx, draft)
	if err != nil {
		return model.Product{}, err
	}
	logger.Info(ctx, "Product created", productAttrs([]model.Product{created})...)
	return created, nil
}

// Update reports a missing product before it looks at the payload.
func (s *ProductService) Update(ctx context.Context, id int, body []byte) (model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Update")
	defer span.End()

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return model.Product{}, err
	}

	patch, err := validator.ValidateUpdate(body)
	if err != nil {
		span.RecordError(err)
		return model.Product{}, err
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return model.Product{}, err
	}
	logger.Info(ctx, "Product updated", productAttrs([]model.Product{updated})...)
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id int) (model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Delete")
	defer span.End()

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	logger.Info(ctx, "Product deleted", productAttrs([]model.Product{removed})...)
	return removed, nil
}

func productAttrs(products []model.Product) []slog.Attr {
	ids := make([]int, 0, len(products))
	names := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
		names = append(names, p.Name)
	}
	return []slog.Attr{
		slog.Int("product.count", len(products)),
		slog.Any("product.ids", ids),
		slog.Any("product.names", names),
	}
}
