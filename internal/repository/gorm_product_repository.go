package repository

import (
	"context"
	"errors"

	"inventory-api/internal/model"

	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var GormProductRepositoryTracer = otel.Tracer("GormProductRepository")

type productRow struct {
	ID         uint          `gorm:"primaryKey;autoIncrement"`
	Name       string        `gorm:"size:255;not null"`
	Price      float64       `gorm:"not null"`
	Available  bool          `gorm:"not null"`
	Categories []categoryRow `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (productRow) TableName() string {
	return "products"
}

// categoryRow stores one category owned by a product. NameKey holds the
// case-folded name because SQLite's LOWER only folds ASCII.
type categoryRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	ProductID  uint   `gorm:"index;not null"`
	Position   int    `gorm:"not null"`
	CategoryID int    `gorm:"not null"`
	Name       string `gorm:"size:255;not null"`
	NameKey    string `gorm:"size:255;index;not null"`
	Stock      int    `gorm:"not null"`
}

func (categoryRow) TableName() string {
	return "categories"
}

// GormProductRepository persists products through GORM. Categories live in
// their own table and are replaced wholesale with their product.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Migrate creates or updates the products and categories tables.
func (r *GormProductRepository) Migrate() error {
	if err := r.db.AutoMigrate(&productRow{}, &categoryRow{}); err != nil {
		return storageError("migrate", err)
	}
	return nil
}

func (r *GormProductRepository) ListAll(ctx context.Context) ([]model.Product, error) {
	ctx, span := GormProductRepositoryTracer.Start(ctx, "GormProductRepository.ListAll")
	defer span.End()

	var rows []productRow
	if err := r.withCategories(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, storageError("list all", err)
	}
	return toProducts(rows), nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id int) (model.Product, error) {
	ctx, span := GormProductRepositoryTracer.Start(ctx, "GormProductRepository.FindByID")
	defer span.End()

	row, err := r.first(r.withCategories(ctx), id)
	if err != nil {
		return model.Product{}, err
	}
	return row.toModel(), nil
}

func (r *GormProductRepository) FindByCategoryName(ctx context.Context, name string) ([]model.Product, error) {
	ctx, span := GormProductRepositoryTracer.Start(ctx, "GormProductRepository.FindByCategoryName")
	defer span.End()

	owners := r.db.WithContext(ctx).Model(&categoryRow{}).
		Select("product_id").
		Where("name_key = ?", model.CategoryKey(name))

	var rows []productRow
	if err := r.withCategories(ctx).Where("id IN (?)", owners).Order("id ASC").Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, storageError("find by category", err)
	}
	return toProducts(rows), nil
}

func (r *GormProductRepository) ListFeatured(ctx context.Context) ([]model.Product, error) {
	ctx, span := GormProductRepositoryTracer.Start(ctx, "GormProductRepository.ListFeatured")
	defer span.End()

	var rows []productRow
	err := r.withCategories(ctx).
		Where("available = ? AND price >= ?", true, model.FeaturedMinPrice).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, storageError("list featured", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoFeatured
	}
	return toProducts(rows), nil
}

func (r *GormProductRepository) Insert(ctx context.Context, draft model.Product) (model.Product, error) {
	ctx, span := GormProductRepositoryTracer.Start(ctx, "GormProductRepository.Insert")
	defer span.End()

	row := productRow{
		Name:       draft.Name,
		Price:      draft.Price,
		Available:  draft.Available,
		Categories: toCategoryRows(0, draft.Categories),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		span.RecordError(err)
		return model.Product{}, storageError("insert", err)
	}
	return row.toModel(), nil
}

func (r *GormProductRepository) Update(ctx context.Context, id int, patch model.ProductPatch) (model.Product, error) {
	ctx, span := GormProductRepositoryTracer.Start(ctx, "GormProductRepository.Update")
	defer span.End()

	var updated model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := r.first(tx.Preload("Categories", byPosition), id)
		if err != nil {
			return err
		}
		updated = row.toModel()
		updated.Apply(patch)

		fields := map[string]any{}
		if patch.Name != nil {
			fields["name"] = updated.Name
		}
		if patch.Price != nil {
			fields["price"] = updated.Price
		}
		if patch.Available != nil {
			fields["available"] = updated.Available
		}
		if len(fields) > 0 {
			if err := tx.Model(&productRow{}).Where("id = ?", row.ID).Updates(fields).Error; err != nil {
				return storageError("update", err)
			}
		}

		if patch.Categories != nil {
			if err := tx.Where("product_id = ?", row.ID).Delete(&categoryRow{}).Error; err != nil {
				return storageError("update categories", err)
			}
			if rows := toCategoryRows(row.ID, updated.Categories); len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return storageError("update categories", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return model.Product{}, err
	}
	return updated, nil
}

func (r *GormProductRepository) Delete(ctx context.Context, id int) (model.Product, error) {
	ctx, span := GormProductRepositoryTracer.Start(ctx, "GormProductRepository.Delete")
	defer span.End()

	var removed model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := r.first(tx.Preload("Categories", byPosition), id)
		if err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", row.ID).Delete(&categoryRow{}).Error; err != nil {
			return storageError("delete categories", err)
		}
		if err := tx.Delete(&productRow{}, row.ID).Error; err != nil {
			return storageError("delete", err)
		}
		removed = row.toModel()
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return model.Product{}, err
	}
	return removed, nil
}

func (r *GormProductRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return storageError("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storageError("ping", err)
	}
	return nil
}

func (r *GormProductRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return storageError("close", err)
	}
	return sqlDB.Close()
}

func (r *GormProductRepository) withCategories(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Categories", byPosition)
}

func (r *GormProductRepository) first(q *gorm.DB, id int) (productRow, error) {
	var row productRow
	if id <= 0 {
		return row, ErrNotFound
	}
	if err := q.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return row, ErrNotFound
		}
		return row, storageError("find by id", err)
	}
	return row, nil
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (row productRow) toModel() model.Product {
	categories := make([]model.Category, 0, len(row.Categories))
	for _, c := range row.Categories {
		categories = append(categories, model.Category{ID: c.CategoryID, Name: c.Name, Stock: c.Stock})
	}
	return model.Product{
		ID:         int(row.ID),
		Name:       row.Name,
		Price:      row.Price,
		Available:  row.Available,
		Categories: categories,
	}
}

func toProducts(rows []productRow) []model.Product {
	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toModel())
	}
	return products
}

func toCategoryRows(productID uint, categories []model.Category) []categoryRow {
	rows := make([]categoryRow, 0, len(categories))
	for i, c := range categories {
		rows = append(rows, categoryRow{
			ProductID:  productID,
			Position:   i,
			CategoryID: c.ID,
			Name:       c.Name,
			NameKey:    model.CategoryKey(c.Name),
			Stock:      c.Stock,
		})
	}
	return rows
}
