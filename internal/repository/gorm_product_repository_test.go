package repository

import (
	"context"
	"path/filepath"
	"testing"

	"inventory-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh SQLite file under the test's temp dir.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "inventory.sqlite")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func newTestGormRepository(t *testing.T) *GormProductRepository {
	t.Helper()
	repo := NewGormProductRepository(setupTestDB(t))
	require.NoError(t, repo.Migrate())
	return repo
}

func TestGormProductRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) ProductRepository {
		return newTestGormRepository(t)
	})
}

func TestGormProductRepository_DeleteCascadesCategoryRows(t *testing.T) {
	ctx := context.Background()
	repo := newTestGormRepository(t)

	created, err := repo.Insert(ctx, model.Product{
		Name:      "Monitor",
		Price:     300,
		Available: true,
		Categories: []model.Category{
			{ID: 1, Name: "Pantallas", Stock: 4},
			{ID: 2, Name: "Oficina", Stock: 9},
		},
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, repo.db.Model(&categoryRow{}).Where("product_id = ?", created.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	_, err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, repo.db.Model(&categoryRow{}).Where("product_id = ?", created.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGormProductRepository_StorageErrorAfterClose(t *testing.T) {
	repo := newTestGormRepository(t)
	require.NoError(t, repo.Close())

	_, err := repo.ListAll(context.Background())
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "list all", serr.Op)
	assert.NotErrorIs(t, err, ErrNotFound)
}
