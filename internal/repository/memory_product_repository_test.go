package repository

import (
	"context"
	"sync"
	"testing"

	"inventory-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProductRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) ProductRepository {
		return NewMemoryProductRepository()
	})
}

func TestMemoryProductRepository_IDsAreNeverReused(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository()

	first, err := repo.Insert(ctx, model.Product{Name: "A", Categories: []model.Category{}})
	require.NoError(t, err)
	second, err := repo.Insert(ctx, model.Product{Name: "B", Categories: []model.Category{}})
	require.NoError(t, err)

	_, err = repo.Delete(ctx, second.ID)
	require.NoError(t, err)

	third, err := repo.Insert(ctx, model.Product{Name: "C", Categories: []model.Category{}})
	require.NoError(t, err)

	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, 3, third.ID)
}

func TestMemoryProductRepository_InsertIgnoresDraftID(t *testing.T) {
	repo := NewMemoryProductRepository()
	created, err := repo.Insert(context.Background(), model.Product{ID: 42, Name: "A", Categories: []model.Category{}})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
}

func TestMemoryProductRepository_ConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository()

	const workers = 50
	var wg sync.WaitGroup
	ids := make(chan int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := repo.Insert(ctx, model.Product{Name: "P", Categories: []model.Category{}})
			assert.NoError(t, err)
			ids <- p.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, workers)
}
