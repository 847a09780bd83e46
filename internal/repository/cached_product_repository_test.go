package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"inventory-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failGet bool
	failSet bool
	failDel bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return false, errors.New("cache down")
	}
	b, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet {
		return errors.New("cache down")
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = b
	return nil
}

func (c *fakeCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failDel {
		return errors.New("cache down")
	}
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *fakeCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	return out
}

// countingRepository counts reads that reach the wrapped repository.
type countingRepository struct {
	ProductRepository
	reads atomic.Int64
}

func (r *countingRepository) ListAll(ctx context.Context) ([]model.Product, error) {
	r.reads.Add(1)
	return r.ProductRepository.ListAll(ctx)
}

func (r *countingRepository) FindByID(ctx context.Context, id int) (model.Product, error) {
	r.reads.Add(1)
	return r.ProductRepository.FindByID(ctx, id)
}

func (r *countingRepository) ListFeatured(ctx context.Context) ([]model.Product, error) {
	r.reads.Add(1)
	return r.ProductRepository.ListFeatured(ctx)
}

func newTestCachedRepository(t *testing.T) (*CachedProductRepository, *countingRepository, *fakeCache) {
	t.Helper()
	inner := &countingRepository{ProductRepository: NewMemoryProductRepository()}
	c := newFakeCache()
	return NewCachedProductRepository(inner, c), inner, c
}

func TestCachedProductRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) ProductRepository {
		repo, _, _ := newTestCachedRepository(t)
		return repo
	})
}

func TestCachedProductRepository_ServesRepeatedReadsFromCache(t *testing.T) {
	ctx := context.Background()
	repo, inner, c := newTestCachedRepository(t)
	_, err := Seed(ctx, repo, model.SeedProducts())
	require.NoError(t, err)
	inner.reads.Store(0)

	first, err := repo.ListAll(ctx)
	require.NoError(t, err)
	second, err := repo.ListAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, inner.reads.Load())
	assert.Contains(t, c.keys(), "all")
}

func TestCachedProductRepository_WritesInvalidate(t *testing.T) {
	ctx := context.Background()
	repo, _, c := newTestCachedRepository(t)
	_, err := Seed(ctx, repo, model.SeedProducts())
	require.NoError(t, err)

	featured, err := repo.ListFeatured(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 2)
	_, err = repo.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotEmpty(t, c.keys())

	price := 500.0
	_, err = repo.Update(ctx, 1, model.ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.Empty(t, c.keys())

	featured, err = repo.ListFeatured(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "Laptop Pro", featured[0].Name)

	got, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 500.0, got.Price)
}

func TestCachedProductRepository_DoesNotCacheNotFound(t *testing.T) {
	ctx := context.Background()
	repo, inner, c := newTestCachedRepository(t)

	_, err := repo.FindByID(ctx, 1)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, c.keys())

	created, err := repo.Insert(ctx, model.Product{Name: "A", Price: 1, Categories: []model.Category{}})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.EqualValues(t, 2, inner.reads.Load())
}

func TestCachedProductRepository_FallsThroughWhenCacheFails(t *testing.T) {
	ctx := context.Background()
	repo, inner, c := newTestCachedRepository(t)
	_, err := Seed(ctx, repo, model.SeedProducts())
	require.NoError(t, err)
	c.failGet, c.failSet, c.failDel = true, true, true
	inner.reads.Store(0)

	for i := 0; i < 2; i++ {
		products, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, products, 3)
	}
	assert.EqualValues(t, 2, inner.reads.Load())

	_, err = repo.Delete(ctx, 3)
	assert.NoError(t, err)
}

func TestCachedProductRepository_CategoryKeyIsCaseFolded(t *testing.T) {
	ctx := context.Background()
	repo, _, c := newTestCachedRepository(t)
	_, err := Seed(ctx, repo, model.SeedProducts())
	require.NoError(t, err)

	_, err = repo.FindByCategoryName(ctx, "ACCESORIOS")
	require.NoError(t, err)
	_, err = repo.FindByCategoryName(ctx, "accesorios")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"category:accesorios"}, c.keys())
}

// pausingRepository takes its ListAll snapshot, then waits for release
// before returning it.
type pausingRepository struct {
	ProductRepository
	started chan struct{}
	release chan struct{}
}

func (r *pausingRepository) ListAll(ctx context.Context) ([]model.Product, error) {
	products, err := r.ProductRepository.ListAll(ctx)
	close(r.started)
	<-r.release
	return products, err
}

func TestCachedProductRepository_LoadOverlappingWriteIsNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &pausingRepository{
		ProductRepository: NewMemoryProductRepository(),
		started:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	c := newFakeCache()
	repo := NewCachedProductRepository(inner, c)

	type result struct {
		products []model.Product
		err      error
	}
	done := make(chan result, 1)
	go func() {
		products, err := repo.ListAll(ctx)
		done <- result{products, err}
	}()

	<-inner.started
	_, err := repo.Insert(ctx, model.Product{Name: "Teclado", Price: 45, Available: true, Categories: []model.Category{}})
	require.NoError(t, err)
	close(inner.release)

	stale := <-done
	require.NoError(t, stale.err)
	assert.Empty(t, stale.products)
	assert.Empty(t, c.keys())

	inner.started = make(chan struct{})

	fresh, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
	assert.Equal(t, []string{"all"}, c.keys())
}
