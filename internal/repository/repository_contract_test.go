package repository

import (
	"context"
	"errors"
	"testing"

	"inventory-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRepositoryContract checks the behaviour every ProductRepository shares.
// newRepo must return an empty repository.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) ProductRepository) {
	t.Helper()

	seeded := func(t *testing.T) ProductRepository {
		repo := newRepo(t)
		n, err := Seed(context.Background(), repo, model.SeedProducts())
		require.NoError(t, err)
		require.Equal(t, 3, n)
		return repo
	}

	t.Run("ListAll returns products in id order", func(t *testing.T) {
		repo := seeded(t)
		products, err := repo.ListAll(context.Background())
		require.NoError(t, err)
		require.Len(t, products, 3)
		assert.Equal(t, "Smartphone X", products[0].Name)
		assert.Equal(t, "Laptop Pro", products[1].Name)
		assert.Equal(t, "Auriculares Inalámbricos", products[2].Name)
		assert.Less(t, products[0].ID, products[1].ID)
		assert.Less(t, products[1].ID, products[2].ID)
	})

	t.Run("ListAll on empty repository is an empty slice", func(t *testing.T) {
		repo := newRepo(t)
		products, err := repo.ListAll(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, products)
		assert.Empty(t, products)
	})

	t.Run("FindByID keeps category order and values", func(t *testing.T) {
		repo := seeded(t)
		all, err := repo.ListAll(context.Background())
		require.NoError(t, err)

		p, err := repo.FindByID(context.Background(), all[1].ID)
		require.NoError(t, err)
		assert.Equal(t, "Laptop Pro", p.Name)
		assert.Equal(t, 2500.0, p.Price)
		assert.True(t, p.Available)
		assert.Equal(t, []model.Category{
			{ID: 1, Name: "Computadoras", Stock: 20},
			{ID: 2, Name: "Electrónica", Stock: 30},
		}, p.Categories)
	})

	t.Run("FindByID unknown id", func(t *testing.T) {
		repo := seeded(t)
		for _, id := range []int{-1, 0, 999} {
			_, err := repo.FindByID(context.Background(), id)
			assert.ErrorIs(t, err, ErrNotFound, "id %d", id)
		}
	})

	t.Run("FindByCategoryName ignores case including non-ASCII", func(t *testing.T) {
		repo := seeded(t)
		lower, err := repo.FindByCategoryName(context.Background(), "electrónica")
		require.NoError(t, err)
		upper, err := repo.FindByCategoryName(context.Background(), "ELECTRÓNICA")
		require.NoError(t, err)

		require.Len(t, lower, 2)
		assert.Equal(t, lower, upper)
		assert.Equal(t, "Smartphone X", lower[0].Name)
		assert.Equal(t, "Laptop Pro", lower[1].Name)
	})

	t.Run("FindByCategoryName without matches", func(t *testing.T) {
		repo := seeded(t)
		products, err := repo.FindByCategoryName(context.Background(), "Jardín")
		require.NoError(t, err)
		assert.NotNil(t, products)
		assert.Empty(t, products)
	})

	t.Run("FindByCategoryName requires an exact name", func(t *testing.T) {
		repo := seeded(t)
		products, err := repo.FindByCategoryName(context.Background(), "Electr")
		require.NoError(t, err)
		assert.Empty(t, products)
	})

	t.Run("ListFeatured is the available subset priced from 1000", func(t *testing.T) {
		repo := seeded(t)
		ctx := context.Background()

		_, err := repo.Insert(ctx, model.Product{Name: "Edge", Price: 1000, Available: true, Categories: []model.Category{}})
		require.NoError(t, err)
		_, err = repo.Insert(ctx, model.Product{Name: "Hidden", Price: 5000, Available: false, Categories: []model.Category{}})
		require.NoError(t, err)

		featured, err := repo.ListFeatured(ctx)
		require.NoError(t, err)

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		var want []model.Product
		for _, p := range all {
			if p.Available && p.Price >= model.FeaturedMinPrice {
				want = append(want, p)
			}
		}
		assert.Equal(t, want, featured)
		assert.Len(t, featured, 3)
	})

	t.Run("ListFeatured with no qualifying product", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Insert(context.Background(), model.Product{Name: "Cheap", Price: 10, Available: true, Categories: []model.Category{}})
		require.NoError(t, err)

		_, err = repo.ListFeatured(context.Background())
		assert.ErrorIs(t, err, ErrNoFeatured)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Insert assigns fresh increasing ids", func(t *testing.T) {
		repo := seeded(t)
		ctx := context.Background()
		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		maxID := all[len(all)-1].ID

		created, err := repo.Insert(ctx, model.Product{
			Name:       "Mouse",
			Price:      25,
			Available:  true,
			Categories: []model.Category{{ID: 1, Name: "Accesorios", Stock: 10}},
		})
		require.NoError(t, err)
		assert.Greater(t, created.ID, maxID)

		got, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("Update applies only present fields", func(t *testing.T) {
		repo := seeded(t)
		ctx := context.Background()
		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		before := all[0]

		price := 500.0
		updated, err := repo.Update(ctx, before.ID, model.ProductPatch{Price: &price})
		require.NoError(t, err)

		want := before.Clone()
		want.Price = 500
		assert.Equal(t, want, updated)

		got, err := repo.FindByID(ctx, before.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Update applies falsy values", func(t *testing.T) {
		repo := seeded(t)
		ctx := context.Background()
		all, err := repo.ListAll(ctx)
		require.NoError(t, err)

		available := false
		price := 0.0
		empty := []model.Category{}
		updated, err := repo.Update(ctx, all[0].ID, model.ProductPatch{
			Price:      &price,
			Available:  &available,
			Categories: &empty,
		})
		require.NoError(t, err)
		assert.Equal(t, 0.0, updated.Price)
		assert.False(t, updated.Available)
		assert.Empty(t, updated.Categories)
		assert.Equal(t, "Smartphone X", updated.Name)

		matches, err := repo.FindByCategoryName(ctx, "Electrónica")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "Laptop Pro", matches[0].Name)
	})

	t.Run("Update replaces categories", func(t *testing.T) {
		repo := seeded(t)
		ctx := context.Background()
		all, err := repo.ListAll(ctx)
		require.NoError(t, err)

		categories := []model.Category{{ID: 7, Name: "Gaming", Stock: 3}}
		updated, err := repo.Update(ctx, all[2].ID, model.ProductPatch{Categories: &categories})
		require.NoError(t, err)
		assert.Equal(t, categories, updated.Categories)

		gaming, err := repo.FindByCategoryName(ctx, "gaming")
		require.NoError(t, err)
		require.Len(t, gaming, 1)
		assert.Equal(t, all[2].ID, gaming[0].ID)
	})

	t.Run("Update unknown id", func(t *testing.T) {
		repo := seeded(t)
		name := "Ghost"
		_, err := repo.Update(context.Background(), 999, model.ProductPatch{Name: &name})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete removes the product and its categories", func(t *testing.T) {
		repo := seeded(t)
		ctx := context.Background()
		all, err := repo.ListAll(ctx)
		require.NoError(t, err)

		removed, err := repo.Delete(ctx, all[2].ID)
		require.NoError(t, err)
		assert.Equal(t, all[2], removed)

		_, err = repo.FindByID(ctx, all[2].ID)
		assert.ErrorIs(t, err, ErrNotFound)

		audio, err := repo.FindByCategoryName(ctx, "Audio")
		require.NoError(t, err)
		assert.Empty(t, audio)

		rest, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, rest, 2)
	})

	t.Run("Delete unknown id leaves the collection unchanged", func(t *testing.T) {
		repo := seeded(t)
		ctx := context.Background()
		before, err := repo.ListAll(ctx)
		require.NoError(t, err)

		_, err = repo.Delete(ctx, 999)
		assert.True(t, errors.Is(err, ErrNotFound))

		after, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("returned products do not alias stored state", func(t *testing.T) {
		repo := seeded(t)
		ctx := context.Background()
		all, err := repo.ListAll(ctx)
		require.NoError(t, err)

		p, err := repo.FindByID(ctx, all[0].ID)
		require.NoError(t, err)
		p.Categories[0].Stock = 0
		p.Name = "changed"

		again, err := repo.FindByID(ctx, all[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "Smartphone X", again.Name)
		assert.Equal(t, 50, again.Categories[0].Stock)
	})

	t.Run("Seed skips a repository that has products", func(t *testing.T) {
		repo := seeded(t)
		n, err := Seed(context.Background(), repo, model.SeedProducts())
		require.NoError(t, err)
		assert.Zero(t, n)

		all, err := repo.ListAll(context.Background())
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("Ping", func(t *testing.T) {
		repo := newRepo(t)
		assert.NoError(t, repo.Ping(context.Background()))
	})
}
