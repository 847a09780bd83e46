package repository

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"inventory-api/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// setupTestMongo connects to MONGO_URI (default mongodb://localhost:27017)
// and skips the test when MongoDB is not reachable.
func setupTestMongo(t *testing.T) *mongo.Client {
	t.Helper()

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(time.Second))
	if err != nil {
		t.Skipf("MongoDB not available at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("MongoDB not available at %s: %v", uri, err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

// newTestMongoRepository returns a repository over a throwaway database.
func newTestMongoRepository(t *testing.T, client *mongo.Client) (*MongoProductRepository, *mongo.Database) {
	t.Helper()

	db := client.Database("inventory_test_" + strings.ReplaceAll(uuid.NewString(), "-", ""))
	t.Cleanup(func() { _ = db.Drop(context.Background()) })
	return NewMongoProductRepository(db), db
}

func TestMongoProductRepository(t *testing.T) {
	client := setupTestMongo(t)
	runRepositoryContract(t, func(t *testing.T) ProductRepository {
		repo, _ := newTestMongoRepository(t, client)
		return repo
	})
}

func TestMongoProductRepository_IDsComeFromCounter(t *testing.T) {
	ctx := context.Background()
	client := setupTestMongo(t)
	repo, db := newTestMongoRepository(t, client)

	first, err := repo.Insert(ctx, model.Product{Name: "A", Categories: []model.Category{}})
	require.NoError(t, err)
	second, err := repo.Insert(ctx, model.Product{Name: "B", Categories: []model.Category{}})
	require.NoError(t, err)
	_, err = repo.Delete(ctx, second.ID)
	require.NoError(t, err)

	// A second repository over the same database continues the sequence.
	third, err := NewMongoProductRepository(db).Insert(ctx, model.Product{Name: "C", Categories: []model.Category{}})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, []int{first.ID, second.ID, third.ID})
}

func TestMongoProductRepository_StoresCaseFoldedCategoryKey(t *testing.T) {
	ctx := context.Background()
	client := setupTestMongo(t)
	repo, db := newTestMongoRepository(t, client)

	created, err := repo.Insert(ctx, model.Product{
		Name:       "Smartphone X",
		Price:      1200,
		Available:  true,
		Categories: []model.Category{{ID: 1, Name: "ELECTRÓNICA", Stock: 50}},
	})
	require.NoError(t, err)

	var doc productDocument
	require.NoError(t, db.Collection(productCollection).FindOne(ctx, bson.M{"_id": created.ID}).Decode(&doc))
	require.Len(t, doc.Categories, 1)
	assert.Equal(t, "electrónica", doc.Categories[0].NameKey)
	assert.Equal(t, "ELECTRÓNICA", doc.Categories[0].Name)

	found, err := repo.FindByCategoryName(ctx, "Electrónica")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, created, found[0])
}
