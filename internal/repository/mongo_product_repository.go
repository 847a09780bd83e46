package repository

import (
	"context"
	"errors"
	"time"

	"inventory-api/internal/logger"
	"inventory-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
)

var MongoProductRepositoryTracer = otel.Tracer("MongoProductRepository")

const (
	productCollection = "product"
	counterCollection = "counter"
	productCounterID  = "product_id"
)

type productDocument struct {
	ID         int                `bson:"_id"`
	Name       string             `bson:"name"`
	Price      float64            `bson:"price"`
	Available  bool               `bson:"available"`
	Categories []categoryDocument `bson:"categories"`
}

type categoryDocument struct {
	ID      int    `bson:"id"`
	Name    string `bson:"name"`
	NameKey string `bson:"name_key"`
	Stock   int    `bson:"stock"`
}

// MongoProductRepository stores each product as one document with its
// categories embedded. Integer ids come from a counter document so they keep
// increasing across deletions and restarts.
type MongoProductRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
	counters   *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		db:         db,
		collection: db.Collection(productCollection),
		counters:   db.Collection(counterCollection),
	}
}

func (r *MongoProductRepository) ListAll(ctx context.Context) ([]model.Product, error) {
	ctx, span := MongoProductRepositoryTracer.Start(ctx, "MongoProductRepository.ListAll")
	defer span.End()

	return r.find(ctx, "list all", bson.M{})
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id int) (model.Product, error) {
	ctx, span := MongoProductRepositoryTracer.Start(ctx, "MongoProductRepository.FindByID")
	defer span.End()

	var doc productDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		return model.Product{}, notFoundOr("find by id", err)
	}
	return doc.toModel(), nil
}

func (r *MongoProductRepository) FindByCategoryName(ctx context.Context, name string) ([]model.Product, error) {
	ctx, span := MongoProductRepositoryTracer.Start(ctx, "MongoProductRepository.FindByCategoryName")
	defer span.End()

	return r.find(ctx, "find by category", bson.M{"categories.name_key": model.CategoryKey(name)})
}

func (r *MongoProductRepository) ListFeatured(ctx context.Context) ([]model.Product, error) {
	ctx, span := MongoProductRepositoryTracer.Start(ctx, "MongoProductRepository.ListFeatured")
	defer span.End()

	products, err := r.find(ctx, "list featured", bson.M{
		"available": true,
		"price":     bson.M{"$gte": model.FeaturedMinPrice},
	})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNoFeatured
	}
	return products, nil
}

func (r *MongoProductRepository) Insert(ctx context.Context, draft model.Product) (model.Product, error) {
	ctx, span := MongoProductRepositoryTracer.Start(ctx, "MongoProductRepository.Insert")
	defer span.End()
	logger.Info(ctx, "MongoProductRepository.Insert")

	id, err := r.nextID(ctx)
	if err != nil {
		span.RecordError(err)
		return model.Product{}, storageError("next id", err)
	}

	doc := toProductDocument(draft)
	doc.ID = id
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		span.RecordError(err)
		return model.Product{}, storageError("insert", err)
	}
	return doc.toModel(), nil
}

func (r *MongoProductRepository) Update(ctx context.Context, id int, patch model.ProductPatch) (model.Product, error) {
	ctx, span := MongoProductRepositoryTracer.Start(ctx, "MongoProductRepository.Update")
	defer span.End()
	logger.Info(ctx, "MongoProductRepository.Update")

	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Available != nil {
		set["available"] = *patch.Available
	}
	if patch.Categories != nil {
		set["categories"] = toCategoryDocuments(*patch.Categories)
	}

	var doc productDocument
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return model.Product{}, notFoundOr("update", err)
	}
	return doc.toModel(), nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id int) (model.Product, error) {
	ctx, span := MongoProductRepositoryTracer.Start(ctx, "MongoProductRepository.Delete")
	defer span.End()
	logger.Info(ctx, "MongoProductRepository.Delete")

	var doc productDocument
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return model.Product{}, notFoundOr("delete", err)
	}
	return doc.toModel(), nil
}

func (r *MongoProductRepository) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.db.Client().Ping(pingCtx, nil); err != nil {
		return storageError("ping", err)
	}
	return nil
}

func (r *MongoProductRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.db.Client().Disconnect(ctx)
}

func (r *MongoProductRepository) find(ctx context.Context, op string, filter bson.M) ([]model.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storageError(op, err)
	}
	defer cursor.Close(ctx)

	products := []model.Product{}
	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, storageError(op, err)
		}
		products = append(products, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return products, nil
}

func (r *MongoProductRepository) nextID(ctx context.Context) (int, error) {
	var counter struct {
		Seq int `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": productCounterID},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	return counter.Seq, err
}

func notFoundOr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return storageError(op, err)
}

func (doc productDocument) toModel() model.Product {
	categories := make([]model.Category, 0, len(doc.Categories))
	for _, c := range doc.Categories {
		categories = append(categories, model.Category{ID: c.ID, Name: c.Name, Stock: c.Stock})
	}
	return model.Product{
		ID:         doc.ID,
		Name:       doc.Name,
		Price:      doc.Price,
		Available:  doc.Available,
		Categories: categories,
	}
}

func toProductDocument(p model.Product) productDocument {
	return productDocument{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Available:  p.Available,
		Categories: toCategoryDocuments(p.Categories),
	}
}

func toCategoryDocuments(categories []model.Category) []categoryDocument {
	docs := make([]categoryDocument, 0, len(categories))
	for _, c := range categories {
		docs = append(docs, categoryDocument{
			ID:      c.ID,
			Name:    c.Name,
			NameKey: model.CategoryKey(c.Name),
			Stock:   c.Stock,
		})
	}
	return docs
}
