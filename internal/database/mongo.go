package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"inventory-api/internal/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// OpenMongo connects to uri with command tracing enabled and verifies the
// connection with a ping.
func OpenMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMonitor(otelmongo.NewMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error(ctx, "Failed to connect to MongoDB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		logger.Error(ctx, "MongoDB ping failed", slog.String("error", err.Error()))
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info(ctx, "Connected to MongoDB successfully", slog.String("database", dbName))
	return &Mongo{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}
