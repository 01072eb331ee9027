package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"studioapi/internal/config"
	"studioapi/internal/model"
)

var mongoConnect = mongo.Connect

// NewMongo connects to MongoDB, verifies the primary is reachable and returns
// the client together with the configured database handle.
func NewMongo(ctx context.Context, c config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if c.URI == "" || c.Database == "" {
		return nil, nil, fmt.Errorf("invalid mongo config: uri and database are required")
	}

	opts := options.Client().
		ApplyURI(c.URI).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongoConnect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(c.Database), nil
}

// MongoPinger adapts a mongo client to the health check's PingContext contract.
type MongoPinger struct {
	Client *mongo.Client
}

func (p MongoPinger) PingContext(ctx context.Context) error {
	return p.Client.Ping(ctx, readpref.Primary())
}

// EnsureMongoIndexes creates the indexes every content collection relies on:
// created_at for ordering and pruning, plus a unique email on admins.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	start := time.Now()
	for _, name := range model.Collections() {
		models := []mongo.IndexModel{
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		}
		if name == model.KindAdmins {
			models = append(models, mongo.IndexModel{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			})
		}

		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			logger.Error("db_index_failed",
				zap.String("component", "database"),
				zap.String("collection", name),
				zap.Error(err),
			)
			return fmt.Errorf("create indexes for %s: %w", name, err)
		}
	}

	logger.Info("db_index_success",
		zap.String("component", "database"),
		zap.Int("collections", len(model.Collections())),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
