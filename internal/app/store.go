package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"studioapi/internal/config"
	"studioapi/internal/database"
	"studioapi/internal/database/migration"
	handlers "studioapi/internal/http/handler"
	"studioapi/internal/model"
	"studioapi/internal/repository"
	"studioapi/internal/repository/mongodb"
	"studioapi/internal/repository/postgres"
)

// Store is the selected persistence backend.
type Store struct {
	Driver string

	sqlDB   *sql.DB
	mongo   *mongo.Client
	mongoDB *mongo.Database
}

// OpenStore connects to the backend named by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.AppConfig) (*Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return PostgresStore(db), nil
	case config.StoreMongo:
		client, db, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		return MongoStore(client, db), nil
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// PostgresStore wraps an open database handle.
func PostgresStore(db *sql.DB) *Store {
	return &Store{Driver: config.StorePostgres, sqlDB: db}
}

// MongoStore wraps a connected client and database.
func MongoStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{Driver: config.StoreMongo, mongo: client, mongoDB: db}
}

// Pinger is used by the health endpoint.
func (s *Store) Pinger() handlers.Pinger {
	if s.sqlDB != nil {
		return s.sqlDB
	}
	return database.MongoPinger{Client: s.mongo}
}

// Migrate applies the Postgres schema or the Mongo indexes.
func (s *Store) Migrate(ctx context.Context, logger *zap.Logger) error {
	if s.sqlDB != nil {
		return migration.Run(ctx, s.sqlDB, logger)
	}
	return database.EnsureMongoIndexes(ctx, s.mongoDB, logger)
}

func (s *Store) Close(ctx context.Context) error {
	if s.sqlDB != nil {
		return s.sqlDB.Close()
	}
	if s.mongo != nil {
		return s.mongo.Disconnect(ctx)
	}
	return nil
}

// newRepo builds the repository for kind on the store's backend.
func newRepo[T any, PT model.Entity[T]](s *Store, kind string) repository.Repository[T] {
	if s.sqlDB != nil {
		return postgres.NewContentPostgres[T, PT](s.sqlDB, kind)
	}
	return mongodb.NewContentMongo[T, PT](s.mongoDB.Collection(kind))
}
