package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store owns the process-wide Mongo client. It is created once at boot
// and handed to whatever needs the database.
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Connect dials the cluster and verifies it with a ping before returning.
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1).
		SetStrict(true).
		SetDeprecationErrors(true)

	opts := options.Client().
		ApplyURI(cfg.MongoConnectionURI()).
		SetServerAPIOptions(serverAPI).
		SetAppName("inews-backend").
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetTimeout(cfg.StoreTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connected", "database", cfg.MongoDatabase)
	return &Store{Client: client, DB: client.Database(cfg.MongoDatabase)}, nil
}

// EnsureIndexes creates the unique constraints that back registration and
// post submission, plus the lookup indexes of the read routes.
func EnsureIndexes(ctx context.Context, db *mongo.Database, cfg *config.Config) error {
	users := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
		{Keys: bson.D{{Key: "displayName", Value: 1}}, Options: options.Index().SetName("idx_display_name")},
		{Keys: bson.D{{Key: "uid", Value: 1}}, Options: options.Index().SetName("idx_uid").SetSparse(true)},
	}
	posts := []mongo.IndexModel{
		{Keys: bson.D{{Key: "heading", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_heading")},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("idx_category_status")},
	}

	if _, err := db.Collection(cfg.UsersCollection).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", cfg.UsersCollection, err)
	}
	if _, err := db.Collection(cfg.PostsCollection).Indexes().CreateMany(ctx, posts); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", cfg.PostsCollection, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
