package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/windy-novel-api/internal/config"
	"github.com/windy-novel-api/internal/models"
)

// DB wraps the mongo database handle with additional functionality
type DB struct {
	client *mongo.Client
	db     *mongo.Database
	log    zerolog.Logger
}

// New connects to MongoDB and verifies the connection
func New(cfg *config.MongoConfig, log zerolog.Logger) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	wrapper := &DB{
		client: client,
		db:     client.Database(cfg.Database),
		log:    log.With().Str("component", "database").Logger(),
	}

	wrapper.log.Info().
		Str("database", cfg.Database).
		Uint64("max_pool_size", cfg.MaxPoolSize).
		Msg("MongoDB connection established")

	return wrapper, nil
}

// Collection returns a handle to the named collection
func (db *DB) Collection(name string) *mongo.Collection {
	return db.db.Collection(name)
}

// Close disconnects the client
func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on. Safe to call
// on every boot; CreateMany is a no-op for indexes that already exist.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	db.log.Info().Msg("Ensuring MongoDB indexes")

	specs := map[string][]mongo.IndexModel{
		models.UserCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "bookmarks.story_id", Value: 1}}},
		},
		models.StoryCollection: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "is_published", Value: 1}}},
			{Keys: bson.D{{Key: "featured", Value: 1}, {Key: "featured_order", Value: 1}}},
			{Keys: bson.D{{Key: "view_count", Value: -1}}},
			{Keys: bson.D{{Key: "updated_at", Value: -1}}},
			{
				Keys: bson.D{
					{Key: "title", Value: "text"},
					{Key: "author", Value: "text"},
					{Key: "description", Value: "text"},
				},
				Options: options.Index().SetName("story_text_search"),
			},
		},
		models.ChapterCollection: {
			{
				Keys:    bson.D{{Key: "story_id", Value: 1}, {Key: "number", Value: 1}},
				Options: options.Index().SetName("uniq_story_number").SetUnique(true),
			},
			{Keys: bson.D{{Key: "is_published", Value: 1}}},
			{Keys: bson.D{{Key: "published_at", Value: -1}}},
		},
		models.CommentCollection: {
			{Keys: bson.D{{Key: "chapter_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "story_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "parent_id", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "is_deleted", Value: 1}}},
		},
	}

	for coll, indexes := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", coll, err)
		}
		db.log.Debug().Str("collection", coll).Int("indexes", len(indexes)).Msg("Indexes ensured")
	}

	return nil
}
