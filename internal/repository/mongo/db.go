// Package mongo provides MongoDB implementations of the repository interfaces.
// Each category lives in its own collection with comments embedded in the
// listing document, so every mutation is a single-document update.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/prn-tf/cityguide/internal/config"
	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/repository"
)

const usersCollection = "users"

// DB wraps a MongoDB client and the application database.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
	logger zerolog.Logger
}

// Connect opens a client and pings the primary within cfg.ConnectTimeout.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URL).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	name := cfg.DatabaseName()
	if name == "" {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo database name missing from %q", cfg.URL)
	}

	logger.Info().
		Str("database", name).
		Msg("Connected to MongoDB")

	return &DB{
		client: client,
		db:     client.Database(name),
		logger: logger.With().Str("component", "mongo").Logger(),
	}, nil
}

// EnsureIndexes creates the unique username index. It is safe to call repeatedly.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	_, err := d.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create username index: %w", err)
	}
	d.logger.Debug().Msg("indexes ensured")
	return nil
}

// Ping checks connectivity to the primary.
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (d *DB) Close() error {
	d.logger.Info().Msg("Closing MongoDB connection")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}

// NewBackend builds repositories for every category on top of d.
func NewBackend(d *DB) *repository.Backend {
	listings := make(map[domain.Category]repository.ListingRepository)
	for _, c := range domain.AllCategories() {
		listings[c] = NewListingRepository(d, c)
	}

	return &repository.Backend{
		Repos: &repository.Repositories{
			User:     NewUserRepository(d),
			Listings: listings,
		},
		Database: d,
	}
}
