// Package redis provides a Redis-backed cache implementation.
// Use it when more than one server process must see the same sessions.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/cityguide/internal/config"
	"github.com/prn-tf/cityguide/internal/repository"
)

// Cache implements repository.Cache on top of a go-redis client.
type Cache struct {
	client *goredis.Client
	logger zerolog.Logger
}

// NewCache connects to Redis and verifies the connection.
func NewCache(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", repository.ErrCacheUnavailable, err)
	}

	logger.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Msg("Connected to Redis")

	return &Cache{
		client: client,
		logger: logger.With().Str("component", "redis").Logger(),
	}, nil
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", repository.ErrCacheUnavailable, err)
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrCacheMiss
	}
	if err != nil {
		return nil, wrap(err)
	}
	return value, nil
}

// Set stores a value with an optional TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return wrap(c.client.Set(ctx, key, value, ttl).Err())
}

// SetNX sets a value only if the key doesn't exist.
func (c *Cache) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, wrap(err)
	}
	return ok, nil
}

// Delete removes a value by key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return wrap(c.client.Del(ctx, key).Err())
}

// Exists checks if a key exists.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, wrap(err)
	}
	return n > 0, nil
}

// Expire sets or updates the TTL for a key. A ttl of 0 removes the expiry.
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return wrap(c.client.Persist(ctx, key).Err())
	}
	return wrap(c.client.Expire(ctx, key, ttl).Err())
}

// Ping checks the connection.
func (c *Cache) Ping(ctx context.Context) error {
	return wrap(c.client.Ping(ctx).Err())
}

// Close closes the client.
func (c *Cache) Close() error {
	c.logger.Info().Msg("Closing Redis connection")
	return c.client.Close()
}

// Ensure Cache implements repository.Cache.
var _ repository.Cache = (*Cache)(nil)
