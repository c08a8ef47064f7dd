// Package memory provides an in-memory cache implementation.
// This is suitable for single-process deployments where Redis is not available;
// sessions stored here are lost on restart and not shared between processes.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/prn-tf/cityguide/internal/repository"
)

// DefaultCleanupInterval is how often expired entries are swept.
const DefaultCleanupInterval = time.Minute

// Cache implements repository.Cache using in-memory storage.
type Cache struct {
	mu      sync.RWMutex
	items   map[string]*cacheItem
	stopCh  chan struct{}
	stopped bool
}

type cacheItem struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func newItem(value []byte, ttl time.Duration) *cacheItem {
	item := &cacheItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	return item
}

func (i *cacheItem) isExpired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// NewCache creates a new in-memory cache and starts its sweeper.
func NewCache(cleanupInterval time.Duration) *Cache {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}

	c := &Cache{
		items:  make(map[string]*cacheItem),
		stopCh: make(chan struct{}),
	}
	go c.cleanupLoop(cleanupInterval)
	return c
}

func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case now := <-ticker.C:
			c.cleanup(now)
		}
	}
}

func (c *Cache) cleanup(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, item := range c.items {
		if item.isExpired(now) {
			delete(c.items, key)
		}
	}
}

// live returns the item for key if present and unexpired. Caller holds mu.
func (c *Cache) live(key string) (*cacheItem, bool) {
	item, ok := c.items[key]
	if !ok || item.isExpired(time.Now()) {
		return nil, false
	}
	return item, true
}

// Get retrieves a copy of the value stored under key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.live(key)
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return append([]byte(nil), item.value...), nil
}

// Set stores a value with an optional TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = newItem(value, ttl)
	return nil
}

// SetNX sets a value only if the key doesn't exist.
func (c *Cache) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.live(key); ok {
		return false, nil
	}
	c.items[key] = newItem(value, ttl)
	return true, nil
}

// Delete removes a value by key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Exists checks if a key exists.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.live(key)
	return ok, nil
}

// Expire sets or updates the TTL for a key. A ttl of 0 removes the expiry.
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.live(key)
	if !ok {
		return nil
	}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	} else {
		item.expiresAt = time.Time{}
	}
	return nil
}

// Ping always succeeds.
func (c *Cache) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close stops the sweeper. It is safe to call more than once.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stopped {
		close(c.stopCh)
		c.stopped = true
	}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Ensure Cache implements repository.Cache.
var _ repository.Cache = (*Cache)(nil)
