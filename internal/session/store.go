// Package session keeps server-side session state (current user and flash
// queue) in a repository.Cache and binds it to requests through a cookie.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/repository"
)

// Store persists sessions as JSON documents with a sliding TTL.
type Store struct {
	cache repository.Cache
	ttl   time.Duration
	keys  repository.CacheKey
}

// NewStore creates a Store backed by cache.
func NewStore(cache repository.Cache, ttl time.Duration) *Store {
	return &Store{cache: cache, ttl: ttl}
}

// Get loads a session by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.cache.Get(ctx, s.keys.Session(id))
	if errors.Is(err, repository.ErrCacheMiss) {
		return nil, domain.NewDomainError(domain.ErrSessionNotFound, "", "")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// A corrupt record is treated as absent; the caller starts a new session.
		_ = s.cache.Delete(ctx, s.keys.Session(id))
		return nil, domain.NewDomainError(domain.ErrSessionNotFound, "corrupt session record", "")
	}
	sess.ID = id
	return &sess, nil
}

// Save writes the session and refreshes its TTL.
func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.cache.Set(ctx, s.keys.Session(sess.ID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Create writes a session under an id that must not exist yet.
// It reports false when the id is already taken.
func (s *Store) Create(ctx context.Context, sess *domain.Session) (bool, error) {
	data, err := json.Marshal(sess)
	if err != nil {
		return false, fmt.Errorf("failed to encode session: %w", err)
	}
	ok, err := s.cache.SetNX(ctx, s.keys.Session(sess.ID), data, s.ttl)
	if err != nil {
		return false, fmt.Errorf("failed to create session: %w", err)
	}
	return ok, nil
}

// Touch extends a stored session's lifetime without rewriting it.
func (s *Store) Touch(ctx context.Context, id string) error {
	if err := s.cache.Expire(ctx, s.keys.Session(id), s.ttl); err != nil {
		return fmt.Errorf("failed to refresh session: %w", err)
	}
	return nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, s.keys.Session(id)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// TTL returns the lifetime applied on every save.
func (s *Store) TTL() time.Duration {
	return s.ttl
}
