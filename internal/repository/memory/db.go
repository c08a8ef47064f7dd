package memory

import (
	"context"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/repository"
)

// DB is the no-op database handle of the memory backend.
type DB struct{}

// Ping always succeeds.
func (DB) Ping(ctx context.Context) error { return ctx.Err() }

// Close is a no-op.
func (DB) Close() error { return nil }

// NewBackend creates empty repositories for every category.
func NewBackend() *repository.Backend {
	listings := make(map[domain.Category]repository.ListingRepository)
	for _, c := range domain.AllCategories() {
		listings[c] = NewListingRepository(c)
	}

	return &repository.Backend{
		Repos: &repository.Repositories{
			User:     NewUserRepository(),
			Listings: listings,
		},
		Database: DB{},
	}
}
