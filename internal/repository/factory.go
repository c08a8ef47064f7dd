package repository

import (
	"context"

	"github.com/prn-tf/cityguide/internal/domain"
)

// Repositories holds all repository instances.
type Repositories struct {
	User     UserRepository
	Listings map[domain.Category]ListingRepository
}

// Listing returns the repository for category c.
func (r *Repositories) Listing(c domain.Category) ListingRepository {
	return r.Listings[c]
}

// DatabaseHealth is an interface for database health checks.
// This interface satisfies handler.HealthChecker for the health endpoint.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}

// Backend is an opened database together with its repositories.
type Backend struct {
	Repos    *Repositories
	Database DatabaseHealth
}
