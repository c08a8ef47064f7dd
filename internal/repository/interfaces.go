// Package repository defines data access interfaces for the City Guide directory.
// These interfaces abstract database operations, allowing for different implementations
// (MongoDB, PostgreSQL, SQLite, in-memory for testing) while keeping the service layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/cityguide/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
// Username uniqueness must be enforced by the store itself (unique index or
// constraint) and reported as domain.ErrUserAlreadyExists.
type UserRepository interface {
	// Create creates a new user and assigns its ID.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Count returns the number of registered users.
	Count(ctx context.Context) (int64, error)
}

// =============================================================================
// Listing Repository
// =============================================================================

// ListingRepository defines data access for the listings of one category.
// Every mutating method is a single atomic store operation; implementations
// must never read, modify in memory, and write back.
type ListingRepository interface {
	// Category returns the category this repository serves.
	Category() domain.Category

	// FindAll returns every listing in creation order.
	FindAll(ctx context.Context) ([]*domain.Listing, error)

	// FindByID retrieves a listing with its comments.
	// Unknown or malformed IDs return domain.ErrListingNotFound.
	FindByID(ctx context.Context, id string) (*domain.Listing, error)

	// Create stores a new listing and assigns its ID.
	Create(ctx context.Context, listing *domain.Listing) error

	// UpdateFields applies the set fields of patch atomically.
	UpdateFields(ctx context.Context, id string, patch domain.ListingPatch) error

	// Remove deletes a listing together with its embedded comments.
	Remove(ctx context.Context, id string) error

	// AddComment appends a comment to the listing.
	AddComment(ctx context.Context, listingID string, comment *domain.Comment) error

	// RemoveComment removes a comment by ID. Removing a missing comment is not an error.
	RemoveComment(ctx context.Context, listingID, commentID string) error
}
