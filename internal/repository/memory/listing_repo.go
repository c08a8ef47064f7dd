// Package memory provides in-memory repository implementations.
// They are used by tests and by the "memory" database driver for local development;
// data does not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/repository"
)

// ListingRepository implements repository.ListingRepository in memory.
type ListingRepository struct {
	category domain.Category

	mu       sync.RWMutex
	listings map[string]*domain.Listing
	order    []string
}

// NewListingRepository creates an empty in-memory listing repository.
func NewListingRepository(category domain.Category) *ListingRepository {
	return &ListingRepository{
		category: category,
		listings: make(map[string]*domain.Listing),
	}
}

// Category returns the category this repository serves.
func (r *ListingRepository) Category() domain.Category {
	return r.category
}

// FindAll returns every listing in creation order.
func (r *ListingRepository) FindAll(ctx context.Context) ([]*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Listing, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, cloneListing(r.listings[id]))
	}
	return result, nil
}

// FindByID retrieves a listing by ID.
func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[id]
	if !ok {
		return nil, domain.NewDomainError(domain.ErrListingNotFound, "", id)
	}
	return cloneListing(l), nil
}

// Create stores a new listing and assigns its ID.
func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing.ID = uuid.NewString()
	listing.Category = r.category
	if listing.Comments == nil {
		listing.Comments = []domain.Comment{}
	}

	r.listings[listing.ID] = cloneListing(listing)
	r.order = append(r.order, listing.ID)
	return nil
}

// UpdateFields applies the set fields of patch under the write lock.
func (r *ListingRepository) UpdateFields(ctx context.Context, id string, patch domain.ListingPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[id]
	if !ok {
		return domain.NewDomainError(domain.ErrListingNotFound, "", id)
	}

	patch.Apply(l)
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// Remove deletes a listing and its comments.
func (r *ListingRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[id]; !ok {
		return domain.NewDomainError(domain.ErrListingNotFound, "", id)
	}

	delete(r.listings, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddComment appends a comment to the listing.
func (r *ListingRepository) AddComment(ctx context.Context, listingID string, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[listingID]
	if !ok {
		return domain.NewDomainError(domain.ErrListingNotFound, "", listingID)
	}

	l.Comments = append(l.Comments, *comment)
	return nil
}

// RemoveComment removes a comment by ID; a missing comment is ignored.
func (r *ListingRepository) RemoveComment(ctx context.Context, listingID, commentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[listingID]
	if !ok {
		return domain.NewDomainError(domain.ErrListingNotFound, "", listingID)
	}

	kept := l.Comments[:0]
	for _, c := range l.Comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	l.Comments = kept
	return nil
}

func cloneListing(l *domain.Listing) *domain.Listing {
	c := *l
	c.Comments = make([]domain.Comment, len(l.Comments))
	copy(c.Comments, l.Comments)
	return &c
}

// Ensure ListingRepository implements repository.ListingRepository.
var _ repository.ListingRepository = (*ListingRepository)(nil)
