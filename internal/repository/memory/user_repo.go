package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/repository"
)

// UserRepository implements repository.UserRepository in memory.
type UserRepository struct {
	mu         sync.RWMutex
	users      map[string]*domain.User
	byUsername map[string]string
}

// NewUserRepository creates an empty in-memory user repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:      make(map[string]*domain.User),
		byUsername: make(map[string]string),
	}
}

// Create stores a user; the username index plays the role of a unique constraint.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[user.Username]; exists {
		return domain.NewDomainError(domain.ErrUserAlreadyExists, "", user.Username)
	}

	user.ID = uuid.NewString()
	stored := *user
	r.users[user.ID] = &stored
	r.byUsername[user.Username] = user.ID
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.NewDomainError(domain.ErrUserNotFound, "", id)
	}
	found := *u
	return &found, nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, domain.NewDomainError(domain.ErrUserNotFound, "", username)
	}
	found := *r.users[id]
	return &found, nil
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

// Ensure UserRepository implements repository.UserRepository.
var _ repository.UserRepository = (*UserRepository)(nil)
