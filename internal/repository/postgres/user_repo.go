package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/repository"
)

// userRepository implements repository.UserRepository for PostgreSQL.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `CAST(id AS TEXT), username, password_hash, first_name, last_name, hometown, created_at`

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	id := uuid.NewString()
	query := `
		INSERT INTO users (id, username, password_hash, first_name, last_name, hometown, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		id,
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Hometown,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewDomainError(domain.ErrUserAlreadyExists, "", user.Username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = id
	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, domain.NewDomainError(domain.ErrUserNotFound, "", id)
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepository) getOne(ctx context.Context, query, key string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.Pool.QueryRow(ctx, query, key).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Hometown,
		&user.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewDomainError(domain.ErrUserNotFound, "", key)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Count returns the number of users.
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
