package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/repository"
)

// userRepository implements repository.UserRepository for SQLite.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, password_hash, first_name, last_name, hometown, created_at`

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	id := uuid.NewString()
	query := `
		INSERT INTO users (id, username, password_hash, first_name, last_name, hometown, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.db.ExecContext(ctx, query,
		id,
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Hometown,
		formatTime(user.CreatedAt),
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
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *userRepository) getOne(ctx context.Context, query, key string) (*domain.User, error) {
	user := &domain.User{}
	var createdAt string

	err := r.db.db.QueryRowContext(ctx, query, key).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Hometown,
		&createdAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewDomainError(domain.ErrUserNotFound, "", key)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = parseTime(createdAt)
	return user, nil
}

// Count returns the number of users.
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
