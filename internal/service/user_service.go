package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/pkg/crypto"
	"github.com/prn-tf/cityguide/internal/repository"
)

// UserService handles signup, authentication and seeding of users.
type UserService struct {
	userRepo   repository.UserRepository
	bcryptCost int
	logger     zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, bcryptCost int, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo:   userRepo,
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("service", "user").Logger(),
	}
}

// SignupInput contains the data needed to create a new user.
type SignupInput struct {
	Username  string `form:"username" validate:"required,max=64"`
	Password  string `form:"password" validate:"required,max=72"`
	FirstName string `form:"firstName" validate:"max=100"`
	LastName  string `form:"lastName" validate:"max=100"`
	Hometown  string `form:"hometown" validate:"max=100"`
}

// Signup creates a new user account.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (*domain.User, error) {
	trimAll(&input.Username, &input.FirstName, &input.LastName, &input.Hometown)
	if err := validateStruct(input, nil); err != nil {
		return nil, err
	}

	passwordHash, err := crypto.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			return nil, domain.NewValidationError("password", err.Error())
		}
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, internalError(err)
	}

	user := domain.NewUser(input.Username, passwordHash, input.FirstName, input.LastName, input.Hometown)

	// The store's unique constraint rejects duplicate usernames.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, domain.NewDomainError(domain.ErrUserAlreadyExists, "Username already taken", input.Username)
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create user")
		return nil, internalError(err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("user created")

	return user, nil
}

// Authenticate verifies user credentials and returns the user.
// Unknown users and wrong passwords fail identically.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Error().Err(err).Msg("failed to look up user during authentication")
			return nil, internalError(err)
		}
		// Log but don't expose whether username exists
		s.logger.Debug().Str("username", username).Msg("user not found during authentication")
		crypto.BurnVerification(password)
		return nil, domain.ErrInvalidCredentials
	}

	if !crypto.VerifyPassword(password, user.PasswordHash) {
		s.logger.Debug().Str("username", username).Msg("invalid password during authentication")
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("user authenticated")

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to get user")
		return nil, internalError(err)
	}
	return user, nil
}

// Count returns the number of registered users.
func (s *UserService) Count(ctx context.Context) (int64, error) {
	n, err := s.userRepo.Count(ctx)
	if err != nil {
		return 0, internalError(err)
	}
	return n, nil
}

// Seed creates each user that does not exist yet and returns how many were created.
// Existing users, including ones created concurrently by another process, are left untouched.
func (s *UserService) Seed(ctx context.Context, users []SignupInput) (int, error) {
	created := 0
	for _, input := range users {
		_, err := s.Signup(ctx, input)
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrUserAlreadyExists):
			s.logger.Debug().Str("username", input.Username).Msg("seed user already exists")
		default:
			return created, err
		}
	}
	return created, nil
}
