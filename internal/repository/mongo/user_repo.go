package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/repository"
)

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password"`
	FirstName    string             `bson:"firstName"`
	LastName     string             `bson:"lastName"`
	Hometown     string             `bson:"hometown"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (u *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           u.ID.Hex(),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Hometown:     u.Hometown,
		CreatedAt:    u.CreatedAt,
	}
}

// UserRepository implements repository.UserRepository on the users collection.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new MongoDB user repository.
func NewUserRepository(d *DB) *UserRepository {
	return &UserRepository{coll: d.db.Collection(usersCollection)}
}

// Create inserts a user. The unique username index rejects duplicates.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Hometown:     user.Hometown,
		CreatedAt:    user.CreatedAt,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.NewDomainError(domain.ErrUserAlreadyExists, "", user.Username)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = doc.ID.Hex()
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrUserNotFound, "", id)
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, id)
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}}, username)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D, key string) (*domain.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NewDomainError(domain.ErrUserNotFound, "", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toDomain(), nil
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// Ensure UserRepository implements repository.UserRepository.
var _ repository.UserRepository = (*UserRepository)(nil)
