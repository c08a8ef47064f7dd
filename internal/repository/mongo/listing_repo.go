package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/repository"
)

type authorDocument struct {
	FirstName string `bson:"firstName"`
	Hometown  string `bson:"hometown"`
	UserID    string `bson:"userId"`
}

type addressDocument struct {
	Building string `bson:"building"`
	Street   string `bson:"street"`
	Zipcode  string `bson:"zipcode"`
}

type commentDocument struct {
	ID      string         `bson:"id"`
	AddedBy authorDocument `bson:"addedBy"`
	Date    time.Time      `bson:"date"`
	Comment string         `bson:"comment"`
}

// listingDocument is the stored shape of a listing. The category's type
// field (cuisine, typeOfVenue, typeOfService) travels in Extra.
type listingDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Address     addressDocument    `bson:"address"`
	Phone       string             `bson:"phone,omitempty"`
	WebURL      string             `bson:"webUrl,omitempty"`
	PhotoLink   string             `bson:"photoLink,omitempty"`
	Description string             `bson:"description"`
	AddedBy     authorDocument     `bson:"addedBy"`
	Comments    []commentDocument  `bson:"comments"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
	Extra       bson.M             `bson:",inline"`
}

func toAuthorDocument(a domain.Author) authorDocument {
	return authorDocument{FirstName: a.FirstName, Hometown: a.Hometown, UserID: a.UserID}
}

func (a authorDocument) toDomain() domain.Author {
	return domain.Author{FirstName: a.FirstName, Hometown: a.Hometown, UserID: a.UserID}
}

func toCommentDocument(c *domain.Comment) commentDocument {
	return commentDocument{
		ID:      c.ID,
		AddedBy: toAuthorDocument(c.AddedBy),
		Date:    c.Date,
		Comment: c.Comment,
	}
}

// ListingRepository implements repository.ListingRepository for one collection.
type ListingRepository struct {
	category domain.Category
	coll     *mongo.Collection
}

// NewListingRepository creates a repository over the category's collection.
func NewListingRepository(d *DB, category domain.Category) *ListingRepository {
	return &ListingRepository{
		category: category,
		coll:     d.db.Collection(category.Slug()),
	}
}

// Category returns the category this repository serves.
func (r *ListingRepository) Category() domain.Category {
	return r.category
}

func (r *ListingRepository) toDomain(doc *listingDocument) *domain.Listing {
	l := &domain.Listing{
		ID:       doc.ID.Hex(),
		Category: r.category,
		Name:     doc.Name,
		Address: domain.Address{
			Building: doc.Address.Building,
			Street:   doc.Address.Street,
			Zipcode:  doc.Address.Zipcode,
		},
		Phone:       doc.Phone,
		WebURL:      doc.WebURL,
		PhotoLink:   doc.PhotoLink,
		Description: doc.Description,
		AddedBy:     doc.AddedBy.toDomain(),
		Comments:    make([]domain.Comment, 0, len(doc.Comments)),
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if v, ok := doc.Extra[r.category.TypeField()].(string); ok {
		l.TypeValue = v
	}
	for _, c := range doc.Comments {
		l.Comments = append(l.Comments, domain.Comment{
			ID:      c.ID,
			AddedBy: c.AddedBy.toDomain(),
			Date:    c.Date,
			Comment: c.Comment,
		})
	}
	return l
}

// parseID converts a hex id; malformed ids are reported as not found.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.NewDomainError(domain.ErrListingNotFound, "", id)
	}
	return oid, nil
}

// FindAll returns every listing in creation order.
func (r *ListingRepository) FindAll(ctx context.Context) ([]*domain.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", r.category, err)
	}
	defer cursor.Close(ctx)

	listings := make([]*domain.Listing, 0)
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode listing: %w", err)
		}
		listings = append(listings, r.toDomain(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return listings, nil
}

// FindByID retrieves a listing by ID.
func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc listingDocument
	err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NewDomainError(domain.ErrListingNotFound, "", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return r.toDomain(&doc), nil
}

// Create inserts a new listing and assigns its ObjectID.
func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	doc := listingDocument{
		ID:   primitive.NewObjectID(),
		Name: listing.Name,
		Address: addressDocument{
			Building: listing.Address.Building,
			Street:   listing.Address.Street,
			Zipcode:  listing.Address.Zipcode,
		},
		Phone:       listing.Phone,
		WebURL:      listing.WebURL,
		PhotoLink:   listing.PhotoLink,
		Description: listing.Description,
		AddedBy:     toAuthorDocument(listing.AddedBy),
		Comments:    []commentDocument{},
		CreatedAt:   listing.CreatedAt,
		UpdatedAt:   listing.UpdatedAt,
		Extra:       bson.M{r.category.TypeField(): listing.TypeValue},
	}
	for i := range listing.Comments {
		doc.Comments = append(doc.Comments, toCommentDocument(&listing.Comments[i]))
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}

	listing.ID = doc.ID.Hex()
	listing.Category = r.category
	if listing.Comments == nil {
		listing.Comments = []domain.Comment{}
	}
	return nil
}

// setDocument maps the set fields of patch to dotted $set keys.
func (r *ListingRepository) setDocument(patch domain.ListingPatch) bson.D {
	set := bson.D{}
	add := func(key string, v *string) {
		if v != nil {
			set = append(set, bson.E{Key: key, Value: *v})
		}
	}
	add("name", patch.Name)
	add(r.category.TypeField(), patch.TypeValue)
	add("address.building", patch.Building)
	add("address.street", patch.Street)
	add("address.zipcode", patch.Zipcode)
	add("phone", patch.Phone)
	add("webUrl", patch.WebURL)
	add("photoLink", patch.PhotoLink)
	add("description", patch.Description)
	return append(set, bson.E{Key: "updatedAt", Value: time.Now().UTC()})
}

// UpdateFields applies patch with a single $set.
func (r *ListingRepository) UpdateFields(ctx context.Context, id string, patch domain.ListingPatch) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	update := bson.D{{Key: "$set", Value: r.setDocument(patch)}}
	return r.updateOne(ctx, oid, id, update, "update listing")
}

// Remove deletes a listing and its embedded comments.
func (r *ListingRepository) Remove(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NewDomainError(domain.ErrListingNotFound, "", id)
	}
	return nil
}

// AddComment appends a comment with $push.
func (r *ListingRepository) AddComment(ctx context.Context, listingID string, comment *domain.Comment) error {
	oid, err := parseID(listingID)
	if err != nil {
		return err
	}

	update := bson.D{{Key: "$push", Value: bson.D{{Key: "comments", Value: toCommentDocument(comment)}}}}
	return r.updateOne(ctx, oid, listingID, update, "add comment")
}

// RemoveComment removes a comment with $pull; a missing comment matches nothing to pull.
func (r *ListingRepository) RemoveComment(ctx context.Context, listingID, commentID string) error {
	oid, err := parseID(listingID)
	if err != nil {
		return err
	}

	update := bson.D{{Key: "$pull", Value: bson.D{{Key: "comments", Value: bson.D{{Key: "id", Value: commentID}}}}}}
	return r.updateOne(ctx, oid, listingID, update, "remove comment")
}

func (r *ListingRepository) updateOne(ctx context.Context, oid primitive.ObjectID, id string, update bson.D, op string) error {
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return domain.NewDomainError(domain.ErrListingNotFound, "", id)
	}
	return nil
}

// Ensure ListingRepository implements repository.ListingRepository.
var _ repository.ListingRepository = (*ListingRepository)(nil)
