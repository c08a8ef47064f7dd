package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prn-tf/cityguide/internal/auth"
	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/repository"
)

// ListingService implements the listing operations of one category.
// One instance exists per category; all three share this code.
type ListingService struct {
	category domain.Category
	repo     repository.ListingRepository
	guards   auth.Guards
	logger   zerolog.Logger
}

// NewListingService creates a ListingService for the repository's category.
func NewListingService(repo repository.ListingRepository, guards auth.Guards, logger zerolog.Logger) *ListingService {
	return &ListingService{
		category: repo.Category(),
		repo:     repo,
		guards:   guards,
		logger: logger.With().
			Str("service", "listing").
			Str("category", repo.Category().Slug()).
			Logger(),
	}
}

// Category returns the category this service serves.
func (s *ListingService) Category() domain.Category {
	return s.category
}

// ListingInput contains the data needed to create a listing.
// The form tags name the fields as submitted by forms and JSON clients;
// TypeValue is renamed to the category's type field in error messages.
type ListingInput struct {
	Name        string `form:"name" validate:"required,max=200"`
	TypeValue   string `form:"typeValue" validate:"required,max=100"`
	Building    string `form:"building" validate:"max=50"`
	Street      string `form:"address" validate:"required,max=300"`
	Zipcode     string `form:"zipcode" validate:"max=20"`
	Phone       string `form:"phone" validate:"max=50"`
	WebURL      string `form:"webUrl" validate:"max=2048"`
	PhotoLink   string `form:"photoLink" validate:"max=2048"`
	Description string `form:"description" validate:"required,max=5000"`
}

// CommentInput contains the data needed to add a comment.
type CommentInput struct {
	Comment string `form:"comment" validate:"required,max=2000"`
}

func (s *ListingService) rename() map[string]string {
	return map[string]string{"typeValue": s.category.TypeField()}
}

// List returns every listing of the category.
func (s *ListingService) List(ctx context.Context) ([]*domain.Listing, error) {
	listings, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list listings")
		return nil, internalError(err)
	}
	return listings, nil
}

// Get returns one listing with its comments.
func (s *ListingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(err, "failed to get listing", id)
	}
	return listing, nil
}

// Create validates input and stores a new listing owned by actor.
func (s *ListingService) Create(ctx context.Context, actor *domain.User, input ListingInput) (*domain.Listing, error) {
	if err := s.guards.RequireUser(actor); err != nil {
		return nil, err
	}

	trimAll(&input.Name, &input.TypeValue, &input.Building, &input.Street, &input.Zipcode,
		&input.Phone, &input.WebURL, &input.PhotoLink, &input.Description)
	if err := validateStruct(input, s.rename()); err != nil {
		return nil, err
	}

	listing := domain.NewListing(s.category, domain.AuthorFromUser(actor))
	listing.Name = input.Name
	listing.TypeValue = input.TypeValue
	listing.Address = domain.Address{
		Building: input.Building,
		Street:   input.Street,
		Zipcode:  input.Zipcode,
	}
	listing.Phone = input.Phone
	listing.WebURL = input.WebURL
	listing.PhotoLink = input.PhotoLink
	listing.Description = input.Description

	if err := s.repo.Create(ctx, listing); err != nil {
		s.logger.Error().Err(err).Str("name", listing.Name).Msg("failed to create listing")
		return nil, internalError(err)
	}

	s.logger.Info().
		Str("listing_id", listing.ID).
		Str("user_id", actor.ID).
		Msg("listing created")

	return listing, nil
}

// Authorize loads the listing and checks that actor may edit it.
func (s *ListingService) Authorize(ctx context.Context, actor *domain.User, id string) (*domain.Listing, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthorized
	}

	listing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.guards.RequireAdminOrAuthor(actor, listing.OwnerID()); err != nil {
		s.logger.Warn().
			Str("listing_id", id).
			Str("user_id", actor.ID).
			Msg("update rejected: not owner or admin")
		return nil, err
	}
	return listing, nil
}

// Update applies patch atomically. Only the recorded owner or the admin may update.
func (s *ListingService) Update(ctx context.Context, actor *domain.User, id string, patch domain.ListingPatch) error {
	if _, err := s.Authorize(ctx, actor, id); err != nil {
		return err
	}

	trimPatch(&patch)
	if err := patch.Validate(s.category); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}

	if err := s.repo.UpdateFields(ctx, id, patch); err != nil {
		return s.fail(err, "failed to update listing", id)
	}

	s.logger.Info().Str("listing_id", id).Str("user_id", actor.ID).Msg("listing updated")
	return nil
}

// Delete removes a listing and its comments. Admin only.
func (s *ListingService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := s.guards.RequireAdmin(actor); err != nil {
		return err
	}

	if err := s.repo.Remove(ctx, id); err != nil {
		return s.fail(err, "failed to delete listing", id)
	}

	s.logger.Info().Str("listing_id", id).Str("user_id", actor.ID).Msg("listing deleted")
	return nil
}

// AddComment appends a comment by actor with a server-assigned date.
func (s *ListingService) AddComment(ctx context.Context, actor *domain.User, listingID string, input CommentInput) (*domain.Comment, error) {
	if err := s.guards.RequireUser(actor); err != nil {
		return nil, err
	}

	trimAll(&input.Comment)
	if err := validateStruct(input, nil); err != nil {
		return nil, err
	}

	comment := domain.NewComment(domain.AuthorFromUser(actor), input.Comment)
	if err := s.repo.AddComment(ctx, listingID, comment); err != nil {
		return nil, s.fail(err, "failed to add comment", listingID)
	}

	s.logger.Info().
		Str("listing_id", listingID).
		Str("comment_id", comment.ID).
		Msg("comment added")

	return comment, nil
}

// RemoveComment deletes a comment. Only its author or the admin may do so.
// Removing a comment that no longer exists succeeds.
func (s *ListingService) RemoveComment(ctx context.Context, actor *domain.User, listingID, commentID string) error {
	if actor == nil {
		return domain.ErrNotAuthorized
	}

	listing, err := s.Get(ctx, listingID)
	if err != nil {
		return err
	}

	comment := listing.FindComment(commentID)
	if comment == nil {
		return nil
	}

	if err := s.guards.RequireAdminOrAuthor(actor, comment.AddedBy.UserID); err != nil {
		return err
	}

	if err := s.repo.RemoveComment(ctx, listingID, commentID); err != nil {
		return s.fail(err, "failed to remove comment", listingID)
	}

	s.logger.Info().
		Str("listing_id", listingID).
		Str("comment_id", commentID).
		Str("user_id", actor.ID).
		Msg("comment removed")
	return nil
}

// fail logs unexpected errors and passes domain outcomes through untouched.
func (s *ListingService) fail(err error, msg, id string) error {
	if isDomainError(err) {
		return err
	}
	s.logger.Error().Err(err).Str("listing_id", id).Msg(msg)
	return internalError(err)
}

func trimPatch(p *domain.ListingPatch) {
	for _, v := range []*string{p.Name, p.TypeValue, p.Building, p.Street, p.Zipcode,
		p.Phone, p.WebURL, p.PhotoLink, p.Description} {
		if v != nil {
			*v = strings.TrimSpace(*v)
		}
	}
}
