package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/repository"
)

// listingRepository implements repository.ListingRepository for one category table.
type listingRepository struct {
	db       *DB
	category domain.Category
	table    string
	columns  string
}

// NewListingRepository creates a new PostgreSQL listing repository.
func NewListingRepository(db *DB, category domain.Category) repository.ListingRepository {
	return &listingRepository{
		db:       db,
		category: category,
		table:    category.Slug(),
		columns:  repository.ListingColumns(category),
	}
}

func (r *listingRepository) Category() domain.Category {
	return r.category
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *listingRepository) scan(row rowScanner) (*domain.Listing, error) {
	l := &domain.Listing{Category: r.category}
	var comments []byte

	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.TypeValue,
		&l.Address.Building,
		&l.Address.Street,
		&l.Address.Zipcode,
		&l.Phone,
		&l.WebURL,
		&l.PhotoLink,
		&l.Description,
		&l.AddedBy.UserID,
		&l.AddedBy.FirstName,
		&l.AddedBy.Hometown,
		&comments,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Comments, err = repository.DecodeComments(comments)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// FindAll returns every listing in creation order.
func (r *listingRepository) FindAll(ctx context.Context) ([]*domain.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at, id`, r.columns, r.table)

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.table, err)
	}
	defer rows.Close()

	listings := make([]*domain.Listing, 0)
	for rows.Next() {
		l, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}

	return listings, nil
}

// FindByID retrieves a listing by ID.
func (r *listingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	if !validID(id) {
		return nil, domain.NewDomainError(domain.ErrListingNotFound, "", id)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, r.columns, r.table)

	l, err := r.scan(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewDomainError(domain.ErrListingNotFound, "", id)
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return l, nil
}

// Create inserts a new listing and assigns its ID.
func (r *listingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	comments, err := repository.EncodeComments(listing.Comments)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, %s, building, street, zipcode, phone, web_url, photo_link, description,
			added_by_user_id, added_by_first_name, added_by_hometown, comments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, r.table, r.category.TypeColumn())

	_, err = r.db.Pool.Exec(ctx, query,
		id,
		listing.Name,
		listing.TypeValue,
		listing.Address.Building,
		listing.Address.Street,
		listing.Address.Zipcode,
		listing.Phone,
		listing.WebURL,
		listing.PhotoLink,
		listing.Description,
		listing.AddedBy.UserID,
		listing.AddedBy.FirstName,
		listing.AddedBy.Hometown,
		comments,
		listing.CreatedAt,
		listing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	listing.ID = id
	listing.Category = r.category
	if listing.Comments == nil {
		listing.Comments = []domain.Comment{}
	}
	return nil
}

// UpdateFields applies patch in a single UPDATE.
func (r *listingRepository) UpdateFields(ctx context.Context, id string, patch domain.ListingPatch) error {
	if !validID(id) {
		return domain.NewDomainError(domain.ErrListingNotFound, "", id)
	}

	cols := repository.PatchColumns(r.category, patch)
	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+2)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col.Name, i+1))
		args = append(args, col.Value)
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, time.Now().UTC(), id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`, r.table, strings.Join(sets, ", "), len(args))
	return r.exec(ctx, id, "update listing", query, args...)
}

// Remove deletes a listing and its comments.
func (r *listingRepository) Remove(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.NewDomainError(domain.ErrListingNotFound, "", id)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	return r.exec(ctx, id, "delete listing", query, id)
}

// AddComment appends to the JSONB array in place.
func (r *listingRepository) AddComment(ctx context.Context, listingID string, comment *domain.Comment) error {
	if !validID(listingID) {
		return domain.NewDomainError(domain.ErrListingNotFound, "", listingID)
	}

	encoded, err := repository.EncodeComments([]domain.Comment{*comment})
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET comments = comments || $2::jsonb WHERE id = $1`, r.table)
	return r.exec(ctx, listingID, "add comment", query, listingID, string(encoded))
}

// RemoveComment filters the comment out of the JSONB array in place.
func (r *listingRepository) RemoveComment(ctx context.Context, listingID, commentID string) error {
	if !validID(listingID) {
		return domain.NewDomainError(domain.ErrListingNotFound, "", listingID)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET comments = COALESCE(
			(SELECT jsonb_agg(c ORDER BY n) FROM jsonb_array_elements(comments) WITH ORDINALITY AS t(c, n)
				WHERE c->>'id' <> $2),
			'[]'::jsonb)
		WHERE id = $1
	`, r.table)
	return r.exec(ctx, listingID, "remove comment", query, listingID, commentID)
}

func (r *listingRepository) exec(ctx context.Context, id, op, query string, args ...any) error {
	tag, err := r.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrListingNotFound, "", id)
	}
	return nil
}
