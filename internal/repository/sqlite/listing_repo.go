package sqlite

import (
	"context"
	"encoding/json"
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

// NewListingRepository creates a new SQLite listing repository.
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
	var comments, createdAt, updatedAt string

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
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Comments, err = repository.DecodeComments([]byte(comments))
	if err != nil {
		return nil, err
	}
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)
	return l, nil
}

// FindAll returns every listing in creation order.
func (r *listingRepository) FindAll(ctx context.Context) ([]*domain.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at, rowid`, r.columns, r.table)

	rows, err := r.db.db.QueryContext(ctx, query)
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
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, r.columns, r.table)

	l, err := r.scan(r.db.db.QueryRowContext(ctx, query, id))
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.table, r.category.TypeColumn())

	_, err = r.db.db.ExecContext(ctx, query,
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
		string(comments),
		formatTime(listing.CreatedAt),
		formatTime(listing.UpdatedAt),
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
	cols := repository.PatchColumns(r.category, patch)
	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+2)
	for _, col := range cols {
		sets = append(sets, col.Name+" = ?")
		args = append(args, col.Value)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(time.Now()), id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, r.table, strings.Join(sets, ", "))
	return r.exec(ctx, id, "update listing", query, args...)
}

// Remove deletes a listing and its comments.
func (r *listingRepository) Remove(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table)
	return r.exec(ctx, id, "delete listing", query, id)
}

// AddComment appends to the JSON array in place.
func (r *listingRepository) AddComment(ctx context.Context, listingID string, comment *domain.Comment) error {
	encoded, err := json.Marshal(comment)
	if err != nil {
		return fmt.Errorf("failed to encode comment: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET comments = json_insert(comments, '$[#]', json(?)) WHERE id = ?`, r.table)
	return r.exec(ctx, listingID, "add comment", query, string(encoded), listingID)
}

// RemoveComment rebuilds the JSON array without the comment in place.
func (r *listingRepository) RemoveComment(ctx context.Context, listingID, commentID string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET comments = (
			SELECT json_group_array(json(value)) FROM json_each(%s.comments)
			WHERE json_extract(value, '$.id') <> ?
		)
		WHERE id = ?
	`, r.table, r.table)
	return r.exec(ctx, listingID, "remove comment", query, commentID, listingID)
}

func (r *listingRepository) exec(ctx context.Context, id, op, query string, args ...any) error {
	result, err := r.db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return domain.NewDomainError(domain.ErrListingNotFound, "", id)
	}
	return nil
}
