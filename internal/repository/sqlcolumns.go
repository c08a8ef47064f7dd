package repository

import (
	"encoding/json"
	"fmt"

	"github.com/prn-tf/cityguide/internal/domain"
)

// Column is one column assignment of a SQL UPDATE.
type Column struct {
	Name  string
	Value string
}

// PatchColumns maps the set fields of patch to the column names shared by
// the SQL backends, in a stable order.
func PatchColumns(c domain.Category, patch domain.ListingPatch) []Column {
	var cols []Column
	add := func(name string, v *string) {
		if v != nil {
			cols = append(cols, Column{Name: name, Value: *v})
		}
	}
	add("name", patch.Name)
	add(c.TypeColumn(), patch.TypeValue)
	add("building", patch.Building)
	add("street", patch.Street)
	add("zipcode", patch.Zipcode)
	add("phone", patch.Phone)
	add("web_url", patch.WebURL)
	add("photo_link", patch.PhotoLink)
	add("description", patch.Description)
	return cols
}

// ListingColumns returns the select list of a category table.
func ListingColumns(c domain.Category) string {
	return fmt.Sprintf(`CAST(id AS TEXT), name, %s, building, street, zipcode, phone, web_url, photo_link, description,
		added_by_user_id, added_by_first_name, added_by_hometown, comments, created_at, updated_at`, c.TypeColumn())
}

// EncodeComments serialises comments for a JSON column.
func EncodeComments(comments []domain.Comment) ([]byte, error) {
	if comments == nil {
		comments = []domain.Comment{}
	}
	return json.Marshal(comments)
}

// DecodeComments parses a JSON comments column. NULL or empty yields no comments.
func DecodeComments(raw []byte) ([]domain.Comment, error) {
	comments := []domain.Comment{}
	if len(raw) == 0 {
		return comments, nil
	}
	if err := json.Unmarshal(raw, &comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	return comments, nil
}
