package domain

import "strings"

// Category distinguishes the three kinds of listing in the directory.
// All categories share one Listing shape and differ only in the name of
// their type-specific field.
type Category string

const (
	// CategoryRestaurant lists places to eat; type field "cuisine".
	CategoryRestaurant Category = "restaurants"

	// CategoryNightlife lists bars, clubs and venues; type field "typeOfVenue".
	CategoryNightlife Category = "nightlife"

	// CategoryService lists local services; type field "typeOfService".
	CategoryService Category = "services"
)

type categoryInfo struct {
	typeField  string
	typeLabel  string
	singular   string
	plural     string
	sqlTypeCol string
}

var categories = map[Category]categoryInfo{
	CategoryRestaurant: {
		typeField:  "cuisine",
		typeLabel:  "Cuisine",
		singular:   "Restaurant",
		plural:     "Restaurants",
		sqlTypeCol: "cuisine",
	},
	CategoryNightlife: {
		typeField:  "typeOfVenue",
		typeLabel:  "Type of Venue",
		singular:   "Nightlife Venue",
		plural:     "Nightlife",
		sqlTypeCol: "type_of_venue",
	},
	CategoryService: {
		typeField:  "typeOfService",
		typeLabel:  "Type of Service",
		singular:   "Service",
		plural:     "Services",
		sqlTypeCol: "type_of_service",
	},
}

// AllCategories returns the categories in display order.
func AllCategories() []Category {
	return []Category{CategoryRestaurant, CategoryNightlife, CategoryService}
}

// ParseCategory resolves a URL slug into a Category.
func ParseCategory(slug string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(slug)))
	if _, ok := categories[c]; !ok {
		return "", NewDomainError(ErrUnknownCategory, "unsupported category", slug)
	}
	return c, nil
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	_, ok := categories[c]
	return ok
}

// Slug returns the URL segment and collection name.
func (c Category) Slug() string {
	return string(c)
}

// TypeField returns the external name of the type-specific field
// (cuisine, typeOfVenue, typeOfService).
func (c Category) TypeField() string {
	return categories[c].typeField
}

// TypeLabel returns a human-readable label for the type-specific field.
func (c Category) TypeLabel() string {
	return categories[c].typeLabel
}

// TypeColumn returns the SQL column holding the type-specific field.
func (c Category) TypeColumn() string {
	return categories[c].sqlTypeCol
}

// Singular returns the display name of one listing, e.g. "Restaurant".
func (c Category) Singular() string {
	return categories[c].singular
}

// Plural returns the display name of the collection, e.g. "Restaurants".
func (c Category) Plural() string {
	return categories[c].plural
}

func (c Category) String() string {
	return string(c)
}
