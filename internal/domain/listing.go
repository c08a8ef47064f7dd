package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Author identifies the user who added a listing or comment.
// It is always derived from the authenticated session, never from request data.
type Author struct {
	FirstName string `json:"firstName"`
	Hometown  string `json:"hometown"`
	UserID    string `json:"userId"`
}

// AuthorFromUser builds the Author snapshot recorded on new listings and comments.
func AuthorFromUser(u *User) Author {
	return Author{
		FirstName: u.FirstName,
		Hometown:  u.Hometown,
		UserID:    u.ID,
	}
}

// Address is the canonical structured street address of a listing.
type Address struct {
	Building string `json:"building"`
	Street   string `json:"street"`
	Zipcode  string `json:"zipcode"`
}

// String joins building and street, e.g. "1 Main St".
func (a Address) String() string {
	return strings.TrimSpace(strings.TrimSpace(a.Building) + " " + strings.TrimSpace(a.Street))
}

// Comment is embedded in exactly one Listing and has no independent lifecycle.
type Comment struct {
	ID      string    `json:"id"`
	AddedBy Author    `json:"addedBy"`
	Date    time.Time `json:"date"`
	Comment string    `json:"comment"`
}

// NewComment creates a comment with a fresh id and a server-assigned timestamp.
func NewComment(author Author, body string) *Comment {
	return &Comment{
		ID:      uuid.NewString(),
		AddedBy: author,
		Date:    time.Now().UTC(),
		Comment: body,
	}
}

// Listing is a restaurant, nightlife venue or service.
type Listing struct {
	// ID is assigned by the store on creation and never changes.
	ID string `json:"id"`

	// Category selects which collection the listing lives in.
	Category Category `json:"category"`

	Name string `json:"name"`

	// TypeValue holds the category's type-specific field
	// (cuisine, typeOfVenue or typeOfService).
	TypeValue string `json:"typeValue"`

	Address     Address `json:"address"`
	Phone       string  `json:"phone,omitempty"`
	WebURL      string  `json:"webUrl,omitempty"`
	PhotoLink   string  `json:"photoLink,omitempty"`
	Description string  `json:"description"`

	AddedBy Author `json:"addedBy"`

	// Comments are kept in insertion order.
	Comments []Comment `json:"comments"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewListing creates a listing owned by author. The store assigns the ID.
func NewListing(category Category, author Author) *Listing {
	now := time.Now().UTC()
	return &Listing{
		Category:  category,
		AddedBy:   author,
		Comments:  []Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddressString is the single-line address rendered in templates.
func (l *Listing) AddressString() string {
	return l.Address.String()
}

// OwnerID returns the id of the user recorded as the listing's creator.
func (l *Listing) OwnerID() string {
	return l.AddedBy.UserID
}

// FindComment returns the comment with the given id, or nil.
func (l *Listing) FindComment(id string) *Comment {
	for i := range l.Comments {
		if l.Comments[i].ID == id {
			return &l.Comments[i]
		}
	}
	return nil
}

// ListingPatch carries a partial update. Nil fields are left unchanged.
type ListingPatch struct {
	Name        *string
	TypeValue   *string
	Building    *string
	Street      *string
	Zipcode     *string
	Phone       *string
	WebURL      *string
	PhotoLink   *string
	Description *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ListingPatch) IsEmpty() bool {
	return p.Name == nil && p.TypeValue == nil && p.Building == nil && p.Street == nil &&
		p.Zipcode == nil && p.Phone == nil && p.WebURL == nil && p.PhotoLink == nil &&
		p.Description == nil
}

// Validate rejects patches that would blank a required field.
func (p ListingPatch) Validate(category Category) error {
	blank := func(s *string) bool { return s != nil && strings.TrimSpace(*s) == "" }

	switch {
	case blank(p.Name):
		return NewValidationError("name", "`name` cannot be empty")
	case blank(p.TypeValue):
		field := category.TypeField()
		return NewValidationError(field, "`"+field+"` cannot be empty")
	case blank(p.Street):
		return NewValidationError("address", "`address` cannot be empty")
	case blank(p.Description):
		return NewValidationError("description", "`description` cannot be empty")
	}
	return nil
}

// Apply copies the set fields onto l. Stores that support partial
// updates natively do not call this.
func (p ListingPatch) Apply(l *Listing) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&l.Name, p.Name)
	set(&l.TypeValue, p.TypeValue)
	set(&l.Address.Building, p.Building)
	set(&l.Address.Street, p.Street)
	set(&l.Address.Zipcode, p.Zipcode)
	set(&l.Phone, p.Phone)
	set(&l.WebURL, p.WebURL)
	set(&l.PhotoLink, p.PhotoLink)
	set(&l.Description, p.Description)
}
