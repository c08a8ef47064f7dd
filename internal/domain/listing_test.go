package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestAddressString(t *testing.T) {
	tests := []struct {
		name    string
		address Address
		want    string
	}{
		{"building and street", Address{Building: "1", Street: "Main St"}, "1 Main St"},
		{"street only", Address{Street: "1 Main St"}, "1 Main St"},
		{"building only", Address{Building: " 12 "}, "12"},
		{"padded", Address{Building: "  7", Street: "Elm Rd  "}, "7 Elm Rd"},
		{"empty", Address{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.address.String())
		})
	}
}

func TestListingPatch_Validate(t *testing.T) {
	tests := []struct {
		name      string
		patch     ListingPatch
		wantField string
	}{
		{"empty patch", ListingPatch{}, ""},
		{"clears optional phone", ListingPatch{Phone: strPtr("")}, ""},
		{"blank name", ListingPatch{Name: strPtr("  ")}, "name"},
		{"blank type field", ListingPatch{TypeValue: strPtr("")}, "typeOfVenue"},
		{"blank street", ListingPatch{Street: strPtr("")}, "address"},
		{"blank description", ListingPatch{Description: strPtr("")}, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate(CategoryNightlife)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestListingPatch_ApplyLeavesUnsetFields(t *testing.T) {
	l := &Listing{
		Name:        "Joe's",
		TypeValue:   "Diner",
		Address:     Address{Building: "1", Street: "Main St", Zipcode: "10001"},
		Phone:       "555-0100",
		Description: "diner",
	}

	ListingPatch{Description: strPtr("late-night diner"), Zipcode: strPtr("10002")}.Apply(l)

	assert.Equal(t, "late-night diner", l.Description)
	assert.Equal(t, "10002", l.Address.Zipcode)
	assert.Equal(t, "Joe's", l.Name)
	assert.Equal(t, "Diner", l.TypeValue)
	assert.Equal(t, "1", l.Address.Building)
	assert.Equal(t, "555-0100", l.Phone)
}

func TestListing_FindComment(t *testing.T) {
	author := Author{FirstName: "Joe", Hometown: "Test Town", UserID: "u1"}
	l := NewListing(CategoryRestaurant, author)
	c1 := NewComment(author, "first")
	c2 := NewComment(author, "second")
	l.Comments = append(l.Comments, *c1, *c2)

	found := l.FindComment(c2.ID)
	require.NotNil(t, found)
	assert.Equal(t, "second", found.Comment)
	assert.Nil(t, l.FindComment("missing"))
	assert.Equal(t, "u1", l.OwnerID())
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Nightlife")
	require.NoError(t, err)
	assert.Equal(t, CategoryNightlife, c)
	assert.Equal(t, "typeOfVenue", c.TypeField())
	assert.Equal(t, "type_of_venue", c.TypeColumn())

	_, err = ParseCategory("museums")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCategory))
}

func TestSession_Flashes(t *testing.T) {
	s := NewSession("abc")
	assert.False(t, s.IsAuthenticated())

	s.SignIn("u1")
	s.AddFlash(FlashSuccess, "Restaurant Successfully Added!")
	s.AddFlash(FlashFailure, "Not Authorized")

	flashes := s.PopFlashes()
	require.Len(t, flashes, 2)
	assert.Equal(t, FlashSuccess, flashes[0].Kind)
	assert.Empty(t, s.PopFlashes())

	s.SignOut()
	assert.False(t, s.IsAuthenticated())
}
