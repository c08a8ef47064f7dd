package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/cityguide/internal/domain"
)

func TestPatchColumns(t *testing.T) {
	name := "Joe's Diner"
	svc := "Plumbing"
	zip := "10001"

	cols := PatchColumns(domain.CategoryService, domain.ListingPatch{Name: &name, TypeValue: &svc, Zipcode: &zip})
	assert.Equal(t, []Column{
		{Name: "name", Value: "Joe's Diner"},
		{Name: "type_of_service", Value: "Plumbing"},
		{Name: "zipcode", Value: "10001"},
	}, cols)

	assert.Empty(t, PatchColumns(domain.CategoryRestaurant, domain.ListingPatch{}))
}

func TestCommentsColumn(t *testing.T) {
	empty, err := EncodeComments(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))

	decoded, err := DecodeComments(nil)
	require.NoError(t, err)
	assert.NotNil(t, decoded)
	assert.Empty(t, decoded)

	c := domain.Comment{ID: "c1", Comment: "x", Date: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	raw, err := EncodeComments([]domain.Comment{c})
	require.NoError(t, err)
	decoded, err = DecodeComments(raw)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "c1", decoded[0].ID)
	assert.True(t, c.Date.Equal(decoded[0].Date))

	_, err = DecodeComments([]byte("{not json"))
	assert.Error(t, err)
}
