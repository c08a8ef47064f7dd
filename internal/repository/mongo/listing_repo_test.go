package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/prn-tf/cityguide/internal/domain"
)

func TestParseID(t *testing.T) {
	oid := primitive.NewObjectID()

	got, err := parseID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = parseID("not-an-object-id")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestSetDocument(t *testing.T) {
	r := &ListingRepository{category: domain.CategoryNightlife}
	venue := "Jazz Bar"
	street := "2 Side St"

	set := r.setDocument(domain.ListingPatch{TypeValue: &venue, Street: &street})
	m := set.Map()

	assert.Equal(t, "Jazz Bar", m["typeOfVenue"])
	assert.Equal(t, "2 Side St", m["address.street"])
	assert.Contains(t, m, "updatedAt")
	assert.NotContains(t, m, "name")
	assert.NotContains(t, m, "address.building")
	assert.Len(t, set, 3)
}

func TestDocumentRoundTrip(t *testing.T) {
	r := &ListingRepository{category: domain.CategoryRestaurant}
	oid := primitive.NewObjectID()

	raw, err := bson.Marshal(bson.M{
		"_id":         oid,
		"name":        "Joe's",
		"cuisine":     "American",
		"address":     bson.M{"building": "1", "street": "Main St", "zipcode": "10001"},
		"description": "diner",
		"addedBy":     bson.M{"firstName": "Joe", "hometown": "Test Town", "userId": "u1"},
		"comments": bson.A{
			bson.M{"id": "c1", "comment": "great", "addedBy": bson.M{"userId": "u2"}},
		},
	})
	require.NoError(t, err)

	var doc listingDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))

	l := r.toDomain(&doc)
	assert.Equal(t, oid.Hex(), l.ID)
	assert.Equal(t, "American", l.TypeValue)
	assert.Equal(t, "1 Main St", l.AddressString())
	assert.Equal(t, "u1", l.OwnerID())
	require.Len(t, l.Comments, 1)
	assert.Equal(t, "u2", l.Comments[0].AddedBy.UserID)
}
