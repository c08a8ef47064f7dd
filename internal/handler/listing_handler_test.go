package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/cityguide/internal/domain"
)

func restaurantForm() url.Values {
	return url.Values{
		"name":        {"Joes Diner"},
		"cuisine":     {"American"},
		"building":    {"1"},
		"address":     {"Main St"},
		"zipcode":     {"10001"},
		"description": {"Pancakes all day"},
	}
}

func TestListingHandler_ListAndShow(t *testing.T) {
	env := newTestEnv(t)
	l := env.createRestaurant(t, "testUser", "Joes Diner")
	c := env.newClient(t)

	resp, body := env.get(t, c, "/restaurants")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, containsAll(body, "Restaurants", "Joes Diner", "1 Main St", "/restaurants/"+l.ID))
	assert.NotContains(t, body, "Add a Restaurant", "anonymous users get no add link")

	resp, body = env.get(t, c, "/restaurants/"+l.ID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, containsAll(body, "Joes Diner", "Cuisine", "Pizza", "Thin crust", "Recommended by Joe from Test Town"))
	assert.NotContains(t, body, "/edit")

	resp, body = env.get(t, c, "/nightlife")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No Nightlife yet.")
}

func TestListingHandler_ShowUnknownID(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)

	resp, _ := env.get(t, c, "/restaurants/does-not-exist")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/restaurants", resp.Header.Get("Location"))

	_, body := env.get(t, c, "/restaurants")
	assert.Contains(t, body, "Restaurant not found")

	// Flashes are shown once.
	_, body = env.get(t, c, "/restaurants")
	assert.NotContains(t, body, "Restaurant not found")
}

func TestListingHandler_Create(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedInClient(t, "testUser")

	resp, body := env.get(t, c, "/restaurants/add-new")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, containsAll(body, "Add a Restaurant", `name="cuisine"`))

	resp = env.postForm(t, c, "/restaurants", restaurantForm())
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/restaurants", resp.Header.Get("Location"))

	body = env.follow(t, c, resp)
	assert.True(t, containsAll(body, "Restaurant Successfully Added!", "Joes Diner"))

	listings, err := env.listings[domain.CategoryRestaurant].List(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "American", listings[0].TypeValue)
	assert.Equal(t, domain.Address{Building: "1", Street: "Main St", Zipcode: "10001"}, listings[0].Address)
	assert.Equal(t, env.user(t, "testUser").ID, listings[0].OwnerID())

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ListingMutations.WithLabelValues("restaurants", "create")))
}

func TestListingHandler_CreateRequiresLogin(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)

	resp, _ := env.get(t, c, "/restaurants/add-new")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = env.postForm(t, c, "/restaurants", restaurantForm())
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Contains(t, env.follow(t, c, resp), "Please log in first")

	listings, err := env.listings[domain.CategoryRestaurant].List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestListingHandler_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedInClient(t, "testUser")

	form := restaurantForm()
	form.Del("description")

	resp := env.postForm(t, c, "/restaurants", form)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/restaurants/add-new", resp.Header.Get("Location"))
	assert.Contains(t, env.follow(t, c, resp), "Missing `description` in request body")

	form = restaurantForm()
	form.Del("cuisine")
	resp = env.postForm(t, c, "/restaurants", form)
	assert.Contains(t, env.follow(t, c, resp), "Missing `cuisine` in request body")
}

func TestListingHandler_UpdateChangesOnlySubmittedFields(t *testing.T) {
	env := newTestEnv(t)
	l := env.createRestaurant(t, "testUser", "Joes Diner")
	c := env.loggedInClient(t, "testUser")

	resp, body := env.get(t, c, "/restaurants/"+l.ID+"/edit")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, containsAll(body, "Edit Joes Diner", "_method=PUT", "Thin crust"))

	resp = env.postForm(t, c, "/restaurants/"+l.ID+"?_method=PUT", url.Values{"description": {"Deep dish now"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/restaurants/"+l.ID, resp.Header.Get("Location"))
	assert.Contains(t, env.follow(t, c, resp), "Restaurant Successfully Updated!")

	got, err := env.listings[domain.CategoryRestaurant].Get(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Deep dish now", got.Description)
	assert.Equal(t, l.Name, got.Name)
	assert.Equal(t, l.TypeValue, got.TypeValue)
	assert.Equal(t, l.Address, got.Address)
}

func TestListingHandler_UpdateMethodOverrideInForm(t *testing.T) {
	env := newTestEnv(t)
	l := env.createRestaurant(t, "testUser", "Joes Diner")
	c := env.loggedInClient(t, "admin")

	resp := env.postForm(t, c, "/restaurants/"+l.ID, url.Values{
		"_method": {"put"},
		"name":    {"Joes Bistro"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	got, err := env.listings[domain.CategoryRestaurant].Get(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Joes Bistro", got.Name)
}

func TestListingHandler_NotAuthorized(t *testing.T) {
	env := newTestEnv(t)
	l := env.createRestaurant(t, "testUser", "Joes Diner")
	c := env.loggedInClient(t, "otherUser")

	resp, _ := env.get(t, c, "/restaurants/"+l.ID+"/edit")
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp = env.postForm(t, c, "/restaurants/"+l.ID+"?_method=PUT", url.Values{"name": {"Hijacked"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/restaurants", resp.Header.Get("Location"))
	assert.Contains(t, env.follow(t, c, resp), "Not Authorized")

	// Only the admin may delete, even the owner may not.
	owner := env.loggedInClient(t, "testUser")
	for _, client := range []*http.Client{c, owner} {
		resp = env.postForm(t, client, "/restaurants/"+l.ID+"?_method=DELETE", nil)
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Contains(t, env.follow(t, client, resp), "Not Authorized")
	}

	got, err := env.listings[domain.CategoryRestaurant].Get(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Joes Diner", got.Name)
}

func TestListingHandler_AdminDelete(t *testing.T) {
	env := newTestEnv(t)
	l := env.createRestaurant(t, "testUser", "Joes Diner")
	c := env.loggedInClient(t, "admin")

	_, body := env.get(t, c, "/restaurants/"+l.ID)
	assert.Contains(t, body, "_method=DELETE")

	resp := env.postForm(t, c, "/restaurants/"+l.ID+"?_method=DELETE", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/restaurants", resp.Header.Get("Location"))
	assert.Contains(t, env.follow(t, c, resp), "Restaurant Successfully Deleted!")

	_, err := env.listings[domain.CategoryRestaurant].Get(context.Background(), l.ID)
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestListingHandler_Comments(t *testing.T) {
	env := newTestEnv(t)
	l := env.createRestaurant(t, "testUser", "Joes Diner")
	author := env.loggedInClient(t, "otherUser")
	before := time.Now().Add(-time.Second)

	resp := env.postForm(t, author, "/restaurants/"+l.ID+"/comments", url.Values{"comment": {"Lovely pancakes"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/restaurants/"+l.ID, resp.Header.Get("Location"))
	body := env.follow(t, author, resp)
	assert.True(t, containsAll(body, "Comment Successfully Added!", "Lovely pancakes", "Ann (Elsewhere)"))

	got, err := env.listings[domain.CategoryRestaurant].Get(context.Background(), l.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	comment := got.Comments[0]
	assert.False(t, comment.Date.Before(before))
	assert.Equal(t, env.user(t, "otherUser").ID, comment.AddedBy.UserID)

	removePath := "/restaurants/" + l.ID + "/comments/" + comment.ID + "?_method=DELETE"

	// The listing owner did not write the comment.
	owner := env.loggedInClient(t, "testUser")
	resp = env.postForm(t, owner, removePath, nil)
	assert.Contains(t, env.follow(t, owner, resp), "Not Authorized")

	resp = env.postForm(t, author, removePath, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, env.follow(t, author, resp), "Comment Successfully Deleted!")

	got, err = env.listings[domain.CategoryRestaurant].Get(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Comments)

	// Removing it again is not an error.
	resp = env.postForm(t, author, removePath, nil)
	assert.Contains(t, env.follow(t, author, resp), "Comment Successfully Deleted!")
}

func TestListingHandler_CommentRequiresText(t *testing.T) {
	env := newTestEnv(t)
	l := env.createRestaurant(t, "testUser", "Joes Diner")
	c := env.loggedInClient(t, "testUser")

	resp := env.postForm(t, c, "/restaurants/"+l.ID+"/comments", url.Values{"comment": {"   "}})
	assert.Contains(t, env.follow(t, c, resp), "Missing `comment` in request body")

	anon := env.newClient(t)
	resp = env.postForm(t, anon, "/restaurants/"+l.ID+"/comments", url.Values{"comment": {"hi"}})
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func postPhoto(t *testing.T, env *testEnv, c *http.Client, path string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("photo", "photo.bin")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := c.Post(env.server.URL+path, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	_ = readBody(t, resp)
	return resp
}

func TestListingHandler_PhotoUpload(t *testing.T) {
	env := newTestEnv(t)
	l := env.createRestaurant(t, "testUser", "Joes Diner")
	c := env.loggedInClient(t, "testUser")
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x01}, 64)...)

	resp := postPhoto(t, env, c, "/restaurants/"+l.ID+"/photo", png)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, env.follow(t, c, resp), "Photo Successfully Uploaded!")

	got, err := env.listings[domain.CategoryRestaurant].Get(context.Background(), l.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.PhotoLink, "https://photos.example.test/restaurants/"+l.ID+"/"))
	assert.True(t, strings.HasSuffix(got.PhotoLink, ".png"))
	assert.Equal(t, 1, env.photos.Len())

	resp = postPhoto(t, env, c, "/restaurants/"+l.ID+"/photo", []byte("just some text"))
	assert.Contains(t, env.follow(t, c, resp), "Photos must be JPEG, PNG, GIF or WebP images")

	other := env.loggedInClient(t, "otherUser")
	resp = postPhoto(t, env, other, "/restaurants/"+l.ID+"/photo", png)
	assert.Contains(t, env.follow(t, other, resp), "Not Authorized")
	assert.Equal(t, 1, env.photos.Len())
}
