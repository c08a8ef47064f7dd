package handler

import (
	"html"
	"net/http"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiListing struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (e *testEnv) restyClient(t *testing.T, username string) *resty.Client {
	t.Helper()
	c := resty.New().SetBaseURL(e.server.URL)
	if username == "" {
		return c
	}

	resp, err := c.R().
		SetFormData(map[string]string{"username": username, "password": testPasswords[username]}).
		Post("/auth/login")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Contains(t, resp.String(), "Hello,")
	return c
}

func pageText(resp *resty.Response) string {
	return html.UnescapeString(resp.String())
}

func TestEndToEnd_RestaurantLifecycle(t *testing.T) {
	env := newTestEnv(t)
	joe := env.restyClient(t, "testUser")
	admin := env.restyClient(t, "admin")

	resp, err := joe.R().
		SetFormData(map[string]string{
			"name":        "Joe's",
			"cuisine":     "Diner",
			"building":    "1",
			"address":     "Main St",
			"description": "Best coffee in town",
		}).
		Post("/restaurants")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, pageText(resp), "Restaurant Successfully Added!")

	var list map[string][]apiListing
	resp, err = joe.R().SetResult(&list).Get("/api/restaurants")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Len(t, list["restaurants"], 1)
	created := list["restaurants"][0]
	assert.Equal(t, "Joe's", created.Name)
	assert.Equal(t, "1 Main St", created.Address)

	resp, err = joe.R().Get("/restaurants/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, pageText(resp), "Joe's")
	assert.Contains(t, pageText(resp), "1 Main St")

	resp, err = joe.R().
		SetFormData(map[string]string{"comment": "Great pancakes"}).
		Post("/restaurants/" + created.ID + "/comments")
	require.NoError(t, err)
	assert.Contains(t, pageText(resp), "Comment Successfully Added!")
	assert.Contains(t, pageText(resp), "Great pancakes")

	// The owner is not the admin and may not delete.
	resp, err = joe.R().Post("/restaurants/" + created.ID + "?_method=DELETE")
	require.NoError(t, err)
	assert.Contains(t, pageText(resp), "Not Authorized")

	resp, err = admin.R().Post("/restaurants/" + created.ID + "?_method=DELETE")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, pageText(resp), "Restaurant Successfully Deleted!")

	resp, err = joe.R().Get("/restaurants/" + created.ID)
	require.NoError(t, err)
	assert.Contains(t, pageText(resp), "Restaurant not found")

	resp, err = joe.R().Get("/api/restaurants/" + created.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestEndToEnd_Login(t *testing.T) {
	env := newTestEnv(t)
	c := env.restyClient(t, "")

	resp, err := c.R().
		SetFormData(map[string]string{"username": "admin", "password": "wrong"}).
		Post("/auth/login")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	assert.Contains(t, resp.String(), "Incorrect username or password")

	resp, err = c.R().
		SetFormData(map[string]string{"username": "admin", "password": "adminpass"}).
		Post("/auth/login")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, resp.String(), "Hello, Admin")
}
