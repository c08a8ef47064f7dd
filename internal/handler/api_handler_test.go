package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/cityguide/internal/domain"
)

func (e *testEnv) doJSON(t *testing.T, c *http.Client, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestAPIHandler_ListAndGet(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)

	resp, out := env.doJSON(t, c, http.MethodGet, "/api/restaurants", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, out["restaurants"])

	l := env.createRestaurant(t, "testUser", "Joes Diner")

	resp, out = env.doJSON(t, c, http.MethodGet, "/api/restaurants", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list, ok := out["restaurants"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)

	resp, out = env.doJSON(t, c, http.MethodGet, "/api/restaurants/"+l.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, l.ID, out["id"])
	assert.Equal(t, "Joes Diner", out["name"])
	assert.Equal(t, "Pizza", out["cuisine"])
	assert.Equal(t, "1 Main St", out["address"])
	assert.Equal(t, "Thin crust", out["description"])
	assert.NotContains(t, out, "comments")

	addedBy, ok := out["addedBy"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Joe", addedBy["firstName"])

	resp, out = env.doJSON(t, c, http.MethodGet, "/api/restaurants/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Restaurant not found", out["message"])
}

func TestAPIHandler_Create(t *testing.T) {
	env := newTestEnv(t)

	resp, out := env.doJSON(t, env.newClient(t), http.MethodPost, "/api/nightlife", map[string]any{"name": "Club"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, out["message"])

	c := env.loggedInClient(t, "testUser")

	resp, out = env.doJSON(t, c, http.MethodPost, "/api/nightlife", map[string]any{
		"typeOfVenue": "Jazz bar",
		"address":     "Side St",
		"description": "Late nights",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing `name` in request body", out["message"])

	resp, out = env.doJSON(t, c, http.MethodPost, "/api/nightlife", map[string]any{
		"name":        "Blue Note",
		"address":     "Side St",
		"description": "Late nights",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing `typeOfVenue` in request body", out["message"])

	resp, out = env.doJSON(t, c, http.MethodPost, "/api/nightlife", map[string]any{
		"name":        "Blue Note",
		"typeOfVenue": "Jazz bar",
		"building":    "7",
		"address":     "Side St",
		"description": "Late nights",
		"addedBy":     map[string]any{"userId": "forged"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Blue Note", out["name"])
	assert.Equal(t, "Jazz bar", out["typeOfVenue"])
	assert.Equal(t, "7 Side St", out["address"])

	id, _ := out["id"].(string)
	got, err := env.listings[domain.CategoryNightlife].Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, env.user(t, "testUser").ID, got.OwnerID())
}

func TestAPIHandler_CreateRejectsMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedInClient(t, "testUser")

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/services", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Request body must be a JSON object")
}

func TestAPIHandler_Update(t *testing.T) {
	env := newTestEnv(t)
	l := env.createRestaurant(t, "testUser", "Joes Diner")
	path := "/api/restaurants/" + l.ID

	resp, _ := env.doJSON(t, env.newClient(t), http.MethodPut, path, map[string]any{"id": l.ID, "name": "X"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	other := env.loggedInClient(t, "otherUser")
	resp, out := env.doJSON(t, other, http.MethodPut, path, map[string]any{"id": l.ID, "name": "X"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Not Authorized", out["message"])

	owner := env.loggedInClient(t, "testUser")
	resp, _ = env.doJSON(t, owner, http.MethodPut, path, map[string]any{"id": "someone-else", "name": "X"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, out = env.doJSON(t, owner, http.MethodPut, path, map[string]any{"id": l.ID, "name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "`name` cannot be empty", out["message"])

	resp, _ = env.doJSON(t, owner, http.MethodPut, path, map[string]any{"id": l.ID, "cuisine": "Neapolitan"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	got, err := env.listings[domain.CategoryRestaurant].Get(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Neapolitan", got.TypeValue)
	assert.Equal(t, "Joes Diner", got.Name)
	assert.Equal(t, l.Description, got.Description)
}

func TestAPIHandler_Delete(t *testing.T) {
	env := newTestEnv(t)
	l := env.createRestaurant(t, "testUser", "Joes Diner")
	path := "/api/restaurants/" + l.ID

	owner := env.loggedInClient(t, "testUser")
	resp, _ := env.doJSON(t, owner, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin := env.loggedInClient(t, "admin")
	resp, _ = env.doJSON(t, admin, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.doJSON(t, admin, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.doJSON(t, admin, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
