package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Home(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, env.newClient(t), "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, containsAll(body, "/restaurants", "/nightlife", "/services", "Log in"))
	assert.NotContains(t, body, "Hello,")
}

func TestAuthHandler_LoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)

	// Visiting a page first gives the client an anonymous session id.
	env.postForm(t, c, "/restaurants", restaurantForm())
	before := sessionCookie(t, c, env.server.URL)
	require.NotEmpty(t, before)

	resp := env.postForm(t, c, "/auth/login", url.Values{"username": {"admin"}, "password": {"adminpass"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	after := sessionCookie(t, c, env.server.URL)
	assert.NotEmpty(t, after)
	assert.NotEqual(t, before, after, "session id must change on login")

	_, body := env.get(t, c, "/")
	assert.True(t, containsAll(body, "Hello, Admin", "Log out"))

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Logins.WithLabelValues("success")))
}

func TestAuthHandler_LoginFailure(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "wrong"},
		{"unknown user", "nobody", "adminpass"},
		{"empty form", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			c := env.newClient(t)

			resp, err := c.PostForm(env.server.URL+"/auth/login", url.Values{
				"username": {tt.username},
				"password": {tt.password},
			})
			require.NoError(t, err)
			body := readBody(t, resp)

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Contains(t, body, "Incorrect username or password")
			assert.NotContains(t, body, "Hello,")

			_, body = env.get(t, c, "/")
			assert.NotContains(t, body, "Hello,")
			assert.Contains(t, body, "Log in")
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	env := newTestEnv(t)
	c := env.loggedInClient(t, "testUser")

	_, body := env.get(t, c, "/")
	require.Contains(t, body, "Hello, Joe")

	resp, _ := env.get(t, c, "/logout")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body = env.get(t, c, "/")
	assert.NotContains(t, body, "Hello, Joe")
}

func TestAuthHandler_Signup(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)

	resp, body := env.get(t, c, "/signup")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `action="/auth/signup"`)

	resp = env.postForm(t, c, "/auth/signup", url.Values{
		"username":  {"newbie"},
		"password":  {"s3cret"},
		"firstName": {"Nina"},
		"hometown":  {"Springfield"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	body = env.follow(t, c, resp)
	assert.True(t, containsAll(body, "Account Successfully Created!", "Hello, Nina"))
}

func TestAuthHandler_SignupErrors(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)

	resp, err := c.PostForm(env.server.URL+"/auth/signup", url.Values{
		"username":  {"testUser"},
		"password":  {"whatever"},
		"firstName": {"Dup"},
	})
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.True(t, containsAll(body, "Username already taken", `value="Dup"`))
	assert.NotContains(t, body, "whatever")

	resp, err = c.PostForm(env.server.URL+"/auth/signup", url.Values{"username": {"solo"}})
	require.NoError(t, err)
	body = readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Missing `password` in request body")
}

func TestAuthHandler_Health(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, env.newClient(t), "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var status map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	assert.Equal(t, "healthy", status["status"])
}

func TestRouter_MetricsAndNotFound(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)

	resp, body := env.get(t, c, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page not found")

	env.get(t, c, "/restaurants")

	resp, body = env.get(t, c, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `cityguide_http_requests_total{code="200",method="GET",route="/restaurants"}`)
}
