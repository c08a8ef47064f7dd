package handler

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/cityguide/internal/auth"
	cachememory "github.com/prn-tf/cityguide/internal/cache/memory"
	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/media"
	"github.com/prn-tf/cityguide/internal/metrics"
	"github.com/prn-tf/cityguide/internal/repository/memory"
	"github.com/prn-tf/cityguide/internal/service"
	"github.com/prn-tf/cityguide/internal/session"
)

const testCookieName = "cityguide_session"

var testPasswords = map[string]string{
	"admin":     "adminpass",
	"testUser":  "testPassword",
	"otherUser": "otherPassword",
}

type testEnv struct {
	server   *httptest.Server
	users    *service.UserService
	listings map[domain.Category]*service.ListingService
	photos   *media.MemoryStore
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	backend := memory.NewBackend()
	guards := auth.NewGuards("admin")

	users := service.NewUserService(backend.Repos.User, bcrypt.MinCost, logger)
	_, err := users.Seed(ctx, []service.SignupInput{
		{Username: "admin", Password: "adminpass", FirstName: "Admin", LastName: "Admin", Hometown: "Outer Space"},
		{Username: "testUser", Password: "testPassword", FirstName: "Joe", LastName: "Tester", Hometown: "Test Town"},
		{Username: "otherUser", Password: "otherPassword", FirstName: "Ann", LastName: "Other", Hometown: "Elsewhere"},
	})
	require.NoError(t, err)

	cache := cachememory.NewCache(time.Minute)
	t.Cleanup(func() { _ = cache.Close() })

	sessions := session.NewManager(session.ManagerConfig{
		Store:      session.NewStore(cache, time.Hour),
		CookieName: testCookieName,
		Logger:     logger,
	})

	renderer, err := NewRenderer(sessions, guards, logger)
	require.NoError(t, err)

	m := metrics.New()
	photos := media.NewMemoryStore("https://photos.example.test")
	uploader := media.NewUploader(photos, 1<<20, logger)

	env := &testEnv{
		users:    users,
		listings: make(map[domain.Category]*service.ListingService),
		photos:   photos,
		metrics:  m,
	}

	var (
		services        []*service.ListingService
		listingHandlers []*ListingHandler
	)
	for _, c := range domain.AllCategories() {
		svc := service.NewListingService(backend.Repos.Listing(c), guards, logger)
		env.listings[c] = svc
		services = append(services, svc)
		listingHandlers = append(listingHandlers, NewListingHandler(ListingHandlerConfig{
			Service:  svc,
			Renderer: renderer,
			Uploader: uploader,
			Metrics:  m,
			Logger:   logger,
		}))
	}

	router := NewRouter(RouterConfig{
		AuthHandler: NewAuthHandler(AuthHandlerConfig{
			Users:    users,
			Sessions: sessions,
			Renderer: renderer,
			Health:   backend.Database,
			Metrics:  m,
			Logger:   logger,
		}),
		ListingHandlers: listingHandlers,
		APIHandler:      NewAPIHandler(APIHandlerConfig{Services: services, Metrics: m, Logger: logger}),
		Renderer:        renderer,
		Sessions:        sessions,
		Users:           users,
		Metrics:         m,
		MetricsPath:     "/metrics",
		RequestTimeout:  5 * time.Second,
		MaxBodySize:     1 << 20,
		MaxUploadSize:   uploader.MaxSize(),
		Logger:          logger,
	})

	env.server = httptest.NewServer(router.Handler())
	t.Cleanup(env.server.Close)
	return env
}

// newClient returns a client with its own cookie jar that does not follow redirects.
func (e *testEnv) newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Timeout: 10 * time.Second,
	}
}

func (e *testEnv) loggedInClient(t *testing.T, username string) *http.Client {
	t.Helper()
	c := e.newClient(t)
	resp := e.postForm(t, c, "/auth/login", url.Values{
		"username": {username},
		"password": {testPasswords[username]},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
	return c
}

func (e *testEnv) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *testEnv) postForm(t *testing.T, c *http.Client, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(e.server.URL+path, form)
	require.NoError(t, err)
	_ = readBody(t, resp)
	return resp
}

// follow loads the redirect target of resp and returns the rendered page.
func (e *testEnv) follow(t *testing.T, c *http.Client, resp *http.Response) string {
	t.Helper()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	_, body := e.get(t, c, resp.Header.Get("Location"))
	return body
}

func (e *testEnv) user(t *testing.T, username string) *domain.User {
	t.Helper()
	u, err := e.users.Authenticate(context.Background(), username, testPasswords[username])
	require.NoError(t, err)
	return u
}

func (e *testEnv) createRestaurant(t *testing.T, username, name string) *domain.Listing {
	t.Helper()
	l, err := e.listings[domain.CategoryRestaurant].Create(context.Background(), e.user(t, username), service.ListingInput{
		Name:        name,
		TypeValue:   "Pizza",
		Building:    "1",
		Street:      "Main St",
		Description: "Thin crust",
	})
	require.NoError(t, err)
	return l
}

// readBody returns the unescaped body so assertions can use plain text.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return html.UnescapeString(string(data))
}

func sessionCookie(t *testing.T, c *http.Client, serverURL string) string {
	t.Helper()
	u, err := url.Parse(serverURL)
	require.NoError(t, err)
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == testCookieName {
			return ck.Value
		}
	}
	return ""
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
