package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/session"
)

func TestGuards(t *testing.T) {
	g := NewGuards("admin")
	admin := &domain.User{ID: "a1", Username: "admin"}
	owner := &domain.User{ID: "u1", Username: "joe"}
	other := &domain.User{ID: "u2", Username: "ann"}

	tests := []struct {
		name          string
		user          *domain.User
		ownerID       string
		wantAdmin     bool
		wantAdminOrAu bool
	}{
		{"anonymous", nil, "u1", false, false},
		{"admin", admin, "u1", true, true},
		{"owner", owner, "u1", false, true},
		{"other user", other, "u1", false, false},
		{"empty owner never matches", &domain.User{ID: "", Username: "ghost"}, "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantAdmin, g.IsAdmin(tt.user))
			assert.Equal(t, tt.wantAdminOrAu, g.IsAdminOrAuthor(tt.user, tt.ownerID))

			err := g.RequireAdminOrAuthor(tt.user, tt.ownerID)
			if tt.wantAdminOrAu {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrNotAuthorized)
			}
		})
	}

	assert.ErrorIs(t, g.RequireUser(nil), domain.ErrNotAuthenticated)
	assert.ErrorIs(t, g.RequireAdmin(owner), domain.ErrNotAuthorized)
	assert.NoError(t, g.RequireAdmin(admin))
}

type stubLoader map[string]*domain.User

func (s stubLoader) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if id == "broken" {
		return nil, errors.New("connection refused")
	}
	u, ok := s[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func TestMiddleware(t *testing.T) {
	loader := stubLoader{"u1": {ID: "u1", Username: "joe"}}

	tests := []struct {
		name        string
		userID      string
		wantUser    string
		wantSession string
	}{
		{"anonymous", "", "", ""},
		{"known user", "u1", "joe", "u1"},
		{"deleted user", "gone", "", ""},
		{"store failure", "broken", "", "broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := domain.NewSession("s1")
			sess.SignIn(tt.userID)

			var got *domain.User
			h := Middleware(loader, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = CurrentUser(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(session.WithSession(req.Context(), sess))
			h.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantUser == "" {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, tt.wantUser, got.Username)
			}
			assert.Equal(t, tt.wantSession, sess.UserID)
		})
	}
}
