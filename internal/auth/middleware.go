// Package auth resolves the current user from the session and provides the
// authorization guards used before any listing or comment is mutated.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/session"
)

// UserLoader retrieves a user by ID.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type contextKey struct{}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(ctx context.Context) *domain.User {
	u, _ := ctx.Value(contextKey{}).(*domain.User)
	return u
}

// WithUser returns a context carrying user as the current user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// Middleware resolves the session's user id into the current user.
// It must run after session.Manager.Middleware. A session pointing at a user
// that no longer exists is treated as anonymous; store failures are logged
// and the request continues anonymously.
func Middleware(users UserLoader, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "auth").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromContext(r.Context())
			if sess == nil || !sess.IsAuthenticated() {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByID(r.Context(), sess.UserID)
			switch {
			case err == nil:
				r = r.WithContext(WithUser(r.Context(), user))
			case errors.Is(err, domain.ErrUserNotFound):
				sess.SignOut()
			default:
				logger.Error().Err(err).Str("user_id", sess.UserID).Msg("Failed to load current user")
			}

			next.ServeHTTP(w, r)
		})
	}
}
