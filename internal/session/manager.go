package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/pkg/crypto"
)

type contextKey struct{}

// maxRenewAttempts bounds retries when a freshly generated id is already taken.
const maxRenewAttempts = 3

var errSessionIDExhausted = errors.New("could not allocate a unique session id")

// FromContext returns the request's session. Handlers behind Middleware
// always receive a non-nil session.
func FromContext(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(contextKey{}).(*domain.Session)
	return sess
}

// WithSession returns a context carrying sess.
func WithSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// Manager binds sessions to requests via a cookie.
type Manager struct {
	store      *Store
	cookieName string
	secure     bool
	logger     zerolog.Logger
}

// ManagerConfig contains configuration for the session manager.
type ManagerConfig struct {
	Store      *Store
	CookieName string
	Secure     bool
	Logger     zerolog.Logger
}

// NewManager creates a new session manager.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		store:      cfg.Store,
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
		logger:     cfg.Logger.With().Str("component", "session").Logger(),
	}
}

// Middleware loads the session named by the cookie, or starts a new
// anonymous one, and stores it in the request context. New sessions are
// persisted only when a handler calls Save.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.load(r)
		if err != nil {
			m.logger.Error().Err(err).Msg("Failed to start session")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

func (m *Manager) load(r *http.Request) (*domain.Session, error) {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		sess, err := m.store.Get(r.Context(), cookie.Value)
		if err == nil {
			if err := m.store.Touch(r.Context(), sess.ID); err != nil {
				m.logger.Warn().Err(err).Msg("Failed to refresh session lifetime")
			}
			return sess, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			m.logger.Warn().Err(err).Msg("Session store unavailable, starting anonymous session")
		}
	}
	return m.newSession()
}

func (m *Manager) newSession() (*domain.Session, error) {
	id, err := crypto.GenerateSessionID()
	if err != nil {
		return nil, err
	}
	return domain.NewSession(id), nil
}

// Save persists sess and (re)sends the cookie.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, sess *domain.Session) error {
	if err := m.store.Save(r.Context(), sess); err != nil {
		return err
	}
	m.setCookie(w, sess.ID, int(m.store.TTL().Seconds()))
	return nil
}

// Renew replaces the session id while keeping its contents, so that an id
// observed before login is useless afterwards. The returned session is
// already saved and installed in the cookie.
func (m *Manager) Renew(w http.ResponseWriter, r *http.Request, sess *domain.Session) (*domain.Session, error) {
	renewed := *sess
	for attempt := 0; ; attempt++ {
		if attempt == maxRenewAttempts {
			return nil, errSessionIDExhausted
		}
		id, err := crypto.GenerateSessionID()
		if err != nil {
			return nil, err
		}
		renewed.ID = id
		created, err := m.store.Create(r.Context(), &renewed)
		if err != nil {
			return nil, err
		}
		if created {
			break
		}
	}
	m.setCookie(w, renewed.ID, int(m.store.TTL().Seconds()))

	if err := m.store.Delete(r.Context(), sess.ID); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to delete previous session")
	}
	return &renewed, nil
}

// Destroy removes the session record and expires the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request, sess *domain.Session) error {
	m.setCookie(w, "", -1)
	return m.store.Delete(r.Context(), sess.ID)
}

func (m *Manager) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}
