package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/metrics"
	"github.com/prn-tf/cityguide/internal/service"
	"github.com/prn-tf/cityguide/internal/session"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// AuthHandler serves the home page, login, signup, logout and health.
type AuthHandler struct {
	users    *service.UserService
	sessions *session.Manager
	renderer *Renderer
	health   HealthChecker
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// AuthHandlerConfig contains the dependencies of an AuthHandler.
type AuthHandlerConfig struct {
	Users    *service.UserService
	Sessions *session.Manager
	Renderer *Renderer
	Health   HealthChecker
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		users:    cfg.Users,
		sessions: cfg.Sessions,
		renderer: cfg.Renderer,
		health:   cfg.Health,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With().Str("handler", "auth").Logger(),
	}
}

// LoginPageData contains login page data.
type LoginPageData struct {
	PageData
	Username string
}

// SignupPageData contains signup page data.
// Form echoes the submitted values back, without the password.
type SignupPageData struct {
	PageData
	Form service.SignupInput
}

// RegisterRoutes registers the home, authentication and health routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleHome)
	r.Get("/login", h.handleLoginPage)
	r.Post("/auth/login", h.handleLogin)
	r.Get("/signup", h.handleSignupPage)
	r.Post("/auth/signup", h.handleSignup)
	r.Get("/logout", h.handleLogout)
	r.Get("/health", h.handleHealth)
}

func (h *AuthHandler) handleHome(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "index.html", h.renderer.Page(w, r, "City Guide"))
}

// =============================================================================
// Login / Logout
// =============================================================================

func (h *AuthHandler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	data := LoginPageData{PageData: h.renderer.Page(w, r, "Log in")}
	h.renderer.Render(w, http.StatusOK, "login.html", data)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, http.StatusBadRequest, "", "Invalid form data")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.users.Authenticate(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.metrics.RecordLogin(false)
			h.logger.Debug().Str("username", username).Msg("Login failed")
			h.renderLoginError(w, r, http.StatusUnauthorized, username, domain.ErrInvalidCredentials.Error())
			return
		}
		h.renderLoginError(w, r, http.StatusInternalServerError, username, "Internal Server Error")
		return
	}

	if _, err := h.signIn(w, r, user); err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to start authenticated session")
		h.renderLoginError(w, r, http.StatusInternalServerError, username, "Internal Server Error")
		return
	}

	h.metrics.RecordLogin(true)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess != nil {
		if err := h.sessions.Destroy(w, r, sess); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to delete session")
		}
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// signIn binds the session to user under a fresh id. The returned request
// carries the renewed session.
func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, user *domain.User) (*http.Request, error) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		return nil, errors.New("no session in request context")
	}
	sess.SignIn(user.ID)
	renewed, err := h.sessions.Renew(w, r, sess)
	if err != nil {
		return nil, err
	}
	return r.WithContext(session.WithSession(r.Context(), renewed)), nil
}

func (h *AuthHandler) renderLoginError(w http.ResponseWriter, r *http.Request, status int, username, message string) {
	data := LoginPageData{
		PageData: h.renderer.Page(w, r, "Log in"),
		Username: username,
	}
	data.Error = message
	h.renderer.Render(w, status, "login.html", data)
}

// =============================================================================
// Signup
// =============================================================================

func (h *AuthHandler) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	data := SignupPageData{PageData: h.renderer.Page(w, r, "Sign up")}
	h.renderer.Render(w, http.StatusOK, "signup.html", data)
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderSignupError(w, r, http.StatusBadRequest, service.SignupInput{}, "Invalid form data")
		return
	}

	input := service.SignupInput{
		Username:  r.PostFormValue("username"),
		Password:  r.PostFormValue("password"),
		FirstName: r.PostFormValue("firstName"),
		LastName:  r.PostFormValue("lastName"),
		Hometown:  r.PostFormValue("hometown"),
	}

	user, err := h.users.Signup(r.Context(), input)
	if err != nil {
		input.Password = ""
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			h.renderSignupError(w, r, http.StatusBadRequest, input, vErr.Message)
		case errors.Is(err, domain.ErrUserAlreadyExists):
			h.renderSignupError(w, r, http.StatusConflict, input, "Username already taken")
		default:
			h.renderSignupError(w, r, http.StatusInternalServerError, input, "Internal Server Error")
		}
		return
	}

	signedIn, err := h.signIn(w, r, user)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to sign in new user")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	h.renderer.Redirect(w, signedIn, domain.FlashSuccess, "Account Successfully Created!", "/")
}

func (h *AuthHandler) renderSignupError(w http.ResponseWriter, r *http.Request, status int, input service.SignupInput, message string) {
	data := SignupPageData{
		PageData: h.renderer.Page(w, r, "Sign up"),
		Form:     input,
	}
	data.Error = message
	h.renderer.Render(w, status, "signup.html", data)
}

// =============================================================================
// Health
// =============================================================================

func (h *AuthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.health.Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
