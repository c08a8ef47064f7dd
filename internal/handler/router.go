package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/prn-tf/cityguide/internal/auth"
	"github.com/prn-tf/cityguide/internal/metrics"
	"github.com/prn-tf/cityguide/internal/session"
)

// Router assembles the middleware chain and every route of the server.
type Router struct {
	authHandler     *AuthHandler
	listingHandlers []*ListingHandler
	apiHandler      *APIHandler
	renderer        *Renderer
	sessions        *session.Manager
	users           auth.UserLoader
	metrics         *metrics.Metrics
	metricsPath     string
	requestTimeout  time.Duration
	maxBodySize     int64
	maxUploadSize   int64
	logger          zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	AuthHandler     *AuthHandler
	ListingHandlers []*ListingHandler
	APIHandler      *APIHandler
	Renderer        *Renderer
	Sessions        *session.Manager
	Users           auth.UserLoader

	// Metrics is nil when metrics are disabled.
	Metrics     *metrics.Metrics
	MetricsPath string

	RequestTimeout time.Duration
	MaxBodySize    int64
	MaxUploadSize  int64
	Logger         zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		authHandler:     cfg.AuthHandler,
		listingHandlers: cfg.ListingHandlers,
		apiHandler:      cfg.APIHandler,
		renderer:        cfg.Renderer,
		sessions:        cfg.Sessions,
		users:           cfg.Users,
		metrics:         cfg.Metrics,
		metricsPath:     cfg.MetricsPath,
		requestTimeout:  cfg.RequestTimeout,
		maxBodySize:     cfg.MaxBodySize,
		maxUploadSize:   cfg.MaxUploadSize,
		logger:          cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(rt.logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)
	if rt.requestTimeout > 0 {
		r.Use(middleware.Timeout(rt.requestTimeout))
	}
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}
	r.Use(rt.limitBody)
	r.Use(methodOverride)

	// Metrics are served without touching the session store.
	if rt.metrics != nil {
		r.Handle(rt.metricsPath, rt.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(rt.sessions.Middleware)
		r.Use(auth.Middleware(rt.users, rt.logger))

		rt.authHandler.RegisterRoutes(r)
		for _, h := range rt.listingHandlers {
			h.RegisterRoutes(r)
		}
		rt.apiHandler.RegisterRoutes(r)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			rt.renderer.RenderError(w, r, http.StatusNotFound, "Page not found")
		})
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// requestIDLogger adds chi's request id to the request logger.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("Request")
}

// limitBody caps request bodies. Photo uploads get the upload limit plus
// room for the multipart envelope.
func (rt *Router) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := rt.maxBodySize
		if strings.HasSuffix(r.URL.Path, "/photo") && rt.maxUploadSize > 0 {
			limit = rt.maxUploadSize + 1<<20
		}
		if limit > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

// methodOverride rewrites POST requests carrying _method=PUT|PATCH|DELETE,
// in the query string or a url-encoded form, so HTML forms reach those routes.
func methodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			override := r.URL.Query().Get("_method")
			if override == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
				override = r.PostFormValue("_method")
			}

			switch m := strings.ToUpper(override); m {
			case http.MethodPut, http.MethodPatch, http.MethodDelete:
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}
