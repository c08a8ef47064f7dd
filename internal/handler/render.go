// Package handler provides the HTTP handlers of the City Guide server:
// server-rendered pages, form actions and the JSON API.
package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/cityguide/internal/auth"
	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"index.html",
	"login.html",
	"signup.html",
	"listings.html",
	"listing.html",
	"form.html",
	"error.html",
}

// Renderer executes page templates inside the shared layout.
type Renderer struct {
	pages    map[string]*template.Template
	sessions *session.Manager
	guards   auth.Guards
	logger   zerolog.Logger
}

// NewRenderer parses every page template.
func NewRenderer(sessions *session.Manager, guards auth.Guards, logger zerolog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"canModify": guards.IsAdminOrAuthor,
		"isAdmin":   guards.IsAdmin,
		"date": func(t time.Time) string {
			return t.Local().Format("Jan 2, 2006 3:04 PM")
		},
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{
		pages:    pages,
		sessions: sessions,
		guards:   guards,
		logger:   logger.With().Str("component", "renderer").Logger(),
	}, nil
}

// =============================================================================
// Template Data Structs
// =============================================================================

// PageData contains common page data.
type PageData struct {
	Title      string
	User       *domain.User
	IsAdmin    bool
	Flashes    []domain.Flash
	Categories []domain.Category
	Error      string
}

// Page builds the common data of a page and consumes pending flashes.
// The session is saved when flashes were consumed, so it must be called
// before anything is written to w.
func (rd *Renderer) Page(w http.ResponseWriter, r *http.Request, title string) PageData {
	user := auth.CurrentUser(r.Context())
	data := PageData{
		Title:      title,
		User:       user,
		IsAdmin:    rd.guards.IsAdmin(user),
		Categories: domain.AllCategories(),
	}

	if sess := session.FromContext(r.Context()); sess != nil {
		data.Flashes = sess.PopFlashes()
		if len(data.Flashes) > 0 {
			if err := rd.sessions.Save(w, r, sess); err != nil {
				rd.logger.Warn().Err(err).Msg("Failed to save session after reading flashes")
			}
		}
	}
	return data
}

// Render executes a page with the given status.
// Output is buffered so template errors still produce a clean 500.
func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := rd.pages[name]
	if !ok {
		rd.logger.Error().Str("template", name).Msg("Unknown template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		rd.logger.Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderError renders the error page.
func (rd *Renderer) RenderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := rd.Page(w, r, "Error")
	data.Error = message
	rd.Render(w, status, "error.html", data)
}

// =============================================================================
// Flash Redirects
// =============================================================================

// Redirect queues a flash message and redirects to target.
func (rd *Renderer) Redirect(w http.ResponseWriter, r *http.Request, kind domain.FlashKind, message, target string) {
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.AddFlash(kind, message)
		if err := rd.sessions.Save(w, r, sess); err != nil {
			rd.logger.Error().Err(err).Msg("Failed to save flash message")
		}
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// back returns the Referer path when it points at this host, otherwise fallback.
func back(r *http.Request, fallback string) string {
	ref := r.Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) || u.Path == "" {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
