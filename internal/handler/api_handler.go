package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/cityguide/internal/auth"
	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/metrics"
	"github.com/prn-tf/cityguide/internal/service"
)

// APIHandler serves the JSON API of every category under /api.
type APIHandler struct {
	services []*service.ListingService
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// APIHandlerConfig contains the dependencies of an APIHandler.
type APIHandlerConfig struct {
	Services []*service.ListingService
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(cfg APIHandlerConfig) *APIHandler {
	return &APIHandler{
		services: cfg.Services,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With().Str("handler", "api").Logger(),
	}
}

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Message string `json:"message"`
}

// RegisterRoutes registers /api/{slug} routes for each category.
func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		for _, svc := range h.services {
			ep := &apiEndpoint{svc: svc, parent: h}
			r.Route("/"+svc.Category().Slug(), func(r chi.Router) {
				r.Get("/", ep.list)
				r.Post("/", ep.create)
				r.Get("/{id}", ep.get)
				r.Put("/{id}", ep.update)
				r.Delete("/{id}", ep.delete)
			})
		}
	})
}

// apiEndpoint binds the handler to one category's service.
type apiEndpoint struct {
	svc    *service.ListingService
	parent *APIHandler
}

func (e *apiEndpoint) category() domain.Category {
	return e.svc.Category()
}

func (e *apiEndpoint) list(w http.ResponseWriter, r *http.Request) {
	listings, err := e.svc.List(r.Context())
	if err != nil {
		e.parent.writeError(w, r, e.category(), err)
		return
	}

	out := make([]map[string]any, 0, len(listings))
	for _, l := range listings {
		out = append(out, project(l))
	}
	writeJSON(w, http.StatusOK, map[string]any{e.category().Slug(): out})
}

func (e *apiEndpoint) get(w http.ResponseWriter, r *http.Request) {
	listing, err := e.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		e.parent.writeError(w, r, e.category(), err)
		return
	}
	writeJSON(w, http.StatusOK, project(listing))
}

func (e *apiEndpoint) create(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUser(r.Context())
	if actor == nil {
		e.parent.writeError(w, r, e.category(), domain.ErrNotAuthenticated)
		return
	}

	body, err := decodeBody(r)
	if err != nil {
		e.parent.writeError(w, r, e.category(), err)
		return
	}

	c := e.category()
	input := service.ListingInput{
		Name:        body.str("name"),
		TypeValue:   body.str(c.TypeField()),
		Building:    body.str("building"),
		Street:      body.str("address"),
		Zipcode:     body.str("zipcode"),
		Phone:       body.str("phone"),
		WebURL:      body.str("webUrl"),
		PhotoLink:   body.str("photoLink"),
		Description: body.str("description"),
	}

	listing, err := e.svc.Create(r.Context(), actor, input)
	if err != nil {
		e.parent.writeError(w, r, c, err)
		return
	}

	e.parent.metrics.RecordMutation(c.Slug(), "create")
	writeJSON(w, http.StatusCreated, project(listing))
}

func (e *apiEndpoint) update(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUser(r.Context())
	if actor == nil {
		e.parent.writeError(w, r, e.category(), domain.ErrNotAuthenticated)
		return
	}

	id := chi.URLParam(r, "id")
	body, err := decodeBody(r)
	if err != nil {
		e.parent.writeError(w, r, e.category(), err)
		return
	}
	if body.str("id") != id {
		e.parent.writeError(w, r, e.category(),
			domain.NewValidationError("id", "The `id` in the request body must match the URL"))
		return
	}

	c := e.category()
	patch := domain.ListingPatch{
		Name:        body.ptr("name"),
		TypeValue:   body.ptr(c.TypeField()),
		Building:    body.ptr("building"),
		Street:      body.ptr("address"),
		Zipcode:     body.ptr("zipcode"),
		Phone:       body.ptr("phone"),
		WebURL:      body.ptr("webUrl"),
		PhotoLink:   body.ptr("photoLink"),
		Description: body.ptr("description"),
	}

	if err := e.svc.Update(r.Context(), actor, id, patch); err != nil {
		e.parent.writeError(w, r, c, err)
		return
	}

	e.parent.metrics.RecordMutation(c.Slug(), "update")
	w.WriteHeader(http.StatusNoContent)
}

func (e *apiEndpoint) delete(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUser(r.Context())
	if actor == nil {
		e.parent.writeError(w, r, e.category(), domain.ErrNotAuthenticated)
		return
	}

	if err := e.svc.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		e.parent.writeError(w, r, e.category(), err)
		return
	}

	e.parent.metrics.RecordMutation(e.category().Slug(), "delete")
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helper Functions
// =============================================================================

// project builds the public JSON view of a listing.
// The type field is emitted under its category-specific name.
func project(l *domain.Listing) map[string]any {
	return map[string]any{
		"id":                   l.ID,
		"name":                 l.Name,
		l.Category.TypeField(): l.TypeValue,
		"address":              l.AddressString(),
		"description":          l.Description,
		"addedBy":              l.AddedBy,
	}
}

// jsonBody is a decoded request object. Non-string values are ignored.
type jsonBody map[string]any

func decodeBody(r *http.Request) (jsonBody, error) {
	var body jsonBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, domain.NewValidationError("body", "Request body must be a JSON object")
	}
	if body == nil {
		return nil, domain.NewValidationError("body", "Request body must be a JSON object")
	}
	return body, nil
}

func (b jsonBody) str(key string) string {
	s, _ := b[key].(string)
	return s
}

func (b jsonBody) ptr(key string) *string {
	s, ok := b[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, c domain.Category, err error) {
	var vErr *domain.ValidationError

	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: vErr.Message})
	case errors.Is(err, domain.ErrListingNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: c.Singular() + " not found"})
	case errors.Is(err, domain.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Authentication required"})
	case errors.Is(err, domain.ErrNotAuthorized):
		writeJSON(w, http.StatusForbidden, errorResponse{Message: domain.ErrNotAuthorized.Error()})
	default:
		h.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("API request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal Server Error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

