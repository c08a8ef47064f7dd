package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/cityguide/internal/auth"
	"github.com/prn-tf/cityguide/internal/domain"
	"github.com/prn-tf/cityguide/internal/media"
	"github.com/prn-tf/cityguide/internal/metrics"
	"github.com/prn-tf/cityguide/internal/service"
)

// ListingHandler serves the pages and form actions of one category.
// The router registers one instance per category.
type ListingHandler struct {
	category domain.Category
	service  *service.ListingService
	renderer *Renderer
	uploader *media.Uploader
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// ListingHandlerConfig contains the dependencies of a ListingHandler.
type ListingHandlerConfig struct {
	Service  *service.ListingService
	Renderer *Renderer

	// Uploader is nil when photo uploads are disabled.
	Uploader *media.Uploader

	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// NewListingHandler creates a handler for the service's category.
func NewListingHandler(cfg ListingHandlerConfig) *ListingHandler {
	return &ListingHandler{
		category: cfg.Service.Category(),
		service:  cfg.Service,
		renderer: cfg.Renderer,
		uploader: cfg.Uploader,
		metrics:  cfg.Metrics,
		logger: cfg.Logger.With().
			Str("handler", "listing").
			Str("category", cfg.Service.Category().Slug()).
			Logger(),
	}
}

// =============================================================================
// Template Data Structs
// =============================================================================

// ListingsPageData contains the collection page data.
type ListingsPageData struct {
	PageData
	Category domain.Category
	Listings []*domain.Listing
}

// ListingPageData contains the detail page data.
type ListingPageData struct {
	PageData
	Category     domain.Category
	Listing      *domain.Listing
	PhotoUploads bool
}

// FormPageData contains the add and edit form data.
type FormPageData struct {
	PageData
	Category domain.Category
	Listing  *domain.Listing
	Editing  bool
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers the category's routes.
func (h *ListingHandler) RegisterRoutes(r chi.Router) {
	base := "/" + h.category.Slug()

	r.Get(base, h.handleList)
	r.Post(base, h.handleCreate)
	r.Get(base+"/add-new", h.handleNewForm)
	r.Get(base+"/{id}", h.handleShow)
	r.Put(base+"/{id}", h.handleUpdate)
	r.Delete(base+"/{id}", h.handleDelete)
	r.Get(base+"/{id}/edit", h.handleEditForm)
	r.Post(base+"/{id}/comments", h.handleAddComment)
	r.Delete(base+"/{id}/comments/{commentId}", h.handleRemoveComment)
	r.Post(base+"/{id}/photo", h.handlePhotoUpload)
}

func (h *ListingHandler) collectionPath() string {
	return "/" + h.category.Slug()
}

func (h *ListingHandler) listingPath(id string) string {
	return h.collectionPath() + "/" + id
}

// =============================================================================
// Pages
// =============================================================================

func (h *ListingHandler) handleList(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.List(r.Context())
	if err != nil {
		h.renderer.RenderError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	data := ListingsPageData{
		PageData: h.renderer.Page(w, r, h.category.Plural()),
		Category: h.category,
		Listings: listings,
	}
	h.renderer.Render(w, http.StatusOK, "listings.html", data)
}

func (h *ListingHandler) handleShow(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, h.collectionPath())
		return
	}

	data := ListingPageData{
		PageData:     h.renderer.Page(w, r, listing.Name),
		Category:     h.category,
		Listing:      listing,
		PhotoUploads: h.uploader != nil,
	}
	h.renderer.Render(w, http.StatusOK, "listing.html", data)
}

func (h *ListingHandler) handleNewForm(w http.ResponseWriter, r *http.Request) {
	if auth.CurrentUser(r.Context()) == nil {
		h.fail(w, r, domain.ErrNotAuthenticated, h.collectionPath())
		return
	}

	data := FormPageData{
		PageData: h.renderer.Page(w, r, "Add a "+h.category.Singular()),
		Category: h.category,
		Listing:  domain.NewListing(h.category, domain.Author{}),
	}
	h.renderer.Render(w, http.StatusOK, "form.html", data)
}

func (h *ListingHandler) handleEditForm(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.Authorize(r.Context(), auth.CurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, h.collectionPath())
		return
	}

	data := FormPageData{
		PageData: h.renderer.Page(w, r, "Edit "+listing.Name),
		Category: h.category,
		Listing:  listing,
		Editing:  true,
	}
	h.renderer.Render(w, http.StatusOK, "form.html", data)
}

// =============================================================================
// Form Actions
// =============================================================================

func (h *ListingHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, domain.NewValidationError("form", "Invalid form data"), h.collectionPath())
		return
	}

	input := service.ListingInput{
		Name:        r.PostFormValue("name"),
		TypeValue:   r.PostFormValue(h.category.TypeField()),
		Building:    r.PostFormValue("building"),
		Street:      r.PostFormValue("address"),
		Zipcode:     r.PostFormValue("zipcode"),
		Phone:       r.PostFormValue("phone"),
		WebURL:      r.PostFormValue("webUrl"),
		PhotoLink:   r.PostFormValue("photoLink"),
		Description: r.PostFormValue("description"),
	}

	if _, err := h.service.Create(r.Context(), auth.CurrentUser(r.Context()), input); err != nil {
		h.fail(w, r, err, h.collectionPath()+"/add-new")
		return
	}

	h.metrics.RecordMutation(h.category.Slug(), "create")
	h.renderer.Redirect(w, r, domain.FlashSuccess, h.category.Singular()+" Successfully Added!", h.collectionPath())
}

func (h *ListingHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, domain.NewValidationError("form", "Invalid form data"), h.listingPath(id))
		return
	}

	patch := patchFromForm(r, h.category)
	if err := h.service.Update(r.Context(), auth.CurrentUser(r.Context()), id, patch); err != nil {
		h.fail(w, r, err, h.listingPath(id))
		return
	}

	h.metrics.RecordMutation(h.category.Slug(), "update")
	h.renderer.Redirect(w, r, domain.FlashSuccess, h.category.Singular()+" Successfully Updated!", h.listingPath(id))
}

func (h *ListingHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), auth.CurrentUser(r.Context()), id); err != nil {
		h.fail(w, r, err, h.listingPath(id))
		return
	}

	h.metrics.RecordMutation(h.category.Slug(), "delete")
	h.renderer.Redirect(w, r, domain.FlashSuccess, h.category.Singular()+" Successfully Deleted!", h.collectionPath())
}

func (h *ListingHandler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, domain.NewValidationError("form", "Invalid form data"), h.listingPath(id))
		return
	}

	input := service.CommentInput{Comment: r.PostFormValue("comment")}
	if _, err := h.service.AddComment(r.Context(), auth.CurrentUser(r.Context()), id, input); err != nil {
		h.fail(w, r, err, h.listingPath(id))
		return
	}

	h.metrics.RecordMutation(h.category.Slug(), "comment")
	h.renderer.Redirect(w, r, domain.FlashSuccess, "Comment Successfully Added!", h.listingPath(id))
}

func (h *ListingHandler) handleRemoveComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	commentID := chi.URLParam(r, "commentId")

	if err := h.service.RemoveComment(r.Context(), auth.CurrentUser(r.Context()), id, commentID); err != nil {
		h.fail(w, r, err, h.listingPath(id))
		return
	}

	h.metrics.RecordMutation(h.category.Slug(), "uncomment")
	h.renderer.Redirect(w, r, domain.FlashSuccess, "Comment Successfully Deleted!", back(r, h.listingPath(id)))
}

func (h *ListingHandler) handlePhotoUpload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor := auth.CurrentUser(r.Context())

	if h.uploader == nil {
		h.renderer.Redirect(w, r, domain.FlashFailure, "Photo uploads are disabled", h.listingPath(id))
		return
	}

	if _, err := h.service.Authorize(r.Context(), actor, id); err != nil {
		h.fail(w, r, err, h.listingPath(id))
		return
	}

	if err := r.ParseMultipartForm(h.uploader.MaxSize()); err != nil {
		h.renderer.Redirect(w, r, domain.FlashFailure, "Photo is too large", h.listingPath(id))
		return
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		h.fail(w, r, domain.MissingField("photo"), h.listingPath(id))
		return
	}
	defer file.Close()

	link, err := h.uploader.Upload(r.Context(), h.category, id, file)
	switch {
	case errors.Is(err, media.ErrTooLarge), errors.Is(err, media.ErrUnsupportedType), errors.Is(err, media.ErrEmpty):
		h.renderer.Redirect(w, r, domain.FlashFailure, photoErrorMessage(err), h.listingPath(id))
		return
	case err != nil:
		h.logger.Error().Err(err).Str("listing_id", id).Msg("Photo upload failed")
		h.renderer.Redirect(w, r, domain.FlashFailure, "Internal Server Error", h.listingPath(id))
		return
	}

	if err := h.service.Update(r.Context(), actor, id, domain.ListingPatch{PhotoLink: &link}); err != nil {
		h.fail(w, r, err, h.listingPath(id))
		return
	}

	h.metrics.RecordMutation(h.category.Slug(), "photo")
	h.renderer.Redirect(w, r, domain.FlashSuccess, "Photo Successfully Uploaded!", h.listingPath(id))
}

// =============================================================================
// Helper Methods
// =============================================================================

// fail converts an error into a flash message and a redirect.
func (h *ListingHandler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var vErr *domain.ValidationError

	switch {
	case errors.As(err, &vErr):
		h.renderer.Redirect(w, r, domain.FlashFailure, vErr.Message, back(r, fallback))
	case errors.Is(err, domain.ErrListingNotFound):
		h.renderer.Redirect(w, r, domain.FlashFailure, h.category.Singular()+" not found", h.collectionPath())
	case errors.Is(err, domain.ErrNotAuthenticated):
		h.renderer.Redirect(w, r, domain.FlashFailure, "Please log in first", "/login")
	case errors.Is(err, domain.ErrNotAuthorized):
		h.renderer.Redirect(w, r, domain.FlashFailure, domain.ErrNotAuthorized.Error(), back(r, h.collectionPath()))
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		h.renderer.Redirect(w, r, domain.FlashFailure, "Internal Server Error", back(r, fallback))
	}
}

// patchFromForm sets only the fields present in the submitted form.
func patchFromForm(r *http.Request, category domain.Category) domain.ListingPatch {
	field := func(name string) *string {
		values, ok := r.PostForm[name]
		if !ok {
			return nil
		}
		v := strings.Join(values, "")
		return &v
	}

	return domain.ListingPatch{
		Name:        field("name"),
		TypeValue:   field(category.TypeField()),
		Building:    field("building"),
		Street:      field("address"),
		Zipcode:     field("zipcode"),
		Phone:       field("phone"),
		WebURL:      field("webUrl"),
		PhotoLink:   field("photoLink"),
		Description: field("description"),
	}
}

func photoErrorMessage(err error) string {
	switch {
	case errors.Is(err, media.ErrTooLarge):
		return "Photo is too large"
	case errors.Is(err, media.ErrEmpty):
		return "Photo is empty"
	default:
		return "Photos must be JPEG, PNG, GIF or WebP images"
	}
}
