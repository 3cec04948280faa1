package gallery

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artfolio/service/internal/apperror"
	"github.com/artfolio/service/internal/assets"
	"github.com/artfolio/service/internal/response"
)

// Handler holds HTTP handlers for gallery endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new gallery Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List returns a filtered, sorted, paginated page of gallery items.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, count, err := h.svc.List(r.Context(), r.URL.Query())
	if err != nil {
		apperror.Write(w, err)
		return
	}
	response.List(w, count, len(items), items)
}

// Get returns one gallery item.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apperror.Write(w, err)
		return
	}
	response.OK(w, item)
}

// Create accepts a multipart form with `type`, `description`, and a required
// `image` file.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	up, err := assets.FileUpload(r, "image")
	if err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	item, err := h.svc.Create(r.Context(), r.FormValue("type"), r.FormValue("description"), up)
	if err != nil {
		apperror.Write(w, err)
		return
	}
	response.Created(w, item)
}

// Update patches an item; a new `image` file replaces the stored one.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	up, err := assets.FileUpload(r, "image")
	if err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	item, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"),
		r.FormValue("type"), r.FormValue("description"), up)
	if err != nil {
		apperror.Write(w, err)
		return
	}
	response.OK(w, item)
}

// Delete removes an item and releases its image.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		apperror.Write(w, err)
		return
	}
	response.NoContent(w)
}
