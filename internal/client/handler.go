package client

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artfolio/service/internal/apperror"
	"github.com/artfolio/service/internal/assets"
	"github.com/artfolio/service/internal/response"
)

// Handler holds HTTP handlers for client endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new client Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List returns a filtered, sorted, paginated page of clients.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	clients, count, err := h.svc.List(r.Context(), r.URL.Query())
	if err != nil {
		apperror.Write(w, err)
		return
	}
	response.List(w, count, len(clients), clients)
}

// Get returns one client.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apperror.Write(w, err)
		return
	}
	response.OK(w, c)
}

// Create accepts a multipart form with text fields, a required `coverImage`
// file, and up to six `images` files.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	cover, err := assets.FileUpload(r, "coverImage")
	if err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}
	images, err := assets.FileUploads(r, "images")
	if err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	c, err := h.svc.Create(r.Context(),
		r.FormValue("name"), r.FormValue("projectName"), r.FormValue("description"),
		cover, images)
	if err != nil {
		apperror.Write(w, err)
		return
	}
	response.Created(w, c)
}

// Update patches a client; either image slot may be replaced.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	cover, err := assets.FileUpload(r, "coverImage")
	if err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}
	images, err := assets.FileUploads(r, "images")
	if err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	c, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"),
		r.FormValue("name"), r.FormValue("projectName"), r.FormValue("description"),
		cover, images)
	if err != nil {
		apperror.Write(w, err)
		return
	}
	response.OK(w, c)
}

// Delete removes a client and releases all of its stored images.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		apperror.Write(w, err)
		return
	}
	response.NoContent(w)
}
