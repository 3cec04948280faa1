package user

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artfolio/service/internal/apperror"
	"github.com/artfolio/service/internal/assets"
	"github.com/artfolio/service/internal/middleware"
	"github.com/artfolio/service/internal/response"
)

// Handler holds HTTP handlers for user endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new user Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetMe returns the profile of the currently authenticated user.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.PrincipalID(r)
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	u, err := h.svc.GetByID(r.Context(), userID)
	if err != nil {
		apperror.Write(w, err)
		return
	}
	response.OK(w, u)
}

// UpdateMe patches the caller's own profile. Accepts a multipart form with
// `firstName`, `lastName`, `email`, and an optional `photo` file. Password
// changes go through the auth routes, never here.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.PrincipalID(r)
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	photo, err := assets.FileUpload(r, "photo")
	if err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}
	if r.FormValue("password") != "" {
		response.BadRequest(w, "this route is not for password updates")
		return
	}

	u, err := h.svc.UpdateProfile(r.Context(), userID, ProfileUpdate{
		FirstName: r.FormValue("firstName"),
		LastName:  r.FormValue("lastName"),
		Email:     r.FormValue("email"),
	}, photo)
	if err != nil {
		apperror.Write(w, err)
		return
	}
	response.OK(w, u)
}

// DeleteMe deactivates the caller's own account.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.PrincipalID(r)
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.svc.Deactivate(r.Context(), userID); err != nil {
		apperror.Write(w, err)
		return
	}
	response.NoContent(w)
}

// List returns a filtered, sorted, paginated page of users. Admin only.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, count, err := h.svc.List(r.Context(), r.URL.Query())
	if err != nil {
		apperror.Write(w, err)
		return
	}
	response.List(w, count, len(users), users)
}

// Get returns one user by id. Admin only.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apperror.Write(w, err)
		return
	}
	response.OK(w, u)
}

type adminUpdateRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Active    *bool  `json:"active"`
}

// Update patches another user's account fields. Admin only.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req adminUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	u, err := h.svc.AdminUpdate(r.Context(), chi.URLParam(r, "id"),
		req.FirstName, req.LastName, req.Email, req.Role, req.Active)
	if err != nil {
		apperror.Write(w, err)
		return
	}
	response.OK(w, u)
}

// Delete hard-deletes a user and releases their photo object. Admin only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		apperror.Write(w, err)
		return
	}
	response.NoContent(w)
}
