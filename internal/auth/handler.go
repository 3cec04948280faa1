package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/artfolio/service/internal/apperror"
	"github.com/artfolio/service/internal/response"
	"github.com/artfolio/service/internal/user"
	"github.com/artfolio/service/internal/validate"
)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type signupRequest struct {
	FirstName string `json:"firstName" validate:"required,max=30"`
	LastName  string `json:"lastName" validate:"required,max=30"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenData struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// Signup creates a new account and returns a JWT with the user record.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		apperror.Write(w, err)
		return
	}

	token, u, err := h.svc.Signup(r.Context(), req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.Conflict(w, err.Error())
			return
		}
		apperror.Write(w, err)
		return
	}
	response.Created(w, tokenData{Token: token, User: u})
}

// Login verifies credentials and returns a JWT with the user record.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		apperror.Write(w, err)
		return
	}

	token, u, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			response.Unauthorized(w, err.Error())
			return
		}
		apperror.Write(w, err)
		return
	}
	response.OK(w, tokenData{Token: token, User: u})
}
