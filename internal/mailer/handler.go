package mailer

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/artfolio/service/internal/apperror"
	"github.com/artfolio/service/internal/response"
	"github.com/artfolio/service/internal/validate"
)

// Handler serves the public contact-form endpoint.
type Handler struct {
	sender Sender
}

// NewHandler creates a new contact Handler.
func NewHandler(sender Sender) *Handler {
	return &Handler{sender: sender}
}

type contactRequest struct {
	FirstName string `json:"firstName" validate:"required,max=30"`
	LastName  string `json:"lastName" validate:"required,max=30"`
	Email     string `json:"email" validate:"required,email"`
	Subject   string `json:"subject" validate:"required,max=100"`
	Message   string `json:"message" validate:"required"`
}

// Contact validates the submission and relays it to the site owner.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		apperror.Write(w, err)
		return
	}

	err := h.sender.Send(Message{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Subject:   req.Subject,
		Body:      req.Message,
	})
	if err != nil {
		log.Printf("mailer: %v", err)
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]string{"message": "email sent successfully"})
}
