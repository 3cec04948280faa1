// Package apperror defines the error taxonomy shared across the API:
// validation failures, missing records, authorization problems, and external
// dependency failures (object storage, CDN). Handlers map these to HTTP
// responses with Write; anything unrecognized is treated as an internal
// error whose detail is logged but never sent to the caller.
package apperror

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/artfolio/service/internal/response"
)

// ErrNotFound indicates the referenced record does not exist.
var ErrNotFound = errors.New("no document found with that ID")

// ErrUnauthorized indicates a missing or invalid authenticated principal.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates the principal's role does not permit the operation.
var ErrForbidden = errors.New("you do not have permission to perform this action")

// ValidationError reports one or more invalid input fields. The message
// enumerates every failing field so the client can fix them in one pass.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Validation creates a ValidationError for a single field.
func Validation(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// StorageError wraps an object-store failure.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// CacheError wraps a CDN invalidation failure. Always best-effort: callers
// log it and carry on.
type CacheError struct {
	Paths []string
	Err   error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cdn invalidate %v: %v", e.Paths, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// Write maps err onto the HTTP response according to the propagation policy:
// validation and not-found surface with their message, authorization errors
// surface as 401/403, everything else (storage, cache, unknown) is logged
// server-side and returned as a generic 500.
func Write(w http.ResponseWriter, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		response.BadRequest(w, ve.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, ErrNotFound.Error())
	case errors.Is(err, ErrUnauthorized):
		response.Unauthorized(w, ErrUnauthorized.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, ErrForbidden.Error())
	default:
		log.Printf("internal error: %v", err)
		response.InternalError(w)
	}
}
