package assets

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// maxUploadMemory bounds how much of a multipart body is held in memory
// before spilling to disk.
const maxUploadMemory = 32 << 20

// FileUpload reads a single optional file field from a multipart request.
// Returns (nil, nil) when the field is absent so callers can treat the
// upload as "no image change".
func FileUpload(r *http.Request, field string) (*Upload, error) {
	if err := parseForm(r); err != nil {
		return nil, err
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}
	up, err := readFile(r.MultipartForm.File[field][0])
	if err != nil {
		return nil, err
	}
	return &up, nil
}

// FileUploads reads every file submitted under a repeated field, preserving
// submission order. Returns (nil, nil) when the field is absent.
func FileUploads(r *http.Request, field string) ([]Upload, error) {
	if err := parseForm(r); err != nil {
		return nil, err
	}
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	ups := make([]Upload, 0, len(headers))
	for _, h := range headers {
		up, err := readFile(h)
		if err != nil {
			return nil, err
		}
		ups = append(ups, up)
	}
	return ups, nil
}

func parseForm(r *http.Request) error {
	if r.MultipartForm != nil {
		return nil
	}
	err := r.ParseMultipartForm(maxUploadMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return fmt.Errorf("parse multipart form: %w", err)
	}
	return nil
}

func readFile(h *multipart.FileHeader) (Upload, error) {
	f, err := h.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("open upload %q: %w", h.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, fmt.Errorf("read upload %q: %w", h.Filename, err)
	}
	return Upload{Data: data, ContentType: h.Header.Get("Content-Type")}, nil
}
