// Package imageproc normalizes uploaded images for storage: decode, resize,
// and re-encode to JPEG at a per-slot quality, plus the stored-key naming
// policy. The pipeline is deterministic for identical input bytes and
// policy, which makes retried uploads idempotent.
package imageproc

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/artfolio/service/internal/apperror"
)

// ContentType is the canonical format every stored image is encoded in.
const ContentType = "image/jpeg"

// CoverSuffix marks a client project's cover image key.
const CoverSuffix = "-cover"

// Policy describes how one image slot is resized and encoded. Height 0 means
// scale to Width preserving aspect ratio; a non-zero Height crops to fill the
// exact Width x Height box.
type Policy struct {
	Width   int
	Height  int
	Quality int
}

// CheckMIME rejects any upload whose declared content type is not an image.
// Runs before any storage call so non-images never touch the bucket.
func CheckMIME(contentType string) error {
	if !strings.HasPrefix(contentType, "image") {
		return apperror.Validation("file", "not an image! please upload only images")
	}
	return nil
}

// Transform decodes raw upload bytes, resizes per the policy, and re-encodes
// as JPEG. The output depends only on the input bytes and the policy.
func Transform(data []byte, p Policy) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.Validation("file", "unable to decode image")
	}

	if p.Height > 0 {
		img = imaging.Fill(img, p.Width, p.Height, imaging.Center, imaging.Lanczos)
	} else {
		img = imaging.Resize(img, p.Width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// NewKey mints a fresh stored key: <prefix>img-<token>-<unix ms>[suffix].jpeg.
// The suffix distinguishes cover images (CoverSuffix) and numbered gallery
// images (IndexSuffix).
func NewKey(prefix, suffix string) string {
	return fmt.Sprintf("%simg-%s-%d%s.jpeg", prefix, token(), time.Now().UnixMilli(), suffix)
}

// UserKey mints the stable profile-photo key for a user. Minted once, on the
// first upload over the default sentinel; later uploads reuse it.
func UserKey(prefix, userID string) string {
	return fmt.Sprintf("%suser-%s-%d.jpeg", prefix, userID, time.Now().UnixMilli())
}

// IndexSuffix returns the 1-based suffix for the i-th image of a batch.
func IndexSuffix(i int) string {
	return fmt.Sprintf("-%d", i+1)
}

// IsDefault reports whether a stored key is the unset-photo sentinel.
func IsDefault(key string) bool {
	base := key
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		base = key[i+1:]
	}
	return strings.HasPrefix(base, "default")
}

// token returns a short unique filename token.
func token() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
