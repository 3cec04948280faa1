// Package gallery manages portfolio artwork items and their single image slot.
package gallery

import (
	"time"

	"github.com/artfolio/service/internal/assets"
	"github.com/artfolio/service/internal/imageproc"
	"github.com/artfolio/service/internal/query"
)

// Item is one artwork in the public gallery.
type Item struct {
	ID          string    `db:"id" json:"id"`
	Type        string    `db:"type" json:"type"`
	Description string    `db:"description" json:"description"`
	Image       string    `db:"image" json:"image"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`

	// ImageURL is derived at read time from the CDN base URL; never persisted.
	ImageURL string `db:"-" json:"imageUrl,omitempty"`
}

// Table and columns for the record store.
const table = "gallery_items"

var columns = []string{"id", "type", "description", "image", "created_at"}

// queryColumns whitelists the fields list endpoints may filter, sort, and
// project by.
var queryColumns = query.Columns{
	"type":        "type",
	"description": "description",
	"image":       "image",
	"createdAt":   "created_at",
}

// imageSlot is the gallery image policy: 700px wide preserving aspect,
// highest JPEG quality, always a fresh key per upload.
var imageSlot = assets.Slot{
	Policy: imageproc.Policy{Width: 700, Quality: 100},
	Prefix: "artworks/",
}

type createInput struct {
	Type        string `validate:"required,oneof=cover-art illustration"`
	Description string `validate:"required,min=5,max=40"`
}

type updateInput struct {
	Type        string `validate:"omitempty,oneof=cover-art illustration"`
	Description string `validate:"omitempty,min=5,max=40"`
}
