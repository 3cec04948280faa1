// Package client manages client/project records with a cover image slot and
// a project image list.
package client

import (
	"time"

	"github.com/artfolio/service/internal/assets"
	"github.com/artfolio/service/internal/imageproc"
	"github.com/artfolio/service/internal/query"
)

// maxImages caps the project image list per client.
const maxImages = 6

// Client is one client project in the portfolio.
type Client struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	ProjectName string    `db:"project_name" json:"projectName"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	CoverImage  string    `db:"cover_image" json:"coverImage"`
	Images      []string  `db:"images" json:"images"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`

	// Derived at read time from the CDN base URL; never persisted.
	CoverImageURL string   `db:"-" json:"coverImageUrl,omitempty"`
	ImagesURL     []string `db:"-" json:"imagesUrl,omitempty"`
}

const table = "clients"

var columns = []string{"id", "name", "project_name", "slug", "description", "cover_image", "images", "created_at"}

var queryColumns = query.Columns{
	"name":        "name",
	"projectName": "project_name",
	"slug":        "slug",
	"createdAt":   "created_at",
}

// coverSlot replaces in place after creation: the key stays stable for the
// record's lifetime, so every overwrite is followed by an invalidation.
var coverSlot = assets.Slot{
	Policy: imageproc.Policy{Width: 700, Quality: 90},
	Prefix: "artworks/",
}

// imagesSlot always mints fresh keys; an update replaces the whole list.
var imagesSlot = assets.Slot{
	Policy: imageproc.Policy{Width: 700, Quality: 90},
	Prefix: "artworks/",
}

type createInput struct {
	Name        string `validate:"required,max=20"`
	ProjectName string `validate:"required,min=5,max=30"`
	Description string `validate:"required"`
}

type updateInput struct {
	Name        string `validate:"omitempty,max=20"`
	ProjectName string `validate:"omitempty,min=5,max=30"`
}
