// Package user manages user accounts and their profile photo slot.
package user

import (
	"time"

	"github.com/artfolio/service/internal/assets"
	"github.com/artfolio/service/internal/imageproc"
	"github.com/artfolio/service/internal/query"
)

// DefaultPhoto is the sentinel stored key for users who have not uploaded a
// profile photo. The first real upload mints a stable per-user key.
const DefaultPhoto = "default.jpeg"

// User represents a registered account.
type User struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"firstName"`
	LastName     string    `db:"last_name" json:"lastName"`
	Email        string    `db:"email" json:"email"`
	Role         string    `db:"role" json:"role"`
	Photo        string    `db:"photo" json:"photo"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`

	// PhotoURL is derived at read time from the CDN base URL; never persisted.
	PhotoURL string `db:"-" json:"photoUrl,omitempty"`
}

const table = "users"

var columns = []string{"id", "first_name", "last_name", "email", "role", "photo", "password_hash", "active", "created_at"}

var queryColumns = query.Columns{
	"firstName": "first_name",
	"lastName":  "last_name",
	"email":     "email",
	"role":      "role",
	"active":    "active",
	"createdAt": "created_at",
}

// photoSlot crops profile photos to an exact 500x500 square. The key is
// stable after first assignment, so later uploads overwrite in place.
var photoSlot = assets.Slot{
	Policy: imageproc.Policy{Width: 500, Height: 500, Quality: 90},
	Prefix: "users/",
}

type profileInput struct {
	FirstName string `validate:"omitempty,max=30"`
	LastName  string `validate:"omitempty,max=30"`
	Email     string `validate:"omitempty,email"`
}

type adminUpdateInput struct {
	FirstName string `validate:"omitempty,max=30"`
	LastName  string `validate:"omitempty,max=30"`
	Email     string `validate:"omitempty,email"`
	Role      string `validate:"omitempty,oneof=user admin"`
}
