package user

import (
	"context"
	"net/url"
	"strings"

	"github.com/artfolio/service/internal/apperror"
	"github.com/artfolio/service/internal/assets"
	"github.com/artfolio/service/internal/imageproc"
	"github.com/artfolio/service/internal/query"
	"github.com/artfolio/service/internal/record"
	"github.com/artfolio/service/internal/validate"
)

// ProfileUpdate carries the fields a user may change on their own account.
// Nil/empty fields are left untouched.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Email     string
}

// Store is the persistence surface the service needs; *record.Store[User]
// satisfies it.
type Store interface {
	Insert(ctx context.Context, fields *record.Fields) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	UpdateByID(ctx context.Context, id string, fields *record.Fields) (*User, error)
	DeleteByID(ctx context.Context, id string) error
	List(ctx context.Context, spec query.Spec) ([]*User, error)
	Count(ctx context.Context, spec query.Spec) (int64, error)
}

// NewStore creates the user record store over the given database.
func NewStore(db record.DB) *record.Store[User] {
	return record.New[User](db, table, columns)
}

// Service contains business logic for user management.
type Service struct {
	store   Store
	assets  *assets.Manager
	cdnBase string
}

// NewService creates a user Service. cdnBase is the users CDN base URL.
func NewService(store Store, mgr *assets.Manager, cdnBase string) *Service {
	return &Service{store: store, assets: mgr, cdnBase: cdnBase}
}

// Create registers a new account with the default photo sentinel.
func (s *Service) Create(ctx context.Context, firstName, lastName, email, passwordHash string) (*User, error) {
	fields := (&record.Fields{}).
		Set("first_name", firstName).
		Set("last_name", lastName).
		Set("email", strings.ToLower(email)).
		Set("password_hash", passwordHash)
	u, err := s.store.Insert(ctx, fields)
	if err != nil {
		return nil, err
	}
	s.decorate(u)
	return u, nil
}

// GetByID returns a user by id.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(u)
	return u, nil
}

// GetByEmail returns a user by email address. Used by the login path; the
// returned record includes the password hash.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	spec := query.Spec{
		Filters: []query.Filter{{Column: "email", Op: "=", Value: strings.ToLower(email)}},
		Page:    1,
		Limit:   1,
	}
	users, err := s.store.List(ctx, spec)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, apperror.ErrNotFound
	}
	s.decorate(users[0])
	return users[0], nil
}

// List returns one page of users plus the unpaginated total.
func (s *Service) List(ctx context.Context, params url.Values) ([]*User, int64, error) {
	spec, err := query.Parse(params, queryColumns, "createdAt")
	if err != nil {
		return nil, 0, err
	}

	count, err := s.store.Count(ctx, spec)
	if err != nil {
		return nil, 0, err
	}
	users, err := s.store.List(ctx, spec)
	if err != nil {
		return nil, 0, err
	}
	for _, u := range users {
		s.decorate(u)
	}
	return users, count, nil
}

// UpdateProfile patches a user's own fields and, when a photo is uploaded,
// their photo slot. The first upload mints a stable key and needs no
// invalidation (nothing is cached under it yet); every later upload
// overwrites the same key in place and invalidates its path.
func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileUpdate, photo *assets.Upload) (*User, error) {
	if err := validate.Struct(profileInput{FirstName: in.FirstName, LastName: in.LastName, Email: in.Email}); err != nil {
		return nil, err
	}

	fields := &record.Fields{}
	if in.FirstName != "" {
		fields.Set("first_name", in.FirstName)
	}
	if in.LastName != "" {
		fields.Set("last_name", in.LastName)
	}
	if in.Email != "" {
		fields.Set("email", strings.ToLower(in.Email))
	}

	if photo != nil {
		current, err := s.store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if imageproc.IsDefault(current.Photo) {
			key := imageproc.UserKey(photoSlot.Prefix, id)
			if err := s.assets.StoreAtKey(ctx, key, *photo, photoSlot); err != nil {
				return nil, err
			}
			fields.Set("photo", key)
		} else {
			if err := s.assets.ReplaceInPlace(ctx, current.Photo, *photo, photoSlot); err != nil {
				return nil, err
			}
		}
	}

	u, err := s.store.UpdateByID(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.decorate(u)
	return u, nil
}

// AdminUpdate patches another user's account fields. Never touches the
// password or the photo slot.
func (s *Service) AdminUpdate(ctx context.Context, id string, firstName, lastName, email, role string, active *bool) (*User, error) {
	if err := validate.Struct(adminUpdateInput{FirstName: firstName, LastName: lastName, Email: email, Role: role}); err != nil {
		return nil, err
	}

	fields := &record.Fields{}
	if firstName != "" {
		fields.Set("first_name", firstName)
	}
	if lastName != "" {
		fields.Set("last_name", lastName)
	}
	if email != "" {
		fields.Set("email", strings.ToLower(email))
	}
	if role != "" {
		fields.Set("role", role)
	}
	if active != nil {
		fields.Set("active", *active)
	}

	u, err := s.store.UpdateByID(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.decorate(u)
	return u, nil
}

// Deactivate soft-deletes a user's own account. The photo object stays: the
// account can be reactivated.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	_, err := s.store.UpdateByID(ctx, id, (&record.Fields{}).Set("active", false))
	return err
}

// Delete hard-deletes an account, releasing its photo object first unless it
// is the default sentinel. Cleanup is best-effort; the record removal
// defines success.
func (s *Service) Delete(ctx context.Context, id string) error {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	s.assets.Release(ctx, u.Photo)
	return s.store.DeleteByID(ctx, id)
}

func (s *Service) decorate(u *User) {
	if u.Photo != "" {
		u.PhotoURL = s.cdnBase + u.Photo
	}
}
