package client

import (
	"context"
	"log"
	"net/url"

	"github.com/gosimple/slug"

	"github.com/artfolio/service/internal/apperror"
	"github.com/artfolio/service/internal/assets"
	"github.com/artfolio/service/internal/imageproc"
	"github.com/artfolio/service/internal/query"
	"github.com/artfolio/service/internal/record"
	"github.com/artfolio/service/internal/validate"
)

// Store is the persistence surface the service needs; *record.Store[Client]
// satisfies it.
type Store interface {
	Insert(ctx context.Context, fields *record.Fields) (*Client, error)
	FindByID(ctx context.Context, id string) (*Client, error)
	UpdateByID(ctx context.Context, id string, fields *record.Fields) (*Client, error)
	DeleteByID(ctx context.Context, id string) error
	List(ctx context.Context, spec query.Spec) ([]*Client, error)
	Count(ctx context.Context, spec query.Spec) (int64, error)
}

// NewStore creates the client record store over the given database.
func NewStore(db record.DB) *record.Store[Client] {
	return record.New[Client](db, table, columns)
}

// Service contains business logic for client projects.
type Service struct {
	store   Store
	assets  *assets.Manager
	cdnBase string
}

// NewService creates a client Service.
func NewService(store Store, mgr *assets.Manager, cdnBase string) *Service {
	return &Service{store: store, assets: mgr, cdnBase: cdnBase}
}

// List returns one page of clients plus the unpaginated total.
func (s *Service) List(ctx context.Context, params url.Values) ([]*Client, int64, error) {
	spec, err := query.Parse(params, queryColumns, "createdAt")
	if err != nil {
		return nil, 0, err
	}

	count, err := s.store.Count(ctx, spec)
	if err != nil {
		return nil, 0, err
	}
	clients, err := s.store.List(ctx, spec)
	if err != nil {
		return nil, 0, err
	}
	for _, c := range clients {
		s.decorate(c)
	}
	return clients, count, nil
}

// Get returns one client by id.
func (s *Service) Get(ctx context.Context, id string) (*Client, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(c)
	return c, nil
}

// Create stores the cover image and any project images under fresh keys,
// then persists the record referencing them. All puts must succeed before
// the record is written; a failed record write leaves orphaned objects that
// are logged, not rolled back.
func (s *Service) Create(ctx context.Context, name, projectName, description string, cover *assets.Upload, images []assets.Upload) (*Client, error) {
	if cover == nil {
		return nil, apperror.Validation("coverImage", "a cover image is required")
	}
	if len(images) > maxImages {
		return nil, apperror.Validation("images", "a project may have at most 6 images")
	}
	if err := validate.Struct(createInput{Name: name, ProjectName: projectName, Description: description}); err != nil {
		return nil, err
	}

	coverKey, err := s.assets.StoreNew(ctx, *cover, coverSlot, imageproc.CoverSuffix)
	if err != nil {
		return nil, err
	}
	imageKeys := []string{}
	if len(images) > 0 {
		imageKeys, err = s.assets.StoreBatch(ctx, images, imagesSlot)
		if err != nil {
			return nil, err
		}
	}

	fields := (&record.Fields{}).
		Set("name", name).
		Set("project_name", projectName).
		Set("slug", slug.Make(projectName)).
		Set("description", description).
		Set("cover_image", coverKey).
		Set("images", imageKeys)
	c, err := s.store.Insert(ctx, fields)
	if err != nil {
		log.Printf("client: orphaned objects %v after failed insert: %v", append([]string{coverKey}, imageKeys...), err)
		return nil, err
	}
	s.decorate(c)
	return c, nil
}

// Update patches a client. A new cover overwrites the existing stored key in
// place, followed by an invalidation of that path. New project images are
// stored under fresh keys; the prior list is released best-effort before the
// record is pointed at the new keys.
func (s *Service) Update(ctx context.Context, id, name, projectName, description string, cover *assets.Upload, images []assets.Upload) (*Client, error) {
	if len(images) > maxImages {
		return nil, apperror.Validation("images", "a project may have at most 6 images")
	}
	if err := validate.Struct(updateInput{Name: name, ProjectName: projectName}); err != nil {
		return nil, err
	}

	fields := &record.Fields{}
	if name != "" {
		fields.Set("name", name)
	}
	if projectName != "" {
		fields.Set("project_name", projectName)
		fields.Set("slug", slug.Make(projectName))
	}
	if description != "" {
		fields.Set("description", description)
	}

	if cover != nil || len(images) > 0 {
		current, err := s.store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if cover != nil {
			// The record already holds a cover key; reuse it so the CDN path
			// stays stable.
			if err := s.assets.ReplaceInPlace(ctx, current.CoverImage, *cover, coverSlot); err != nil {
				return nil, err
			}
		}

		if len(images) > 0 {
			newKeys, err := s.assets.StoreBatch(ctx, images, imagesSlot)
			if err != nil {
				return nil, err
			}
			s.assets.Release(ctx, current.Images...)
			fields.Set("images", newKeys)
		}
	}

	c, err := s.store.UpdateByID(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.decorate(c)
	return c, nil
}

// Delete removes the record, releasing the cover and every project image
// first. Cleanup is best-effort; the record removal defines success.
func (s *Service) Delete(ctx context.Context, id string) error {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	s.assets.Release(ctx, append([]string{c.CoverImage}, c.Images...)...)
	return s.store.DeleteByID(ctx, id)
}

func (s *Service) decorate(c *Client) {
	if c.CoverImage != "" {
		c.CoverImageURL = s.cdnBase + c.CoverImage
	}
	for _, key := range c.Images {
		c.ImagesURL = append(c.ImagesURL, s.cdnBase+key)
	}
}
