package gallery

import (
	"context"
	"log"
	"net/url"

	"github.com/artfolio/service/internal/apperror"
	"github.com/artfolio/service/internal/assets"
	"github.com/artfolio/service/internal/query"
	"github.com/artfolio/service/internal/record"
	"github.com/artfolio/service/internal/validate"
)

// Store is the persistence surface the service needs; *record.Store[Item]
// satisfies it.
type Store interface {
	Insert(ctx context.Context, fields *record.Fields) (*Item, error)
	FindByID(ctx context.Context, id string) (*Item, error)
	UpdateByID(ctx context.Context, id string, fields *record.Fields) (*Item, error)
	DeleteByID(ctx context.Context, id string) error
	List(ctx context.Context, spec query.Spec) ([]*Item, error)
	Count(ctx context.Context, spec query.Spec) (int64, error)
}

// NewStore creates the gallery record store over the given database.
func NewStore(db record.DB) *record.Store[Item] {
	return record.New[Item](db, table, columns)
}

// Service contains business logic for gallery items.
type Service struct {
	store   Store
	assets  *assets.Manager
	cdnBase string
}

// NewService creates a gallery Service. cdnBase is the artworks CDN base URL
// prepended to stored keys at read time.
func NewService(store Store, mgr *assets.Manager, cdnBase string) *Service {
	return &Service{store: store, assets: mgr, cdnBase: cdnBase}
}

// List returns one page of items plus the unpaginated total for the same
// filter set.
func (s *Service) List(ctx context.Context, params url.Values) ([]*Item, int64, error) {
	spec, err := query.Parse(params, queryColumns, "createdAt")
	if err != nil {
		return nil, 0, err
	}

	count, err := s.store.Count(ctx, spec)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.store.List(ctx, spec)
	if err != nil {
		return nil, 0, err
	}
	for _, item := range items {
		s.decorate(item)
	}
	return items, count, nil
}

// Get returns one item by id.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(item)
	return item, nil
}

// Create stores the uploaded image under a fresh key, then persists the
// record referencing it. A storage failure aborts before the record is
// written, so no record ever points at a missing object. If the record write
// fails after the put, the orphaned object is logged, not rolled back.
func (s *Service) Create(ctx context.Context, itemType, description string, up *assets.Upload) (*Item, error) {
	if up == nil {
		return nil, apperror.Validation("image", "no file was found! add the image file from the input field to continue")
	}
	if err := validate.Struct(createInput{Type: itemType, Description: description}); err != nil {
		return nil, err
	}

	key, err := s.assets.StoreNew(ctx, *up, imageSlot, "")
	if err != nil {
		return nil, err
	}

	fields := (&record.Fields{}).
		Set("type", itemType).
		Set("description", description).
		Set("image", key)
	item, err := s.store.Insert(ctx, fields)
	if err != nil {
		log.Printf("gallery: orphaned object %q after failed insert: %v", key, err)
		return nil, err
	}
	s.decorate(item)
	return item, nil
}

// Update patches an item. When a new image is uploaded it is stored under a
// fresh key first; the previous object is then released best-effort before
// the record is pointed at the new key.
func (s *Service) Update(ctx context.Context, id, itemType, description string, up *assets.Upload) (*Item, error) {
	if err := validate.Struct(updateInput{Type: itemType, Description: description}); err != nil {
		return nil, err
	}

	fields := &record.Fields{}
	if itemType != "" {
		fields.Set("type", itemType)
	}
	if description != "" {
		fields.Set("description", description)
	}

	if up != nil {
		current, err := s.store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		key, err := s.assets.StoreNew(ctx, *up, imageSlot, "")
		if err != nil {
			return nil, err
		}
		s.assets.Release(ctx, current.Image)
		fields.Set("image", key)
	}

	item, err := s.store.UpdateByID(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.decorate(item)
	return item, nil
}

// Delete removes the record, releasing its stored object first. Object
// deletion and invalidation are best-effort; the record removal is what
// defines success.
func (s *Service) Delete(ctx context.Context, id string) error {
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	s.assets.Release(ctx, item.Image)
	return s.store.DeleteByID(ctx, id)
}

func (s *Service) decorate(item *Item) {
	if item.Image != "" {
		item.ImageURL = s.cdnBase + item.Image
	}
}
