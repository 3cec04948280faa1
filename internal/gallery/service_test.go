package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artfolio/service/internal/apperror"
	"github.com/artfolio/service/internal/assets"
	"github.com/artfolio/service/internal/query"
	"github.com/artfolio/service/internal/record"
)

// --- fakes ---

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	deletes []string
	delErr  error
}

func newFakeStorage() *fakeStorage { return &fakeStorage{objects: map[string][]byte{}} }

func (f *fakeStorage) Put(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.objects, key)
	return nil
}

type fakeCDN struct {
	batches [][]string
	err     error
}

func (f *fakeCDN) Invalidate(_ context.Context, paths []string) error {
	f.batches = append(f.batches, paths)
	return f.err
}

type fakeStore struct {
	items  map[string]*Item
	nextID int
}

func newFakeStore() *fakeStore { return &fakeStore{items: map[string]*Item{}} }

func (f *fakeStore) apply(item *Item, fields *record.Fields) {
	fields.Each(func(column string, value any) {
		switch column {
		case "type":
			item.Type = value.(string)
		case "description":
			item.Description = value.(string)
		case "image":
			item.Image = value.(string)
		}
	})
}

func (f *fakeStore) Insert(_ context.Context, fields *record.Fields) (*Item, error) {
	f.nextID++
	item := &Item{ID: fmt.Sprintf("item-%d", f.nextID), CreatedAt: time.Now()}
	f.apply(item, fields)
	f.items[item.ID] = item
	copy := *item
	return &copy, nil
}

func (f *fakeStore) FindByID(_ context.Context, id string) (*Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	copy := *item
	return &copy, nil
}

func (f *fakeStore) UpdateByID(_ context.Context, id string, fields *record.Fields) (*Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	f.apply(item, fields)
	copy := *item
	return &copy, nil
}

func (f *fakeStore) DeleteByID(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeStore) List(_ context.Context, _ query.Spec) ([]*Item, error) {
	out := make([]*Item, 0, len(f.items))
	for _, item := range f.items {
		copy := *item
		out = append(out, &copy)
	}
	return out, nil
}

func (f *fakeStore) Count(_ context.Context, _ query.Spec) (int64, error) {
	return int64(len(f.items)), nil
}

// --- helpers ---

func pngUpload(t *testing.T) *assets.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 4), B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &assets.Upload{Data: buf.Bytes(), ContentType: "image/png"}
}

type env struct {
	svc     *Service
	store   *fakeStore
	objects *fakeStorage
	cache   *fakeCDN
}

func newEnv() *env {
	store := newFakeStore()
	objects := newFakeStorage()
	cache := &fakeCDN{}
	return &env{
		svc:     NewService(store, assets.NewManager(objects, cache), "https://cdn.example.com/"),
		store:   store,
		objects: objects,
		cache:   cache,
	}
}

var mintedKey = regexp.MustCompile(`^artworks/img-[0-9a-f]{12}-\d+\.jpeg$`)

// --- tests ---

func TestCreateStoresObjectThenRecord(t *testing.T) {
	e := newEnv()

	item, err := e.svc.Create(context.Background(), "illustration", "a fine artwork", pngUpload(t))
	require.NoError(t, err)

	assert.Regexp(t, mintedKey, item.Image)
	assert.Contains(t, e.objects.objects, item.Image, "record must never reference a missing object")
	assert.Equal(t, "https://cdn.example.com/"+item.Image, item.ImageURL)
	assert.Empty(t, e.cache.batches, "fresh keys were never cached")
}

func TestCreateRejectsNonImageBeforeAnyStorageCall(t *testing.T) {
	e := newEnv()

	_, err := e.svc.Create(context.Background(), "illustration", "a fine artwork",
		&assets.Upload{Data: []byte("plain text"), ContentType: "text/plain"})

	var ve *apperror.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, e.objects.puts)
	assert.Empty(t, e.store.items)
}

func TestCreateRequiresFile(t *testing.T) {
	e := newEnv()

	_, err := e.svc.Create(context.Background(), "illustration", "a fine artwork", nil)
	var ve *apperror.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestCreateValidatesFields(t *testing.T) {
	e := newEnv()

	_, err := e.svc.Create(context.Background(), "watercolor", "nope", pngUpload(t))
	var ve *apperror.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "type")
	assert.Contains(t, ve.Fields, "description")
	assert.Zero(t, e.objects.puts, "validation failures never touch storage")
}

func TestUpdateReplacesImageUnderFreshKey(t *testing.T) {
	e := newEnv()
	item, err := e.svc.Create(context.Background(), "illustration", "a fine artwork", pngUpload(t))
	require.NoError(t, err)
	oldKey := item.Image

	updated, err := e.svc.Update(context.Background(), item.ID, "", "", pngUpload(t))
	require.NoError(t, err)

	assert.NotEqual(t, oldKey, updated.Image, "gallery images always mint fresh keys")
	assert.Regexp(t, mintedKey, updated.Image)
	assert.Contains(t, e.objects.objects, updated.Image)
	assert.Contains(t, e.objects.deletes, oldKey, "old object deletion attempted")
	require.NotEmpty(t, e.cache.batches)
	assert.Equal(t, []string{oldKey}, e.cache.batches[0], "old path invalidated")
}

func TestUpdateKeepsNewKeysWhenCleanupFails(t *testing.T) {
	e := newEnv()
	item, err := e.svc.Create(context.Background(), "illustration", "a fine artwork", pngUpload(t))
	require.NoError(t, err)
	oldKey := item.Image

	e.objects.delErr = &apperror.StorageError{Op: "delete", Key: oldKey, Err: errors.New("boom")}
	e.cache.err = &apperror.CacheError{Err: errors.New("edge down")}

	updated, err := e.svc.Update(context.Background(), item.ID, "", "", pngUpload(t))
	require.NoError(t, err, "cleanup failures must not fail the update")
	assert.NotEqual(t, oldKey, updated.Image)

	stored, err := e.svc.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Image, stored.Image, "record references only the new key")
}

func TestUpdateWithoutFileLeavesImageAlone(t *testing.T) {
	e := newEnv()
	item, err := e.svc.Create(context.Background(), "illustration", "a fine artwork", pngUpload(t))
	require.NoError(t, err)

	updated, err := e.svc.Update(context.Background(), item.ID, "cover-art", "", nil)
	require.NoError(t, err)
	assert.Equal(t, item.Image, updated.Image)
	assert.Equal(t, "cover-art", updated.Type)
}

func TestDeleteRemovesRecordEvenWhenInvalidationFails(t *testing.T) {
	e := newEnv()
	item, err := e.svc.Create(context.Background(), "illustration", "a fine artwork", pngUpload(t))
	require.NoError(t, err)

	e.cache.err = &apperror.CacheError{Err: errors.New("edge down")}

	require.NoError(t, e.svc.Delete(context.Background(), item.ID))

	_, err = e.svc.Get(context.Background(), item.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound, "record gone")
	assert.Contains(t, e.objects.deletes, item.Image, "object deletion attempted")
	assert.NotEmpty(t, e.cache.batches, "invalidation attempted")
}

func TestDeleteMissingItem(t *testing.T) {
	e := newEnv()
	err := e.svc.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListDecoratesURLs(t *testing.T) {
	e := newEnv()
	_, err := e.svc.Create(context.Background(), "illustration", "a fine artwork", pngUpload(t))
	require.NoError(t, err)

	items, count, err := e.svc.List(context.Background(), url.Values{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, items, 1)
	assert.Equal(t, "https://cdn.example.com/"+items[0].Image, items[0].ImageURL)
}
