package user

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
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

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deletes []string
}

func newFakeStorage() *fakeStorage { return &fakeStorage{objects: map[string][]byte{}} }

func (f *fakeStorage) Put(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	delete(f.objects, key)
	return nil
}

type fakeCDN struct {
	batches [][]string
}

func (f *fakeCDN) Invalidate(_ context.Context, paths []string) error {
	f.batches = append(f.batches, paths)
	return nil
}

type fakeStore struct {
	users  map[string]*User
	nextID int
}

func newFakeStore() *fakeStore { return &fakeStore{users: map[string]*User{}} }

func (f *fakeStore) apply(u *User, fields *record.Fields) {
	fields.Each(func(column string, value any) {
		switch column {
		case "first_name":
			u.FirstName = value.(string)
		case "last_name":
			u.LastName = value.(string)
		case "email":
			u.Email = value.(string)
		case "role":
			u.Role = value.(string)
		case "photo":
			u.Photo = value.(string)
		case "password_hash":
			u.PasswordHash = value.(string)
		case "active":
			u.Active = value.(bool)
		}
	})
}

func (f *fakeStore) Insert(_ context.Context, fields *record.Fields) (*User, error) {
	f.nextID++
	u := &User{
		ID:        fmt.Sprintf("user-%d", f.nextID),
		Role:      "user",
		Photo:     DefaultPhoto,
		Active:    true,
		CreatedAt: time.Now(),
	}
	f.apply(u, fields)
	f.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeStore) FindByID(_ context.Context, id string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) UpdateByID(_ context.Context, id string, fields *record.Fields) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	f.apply(u, fields)
	cp := *u
	return &cp, nil
}

func (f *fakeStore) DeleteByID(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeStore) List(_ context.Context, spec query.Spec) ([]*User, error) {
	out := make([]*User, 0, len(f.users))
	for _, u := range f.users {
		if len(spec.Filters) == 1 && spec.Filters[0].Column == "email" && u.Email != spec.Filters[0].Value {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeStore) Count(_ context.Context, _ query.Spec) (int64, error) {
	return int64(len(f.users)), nil
}

func pngUpload(t *testing.T) *assets.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 6), B: 200, A: 255})
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

func newEnv(t *testing.T) (*env, *User) {
	t.Helper()
	store := newFakeStore()
	objects := newFakeStorage()
	cache := &fakeCDN{}
	e := &env{
		svc:     NewService(store, assets.NewManager(objects, cache), "https://cdn.example.com/"),
		store:   store,
		objects: objects,
		cache:   cache,
	}
	u, err := e.svc.Create(context.Background(), "Willa", "Bolton", "willa@example.com", "hash")
	require.NoError(t, err)
	return e, u
}

func TestFirstPhotoUploadMintsStableKey(t *testing.T) {
	e, u := newEnv(t)

	updated, err := e.svc.UpdateProfile(context.Background(), u.ID, ProfileUpdate{}, pngUpload(t))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^users/user-`+u.ID+`-\d+\.jpeg$`), updated.Photo)
	assert.Contains(t, e.objects.objects, updated.Photo)
	assert.Empty(t, e.cache.batches, "a key minted over the default sentinel was never cached")
}

func TestSecondPhotoUploadReusesKeyAndInvalidates(t *testing.T) {
	e, u := newEnv(t)

	first, err := e.svc.UpdateProfile(context.Background(), u.ID, ProfileUpdate{}, pngUpload(t))
	require.NoError(t, err)

	second, err := e.svc.UpdateProfile(context.Background(), u.ID, ProfileUpdate{}, pngUpload(t))
	require.NoError(t, err)

	assert.Equal(t, first.Photo, second.Photo, "photo key is stable after first assignment")
	require.Len(t, e.cache.batches, 1)
	assert.Equal(t, []string{first.Photo}, e.cache.batches[0])
}

func TestUpdateProfileFieldsWithoutPhoto(t *testing.T) {
	e, u := newEnv(t)

	updated, err := e.svc.UpdateProfile(context.Background(), u.ID, ProfileUpdate{
		FirstName: "Wendy",
		Email:     "Wendy@Example.com",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Wendy", updated.FirstName)
	assert.Equal(t, "wendy@example.com", updated.Email, "emails are stored lowercased")
	assert.Equal(t, DefaultPhoto, updated.Photo)
}

func TestUpdateProfileRejectsBadEmail(t *testing.T) {
	e, u := newEnv(t)

	_, err := e.svc.UpdateProfile(context.Background(), u.ID, ProfileUpdate{Email: "not-an-email"}, nil)
	var ve *apperror.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "email")
}

func TestDeactivateKeepsRecordAndPhoto(t *testing.T) {
	e, u := newEnv(t)
	_, err := e.svc.UpdateProfile(context.Background(), u.ID, ProfileUpdate{}, pngUpload(t))
	require.NoError(t, err)

	require.NoError(t, e.svc.Deactivate(context.Background(), u.ID))

	got, err := e.svc.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Empty(t, e.objects.deletes, "soft delete never releases objects")
}

func TestHardDeleteReleasesPhoto(t *testing.T) {
	e, u := newEnv(t)
	updated, err := e.svc.UpdateProfile(context.Background(), u.ID, ProfileUpdate{}, pngUpload(t))
	require.NoError(t, err)

	require.NoError(t, e.svc.Delete(context.Background(), u.ID))

	_, err = e.svc.GetByID(context.Background(), u.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Contains(t, e.objects.deletes, updated.Photo)
}

func TestHardDeleteSkipsDefaultSentinel(t *testing.T) {
	e, u := newEnv(t)

	require.NoError(t, e.svc.Delete(context.Background(), u.ID))
	assert.Empty(t, e.objects.deletes, "the default photo is shared, never deleted")
}

func TestGetByEmail(t *testing.T) {
	e, u := newEnv(t)

	got, err := e.svc.GetByEmail(context.Background(), "Willa@Example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = e.svc.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
