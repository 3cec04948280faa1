// Package assets sequences the image lifecycle shared by every resource:
// validate, transform, write to object storage, and invalidate the CDN.
// There is no cross-store transaction; the ordering rules keep the database
// record authoritative. Steps that run before the record write must succeed
// or the whole operation aborts; cleanup of keys the record no longer
// references is best-effort and only logged on failure.
package assets

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/artfolio/service/internal/cdn"
	"github.com/artfolio/service/internal/imageproc"
	"github.com/artfolio/service/internal/storage"
)

// Upload is one file received from a multipart request.
type Upload struct {
	Data        []byte
	ContentType string
}

// Slot is the policy for one named image slot: how it is resized/encoded and
// which key namespace its objects live under. The prefix is part of the key,
// so it matches between put, delete, and the CDN invalidation path.
type Slot struct {
	Policy imageproc.Policy
	Prefix string
}

// Manager orchestrates storage and cache operations for one CDN
// distribution. Construct once at startup and share across requests.
type Manager struct {
	store storage.Storage
	cache cdn.Invalidator
}

// NewManager creates a Manager over the given gateways.
func NewManager(store storage.Storage, cache cdn.Invalidator) *Manager {
	return &Manager{store: store, cache: cache}
}

// StoreNew validates, transforms, and stores an upload under a freshly
// minted key. Used on create paths: the key never existed, so no
// invalidation fires. Any failure aborts before the caller touches the record.
func (m *Manager) StoreNew(ctx context.Context, up Upload, slot Slot, suffix string) (string, error) {
	key := imageproc.NewKey(slot.Prefix, suffix)
	if err := m.StoreAtKey(ctx, key, up, slot); err != nil {
		return "", err
	}
	return key, nil
}

// StoreAtKey validates, transforms, and stores an upload under a
// caller-chosen key without invalidating. Used when the key is fresh (first
// profile photo over the default sentinel) so no cache entry can exist yet.
func (m *Manager) StoreAtKey(ctx context.Context, key string, up Upload, slot Slot) error {
	if err := imageproc.CheckMIME(up.ContentType); err != nil {
		return err
	}
	data, err := imageproc.Transform(up.Data, slot.Policy)
	if err != nil {
		return err
	}
	return m.store.Put(ctx, key, data, imageproc.ContentType)
}

// ReplaceInPlace overwrites the object at an existing key with newly
// transformed bytes and invalidates that one path: the content changed under
// a stable key, so the CDN must be told explicitly. The put must succeed;
// the invalidation is best-effort.
func (m *Manager) ReplaceInPlace(ctx context.Context, key string, up Upload, slot Slot) error {
	if err := m.StoreAtKey(ctx, key, up, slot); err != nil {
		return err
	}
	if err := m.cache.Invalidate(ctx, []string{key}); err != nil {
		log.Printf("assets: %v", err)
	}
	return nil
}

// StoreBatch transforms and stores several uploads concurrently, each under
// a fresh key suffixed with its 1-based index. A single failure fails the
// whole batch, since all keys must exist before the record references them.
// Keys are returned in upload order.
func (m *Manager) StoreBatch(ctx context.Context, ups []Upload, slot Slot) ([]string, error) {
	for _, up := range ups {
		if err := imageproc.CheckMIME(up.ContentType); err != nil {
			return nil, err
		}
	}

	keys := make([]string, len(ups))
	g, gctx := errgroup.WithContext(ctx)
	for i, up := range ups {
		i, up := i, up
		g.Go(func() error {
			key := imageproc.NewKey(slot.Prefix, imageproc.IndexSuffix(i))
			data, err := imageproc.Transform(up.Data, slot.Policy)
			if err != nil {
				return err
			}
			if err := m.store.Put(gctx, key, data, imageproc.ContentType); err != nil {
				return err
			}
			keys[i] = key
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Release deletes stored objects and invalidates their paths once the record
// no longer references them. Entirely best-effort: per-key delete failures
// do not abort siblings, and nothing is reported to the caller beyond logs.
// A failed delete leaks an object; that is the accepted cost of keeping the
// record authoritative.
func (m *Manager) Release(ctx context.Context, keys ...string) {
	live := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "" || imageproc.IsDefault(key) {
			continue
		}
		live = append(live, key)
	}
	if len(live) == 0 {
		return
	}

	for _, key := range live {
		if err := m.store.Delete(ctx, key); err != nil {
			log.Printf("assets: %v", err)
		}
	}
	if err := m.cache.Invalidate(ctx, live); err != nil {
		log.Printf("assets: %v", err)
	}
}
