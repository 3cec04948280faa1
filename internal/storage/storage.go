// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider.
package storage

import "context"

// Storage is the interface for writing and removing stored objects. Put is
// an overwrite-if-exists upsert; Delete of a nonexistent key succeeds.
type Storage interface {
	// Put writes data to the store under the given key.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Delete removes an object identified by key.
	Delete(ctx context.Context, key string) error
}
