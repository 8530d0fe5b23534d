package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: not found")

// BlobStore holds opaque ciphertext blobs. Blobs are already sealed by
// the time they get here; the store never sees plaintext.
type BlobStore interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}
