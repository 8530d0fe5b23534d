package storage

import (
	"context"

	"github.com/JLSed/Novault/internal/wire"
)

// RecordStore persists the boundary records around the crypto engine:
// one identity record per user, per-file metadata, and one DEK-wrap
// record per (file, recipient) pair. Everything here is public or
// sealed material in its hex shape.
type RecordStore interface {
	PutIdentity(ctx context.Context, rec wire.IdentityRecord) error
	GetIdentity(ctx context.Context, ownerID string) (wire.IdentityRecord, error)

	PutFile(ctx context.Context, meta wire.FileMeta) error
	GetFile(ctx context.Context, fileID string) (wire.FileMeta, error)
	ListFiles(ctx context.Context, ownerID string) ([]wire.FileMeta, error)
	DeleteFile(ctx context.Context, fileID string) error

	PutDEKWrap(ctx context.Context, rec wire.DEKWrapRecord) error
	GetDEKWrap(ctx context.Context, fileID, ownerID string) (wire.DEKWrapRecord, error)
	DeleteDEKWraps(ctx context.Context, fileID string) error
}
