package storage

import (
	"context"
	"sync"

	"github.com/JLSed/Novault/internal/wire"
)

// MemoryStore is an in-process BlobStore + RecordStore. Backs tests and
// single-shot CLI runs.
type MemoryStore struct {
	mu         sync.RWMutex
	blobs      map[string][]byte
	identities map[string]wire.IdentityRecord
	files      map[string]wire.FileMeta
	wraps      map[string]wire.DEKWrapRecord // keyed fileID+"/"+ownerID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs:      map[string][]byte{},
		identities: map[string]wire.IdentityRecord{},
		files:      map[string]wire.FileMeta{},
		wraps:      map[string]wire.DEKWrapRecord{},
	}
}

func (m *MemoryStore) Put(_ context.Context, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[id] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, id)
	return nil
}

func (m *MemoryStore) PutIdentity(_ context.Context, rec wire.IdentityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[rec.OwnerID] = rec
	return nil
}

func (m *MemoryStore) GetIdentity(_ context.Context, ownerID string) (wire.IdentityRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.identities[ownerID]
	if !ok {
		return wire.IdentityRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) PutFile(_ context.Context, meta wire.FileMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[meta.FileID] = meta
	return nil
}

func (m *MemoryStore) GetFile(_ context.Context, fileID string) (wire.FileMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.files[fileID]
	if !ok {
		return wire.FileMeta{}, ErrNotFound
	}
	return meta, nil
}

func (m *MemoryStore) ListFiles(_ context.Context, ownerID string) ([]wire.FileMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]wire.FileMeta, 0, len(m.files))
	for _, meta := range m.files {
		if meta.OwnerID == ownerID {
			out = append(out, meta)
		}
	}
	return out, nil
}

func (m *MemoryStore) DeleteFile(_ context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, fileID)
	return nil
}

func (m *MemoryStore) PutDEKWrap(_ context.Context, rec wire.DEKWrapRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wraps[rec.FileID+"/"+rec.OwnerID] = rec
	return nil
}

func (m *MemoryStore) GetDEKWrap(_ context.Context, fileID, ownerID string) (wire.DEKWrapRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.wraps[fileID+"/"+ownerID]
	if !ok {
		return wire.DEKWrapRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) DeleteDEKWraps(_ context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, rec := range m.wraps {
		if rec.FileID == fileID {
			delete(m.wraps, k)
		}
	}
	return nil
}
