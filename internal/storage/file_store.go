package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/JLSed/Novault/internal/wire"
)

// FileStore keeps blobs and records under one directory. Blobs go in
// as-is (*.blob), records as mode-0600 JSON documents. Backs the
// offline CLI; the daemon uses Mongo.
type FileStore struct{ dir string }

func NewFileStore(dir string) *FileStore {
	_ = os.MkdirAll(filepath.Join(dir, "wraps"), 0700)
	return &FileStore{dir: dir}
}

func (f *FileStore) Put(_ context.Context, id string, data []byte) error {
	return os.WriteFile(filepath.Join(f.dir, id+".blob"), data, 0600)
}

func (f *FileStore) Get(_ context.Context, id string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(f.dir, id+".blob"))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return b, err
}

func (f *FileStore) Delete(_ context.Context, id string) error {
	err := os.Remove(filepath.Join(f.dir, id+".blob"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *FileStore) PutIdentity(_ context.Context, rec wire.IdentityRecord) error {
	return writeRecord(filepath.Join(f.dir, "identity-"+rec.OwnerID+".json"), rec)
}

func (f *FileStore) GetIdentity(_ context.Context, ownerID string) (wire.IdentityRecord, error) {
	var rec wire.IdentityRecord
	err := readRecord(filepath.Join(f.dir, "identity-"+ownerID+".json"), &rec)
	return rec, err
}

func (f *FileStore) PutFile(_ context.Context, meta wire.FileMeta) error {
	return writeRecord(filepath.Join(f.dir, meta.FileID+".meta.json"), meta)
}

func (f *FileStore) GetFile(_ context.Context, fileID string) (wire.FileMeta, error) {
	var meta wire.FileMeta
	err := readRecord(filepath.Join(f.dir, fileID+".meta.json"), &meta)
	return meta, err
}

func (f *FileStore) ListFiles(_ context.Context, ownerID string) ([]wire.FileMeta, error) {
	paths, err := filepath.Glob(filepath.Join(f.dir, "*.meta.json"))
	if err != nil {
		return nil, err
	}
	var out []wire.FileMeta
	for _, p := range paths {
		var meta wire.FileMeta
		if err := readRecord(p, &meta); err != nil {
			continue
		}
		if meta.OwnerID == ownerID {
			out = append(out, meta)
		}
	}
	return out, nil
}

func (f *FileStore) DeleteFile(_ context.Context, fileID string) error {
	err := os.Remove(filepath.Join(f.dir, fileID+".meta.json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *FileStore) PutDEKWrap(_ context.Context, rec wire.DEKWrapRecord) error {
	return writeRecord(f.wrapPath(rec.FileID, rec.OwnerID), rec)
}

func (f *FileStore) GetDEKWrap(_ context.Context, fileID, ownerID string) (wire.DEKWrapRecord, error) {
	var rec wire.DEKWrapRecord
	err := readRecord(f.wrapPath(fileID, ownerID), &rec)
	return rec, err
}

func (f *FileStore) DeleteDEKWraps(_ context.Context, fileID string) error {
	paths, err := filepath.Glob(filepath.Join(f.dir, "wraps", fileID+"-*.json"))
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (f *FileStore) wrapPath(fileID, ownerID string) string {
	return filepath.Join(f.dir, "wraps", fileID+"-"+ownerID+".json")
}

func writeRecord(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

func readRecord(path string, v any) error {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
