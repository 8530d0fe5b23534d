package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/JLSed/Novault/internal/auth"
	"github.com/JLSed/Novault/internal/filecipher"
	"github.com/JLSed/Novault/internal/integrity"
	"github.com/JLSed/Novault/internal/keyring"
	"github.com/JLSed/Novault/internal/storage"
	"github.com/JLSed/Novault/internal/wire"
)

type uploadReq struct {
	Name    string `json:"name"`
	Content string `json:"content_b64"`
	// Password is only needed for legacy master-key accounts; identity
	// accounts encrypt to the stored public key.
	Password string `json:"password,omitempty"`
}

type uploadResp struct {
	FileID      string `json:"file_id"`
	Fingerprint string `json:"fingerprint"`
	Size        int64  `json:"size"`
}

type fileEntry struct {
	FileID      string `json:"file_id"`
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
	Size        int64  `json:"size"`
	Created     int64  `json:"created"`
}

type downloadReq struct {
	Password string `json:"password"`
}

type downloadResp struct {
	Name        string `json:"name"`
	Content     string `json:"content_b64"`
	Fingerprint string `json:"fingerprint"`
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.handleUpload(w, r, claims.Sub)
	case http.MethodGet:
		metas, err := s.records.ListFiles(r.Context(), claims.Sub)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]fileEntry, 0, len(metas))
		for _, m := range metas {
			out = append(out, fileEntry{
				FileID:      m.FileID,
				Name:        m.Name,
				Fingerprint: m.FileHash,
				Size:        m.Size,
				Created:     m.Created,
			})
		}
		writeJSON(w, out)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, owner string) {
	var req uploadReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		http.Error(w, "content_b64 is not valid base64", http.StatusBadRequest)
		return
	}

	idRec, err := s.records.GetIdentity(r.Context(), owner)
	if err != nil {
		http.Error(w, "no identity on record", http.StatusConflict)
		return
	}
	krec, err := wire.ParseIdentityRecord(idRec)
	if err != nil {
		s.logger.Printf("identity record for %s unreadable: %v", owner, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	fileID, err := randomHex(16)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	fp := integrity.Compute(content)
	created := time.Now().Unix()

	var meta wire.FileMeta
	var blob []byte
	var wraps []wire.DEKWrapRecord

	switch krec.Scheme() {
	case keyring.SchemeIdentity:
		env, err := filecipher.Encrypt(content, krec.PublicKey)
		if err != nil {
			s.logger.Printf("encrypt for %s failed: %v", owner, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		var wrap wire.DEKWrapRecord
		meta, wrap, blob = wire.SplitEnvelope(fileID, owner, req.Name, created, env, fp)
		wraps = append(wraps, wrap)

	case keyring.SchemeMasterKey:
		secret, err := keyring.Unlock(req.Password, krec)
		if err != nil {
			http.Error(w, "decryption failed", http.StatusForbidden)
			return
		}
		body, nonce, err := filecipher.EncryptWithMasterKey(content, secret.Key)
		secret.Destroy()
		if err != nil {
			s.logger.Printf("encrypt for %s failed: %v", owner, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		meta = wire.FileMeta{
			FileID:    fileID,
			OwnerID:   owner,
			Name:      req.Name,
			FileHash:  fp.Hex(),
			FileNonce: wire.EncodeHex(nonce),
			BlobID:    fileID,
			Size:      int64(len(body)),
			Created:   created,
		}
		blob = body

	default:
		http.Error(w, "no identity on record", http.StatusConflict)
		return
	}

	if err := s.blobs.Put(r.Context(), meta.BlobID, blob); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := s.records.PutFile(r.Context(), meta); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	for _, wrap := range wraps {
		if err := s.records.PutDEKWrap(r.Context(), wrap); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	s.audit.Append("encrypt", fileID, meta.FileHash)
	writeJSONStatus(w, http.StatusCreated, uploadResp{
		FileID:      fileID,
		Fingerprint: meta.FileHash,
		Size:        meta.Size,
	})
}

func (s *Server) handleFileByID(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/files/")
	fileID, action, _ := strings.Cut(rest, "/")
	if fileID == "" {
		http.NotFound(w, r)
		return
	}

	meta, err := s.records.GetFile(r.Context(), fileID)
	if err != nil || meta.OwnerID != claims.Sub {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch {
	case r.Method == http.MethodGet && action == "":
		writeJSON(w, meta)
	case r.Method == http.MethodPost && action == "download":
		s.handleDownload(w, r, claims.Sub, meta)
	case r.Method == http.MethodDelete && action == "":
		s.handleDeleteFile(w, r, meta)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, owner string, meta wire.FileMeta) {
	if !s.rlUnlockIP.allow(getClientIP(r)) {
		tooMany(w, 60)
		return
	}
	if !s.rlUnlockID.allow(owner) {
		tooMany(w, 60)
		return
	}

	var req downloadReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	idRec, err := s.records.GetIdentity(r.Context(), owner)
	if err != nil {
		http.Error(w, "no identity on record", http.StatusConflict)
		return
	}
	krec, err := wire.ParseIdentityRecord(idRec)
	if err != nil {
		s.logger.Printf("identity record for %s unreadable: %v", owner, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	blob, err := s.blobs.Get(r.Context(), meta.BlobID)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	secret, err := keyring.Unlock(req.Password, krec)
	if err != nil {
		http.Error(w, "decryption failed", http.StatusForbidden)
		return
	}
	defer secret.Destroy()

	var plaintext []byte
	switch secret.Scheme {
	case keyring.SchemeIdentity:
		wrap, err := s.records.GetDEKWrap(r.Context(), meta.FileID, owner)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		env, err := wire.JoinEnvelope(meta, wrap, blob)
		if err != nil {
			http.Error(w, "decryption failed", http.StatusForbidden)
			return
		}
		plaintext, err = filecipher.Decrypt(env, secret.Key)
		if err != nil {
			http.Error(w, "decryption failed", http.StatusForbidden)
			return
		}
	case keyring.SchemeMasterKey:
		nonce, err := wire.DecodeHex("file_nonce", meta.FileNonce, wire.NonceLen)
		if err != nil {
			http.Error(w, "decryption failed", http.StatusForbidden)
			return
		}
		plaintext, err = filecipher.DecryptWithMasterKey(blob, nonce, secret.Key)
		if err != nil {
			http.Error(w, "decryption failed", http.StatusForbidden)
			return
		}
	}

	want, err := wire.ParseFingerprint(meta.FileHash)
	if err != nil || !integrity.Verify(plaintext, want) {
		s.logger.Printf("fingerprint mismatch on file %s", meta.FileID)
		http.Error(w, "integrity check failed", http.StatusInternalServerError)
		return
	}

	s.audit.Append("decrypt", meta.FileID, meta.FileHash)
	writeJSON(w, downloadResp{
		Name:        meta.Name,
		Content:     base64.StdEncoding.EncodeToString(plaintext),
		Fingerprint: meta.FileHash,
	})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request, meta wire.FileMeta) {
	if err := s.blobs.Delete(r.Context(), meta.BlobID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := s.records.DeleteDEKWraps(r.Context(), meta.FileID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := s.records.DeleteFile(r.Context(), meta.FileID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.audit.Append("delete", meta.FileID, "")
	writeJSON(w, map[string]string{"status": "deleted"})
}
