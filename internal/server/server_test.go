package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JLSed/Novault/internal/auth"
	"github.com/JLSed/Novault/internal/keyring"
	"github.com/JLSed/Novault/internal/storage"
	"github.com/JLSed/Novault/internal/wire"
)

const testPassword = "Str0ng!Passw0rd"

func newTestServer(t *testing.T) (*Server, *httptest.Server, *auth.MemoryUserStore, *storage.MemoryStore) {
	t.Helper()
	users := auth.NewMemoryUserStore()
	store := storage.NewMemoryStore()
	s, err := NewWithStores(Config{}, users, store, store)
	if err != nil {
		t.Fatalf("NewWithStores: %v", err)
	}
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts, users, store
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func signupAndLogin(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()
	resp := doJSON(t, "POST", ts.URL+"/api/signup", "", signupReq{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "POST", ts.URL+"/api/login", "", auth.LoginRequest{
		Identifier: username,
		Password:   testPassword,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
	lr := decodeBody[auth.LoginResponse](t, resp)
	if lr.Token == "" {
		t.Fatal("empty token")
	}
	return lr.Token
}

func TestSignupLoginUploadDownload(t *testing.T) {
	s, ts, _, _ := newTestServer(t)
	token := signupAndLogin(t, ts, "alice")

	content := []byte("quarterly report: all numbers are up")
	resp := doJSON(t, "POST", ts.URL+"/api/files", token, uploadReq{
		Name:    "report.txt",
		Content: base64.StdEncoding.EncodeToString(content),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status %d", resp.StatusCode)
	}
	up := decodeBody[uploadResp](t, resp)
	if up.FileID == "" || len(up.Fingerprint) != 2*wire.DigestLen {
		t.Fatalf("bad upload response %+v", up)
	}

	resp = doJSON(t, "GET", ts.URL+"/api/files", token, nil)
	files := decodeBody[[]fileEntry](t, resp)
	if len(files) != 1 || files[0].FileID != up.FileID || files[0].Name != "report.txt" {
		t.Fatalf("bad listing %+v", files)
	}

	resp = doJSON(t, "POST", ts.URL+"/api/files/"+up.FileID+"/download", token, downloadReq{Password: testPassword})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status %d", resp.StatusCode)
	}
	dl := decodeBody[downloadResp](t, resp)
	got, err := base64.StdEncoding.DecodeString(dl.Content)
	if err != nil {
		t.Fatalf("content decode: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("round trip changed content")
	}
	if dl.Fingerprint != up.Fingerprint {
		t.Fatal("fingerprint changed between upload and download")
	}

	if err := s.Audit().Verify(); err != nil {
		t.Fatalf("audit chain: %v", err)
	}
	if got := len(s.Audit().Entries()); got != 2 {
		t.Fatalf("expected 2 audit entries, got %d", got)
	}
}

func TestDownloadWrongPassword(t *testing.T) {
	_, ts, _, _ := newTestServer(t)
	token := signupAndLogin(t, ts, "bob")

	resp := doJSON(t, "POST", ts.URL+"/api/files", token, uploadReq{
		Name:    "secret.bin",
		Content: base64.StdEncoding.EncodeToString([]byte("payload")),
	})
	up := decodeBody[uploadResp](t, resp)

	resp = doJSON(t, "POST", ts.URL+"/api/files/"+up.FileID+"/download", token, downloadReq{Password: "Wrong!Passw0rd99"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTamperedBlobRejected(t *testing.T) {
	_, ts, _, store := newTestServer(t)
	token := signupAndLogin(t, ts, "carol")

	resp := doJSON(t, "POST", ts.URL+"/api/files", token, uploadReq{
		Name:    "doc",
		Content: base64.StdEncoding.EncodeToString([]byte("original bytes")),
	})
	up := decodeBody[uploadResp](t, resp)

	blob, err := store.Get(context.Background(), up.FileID)
	if err != nil {
		t.Fatalf("blob get: %v", err)
	}
	blob[0] ^= 0x01
	if err := store.Put(context.Background(), up.FileID, blob); err != nil {
		t.Fatalf("blob put: %v", err)
	}

	resp = doJSON(t, "POST", ts.URL+"/api/files/"+up.FileID+"/download", token, downloadReq{Password: testPassword})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestFilesNotVisibleAcrossAccounts(t *testing.T) {
	_, ts, _, _ := newTestServer(t)
	tokA := signupAndLogin(t, ts, "ann")
	tokB := signupAndLogin(t, ts, "ben")

	resp := doJSON(t, "POST", ts.URL+"/api/files", tokA, uploadReq{
		Name:    "private",
		Content: base64.StdEncoding.EncodeToString([]byte("ann only")),
	})
	up := decodeBody[uploadResp](t, resp)

	resp = doJSON(t, "GET", ts.URL+"/api/files/"+up.FileID, tokB, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "GET", ts.URL+"/api/files", tokB, nil)
	files := decodeBody[[]fileEntry](t, resp)
	if len(files) != 0 {
		t.Fatalf("cross-account listing leaked %d files", len(files))
	}
}

func TestDeleteFile(t *testing.T) {
	_, ts, _, _ := newTestServer(t)
	token := signupAndLogin(t, ts, "dave")

	resp := doJSON(t, "POST", ts.URL+"/api/files", token, uploadReq{
		Name:    "gone",
		Content: base64.StdEncoding.EncodeToString([]byte("bye")),
	})
	up := decodeBody[uploadResp](t, resp)

	req, _ := http.NewRequest("DELETE", ts.URL+"/api/files/"+up.FileID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "GET", ts.URL+"/api/files/"+up.FileID, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d after delete, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLegacyMasterKeyAccount(t *testing.T) {
	_, ts, users, store := newTestServer(t)

	hash, err := auth.HashPassword(auth.DefaultArgon, testPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := users.Add(&auth.User{
		Username: "greta",
		Email:    "greta@example.com",
		PassHash: hash,
		Roles:    []auth.Role{auth.RoleUser},
	}); err != nil {
		t.Fatalf("add user: %v", err)
	}
	enc, err := keyring.GenerateMasterKey(testPassword, "677265746173616c74")
	if err != nil {
		t.Fatalf("master key: %v", err)
	}
	if err := store.PutIdentity(context.Background(), wire.NewMasterKeyRecord("greta", enc)); err != nil {
		t.Fatalf("put identity: %v", err)
	}

	resp := doJSON(t, "POST", ts.URL+"/api/login", "", auth.LoginRequest{Identifier: "greta", Password: testPassword})
	lr := decodeBody[auth.LoginResponse](t, resp)

	content := []byte("legacy scheme payload")
	resp = doJSON(t, "POST", ts.URL+"/api/files", lr.Token, uploadReq{
		Name:     "old.bin",
		Content:  base64.StdEncoding.EncodeToString(content),
		Password: testPassword,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status %d", resp.StatusCode)
	}
	up := decodeBody[uploadResp](t, resp)

	resp = doJSON(t, "POST", ts.URL+"/api/files/"+up.FileID+"/download", lr.Token, downloadReq{Password: testPassword})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status %d", resp.StatusCode)
	}
	dl := decodeBody[downloadResp](t, resp)
	got, _ := base64.StdEncoding.DecodeString(dl.Content)
	if !bytes.Equal(got, content) {
		t.Fatal("legacy round trip changed content")
	}
}

func TestLoginRateLimit(t *testing.T) {
	_, ts, _, _ := newTestServer(t)

	var limited bool
	for i := 0; i < 12; i++ {
		resp := doJSON(t, "POST", ts.URL+"/api/login", "", auth.LoginRequest{
			Identifier: fmt.Sprintf("nobody%d", i),
			Password:   "x",
		})
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected IP rate limit to trip")
	}
}

func TestUnauthenticatedRejected(t *testing.T) {
	_, ts, _, _ := newTestServer(t)
	resp := doJSON(t, "GET", ts.URL+"/api/files", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}
