package wire

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/JLSed/Novault/internal/crypto"
	"github.com/JLSed/Novault/internal/filecipher"
	"github.com/JLSed/Novault/internal/integrity"
	"github.com/JLSed/Novault/internal/keyring"
)

func TestIdentityRecordRoundTrip(t *testing.T) {
	id, err := keyring.SetupIdentity("correct horse", "alice@example.com")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	rec := NewIdentityRecord("alice", id)
	if rec.Salt != "alice@example.com" {
		t.Fatalf("salt not carried: %q", rec.Salt)
	}
	if len(rec.PublicKey) != 2*PointLen {
		t.Fatalf("public_key hex is %d chars", len(rec.PublicKey))
	}
	if len(rec.EncryptedPrivateKey) != 2*WrappedKeyLen {
		t.Fatalf("encrypted_private_key hex is %d chars", len(rec.EncryptedPrivateKey))
	}
	if len(rec.Nonce) != 2*NonceLen {
		t.Fatalf("pk_nonce hex is %d chars", len(rec.Nonce))
	}

	parsed, err := ParseIdentityRecord(rec)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Scheme() != keyring.SchemeIdentity {
		t.Fatalf("got scheme %v", parsed.Scheme())
	}
	if !bytes.Equal(parsed.PublicKey, id.PublicKey) {
		t.Fatal("public key mangled")
	}
	sec, err := keyring.Unlock("correct horse", parsed)
	if err != nil {
		t.Fatalf("unlock parsed record: %v", err)
	}
	sec.Destroy()
}

func TestMasterKeyRecordRoundTrip(t *testing.T) {
	enc, err := keyring.GenerateMasterKey("pw", "bob@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	rec := NewMasterKeyRecord("bob", enc)
	parsed, err := ParseIdentityRecord(rec)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Scheme() != keyring.SchemeMasterKey {
		t.Fatalf("got scheme %v", parsed.Scheme())
	}
	sec, err := keyring.Unlock("pw", parsed)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	defer sec.Destroy()
	if sec.Scheme != keyring.SchemeMasterKey || len(sec.Key) != KeyLen {
		t.Fatalf("unexpected secret %v/%d", sec.Scheme, len(sec.Key))
	}
}

func TestParseIdentityRecordRejects(t *testing.T) {
	id, err := keyring.SetupIdentity("pw", "alice@example.com")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	good := NewIdentityRecord("alice", id)

	bad := good
	bad.Nonce = "zz"
	if _, err := ParseIdentityRecord(bad); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("bad nonce: got %v", err)
	}

	bad = good
	bad.Salt = ""
	if _, err := ParseIdentityRecord(bad); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("empty salt: got %v", err)
	}

	bad = good
	bad.EncryptedPrivateKey = good.EncryptedPrivateKey[:4]
	if _, err := ParseIdentityRecord(bad); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("short key: got %v", err)
	}

	if _, err := ParseIdentityRecord(IdentityRecord{Salt: "s", Nonce: good.Nonce}); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("empty record: got %v", err)
	}
}

func TestEnvelopeSplitJoin(t *testing.T) {
	priv, pub, err := crypto.NewX25519()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	pt := []byte("hello")
	fp := integrity.Compute(pt)
	env, err := filecipher.Encrypt(pt, pub)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	meta, wrap, blob := SplitEnvelope("f1", "alice", "notes.txt", time.Now().Unix(), env, fp)
	if meta.BlobID != "f1" || wrap.FileID != "f1" || wrap.OwnerID != "alice" {
		t.Fatal("record identifiers mangled")
	}
	if meta.Size != int64(len(env.Body)) {
		t.Fatalf("size %d, want %d", meta.Size, len(env.Body))
	}

	rebuilt, err := JoinEnvelope(meta, wrap, blob)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	got, err := filecipher.Decrypt(rebuilt, priv)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(pt, got) {
		t.Fatal("round trip mismatch")
	}

	want, err := ParseFingerprint(meta.FileHash)
	if err != nil {
		t.Fatalf("parse fingerprint: %v", err)
	}
	if !integrity.Verify(got, want) {
		t.Fatal("fingerprint check failed")
	}
}

func TestJoinEnvelopeRejects(t *testing.T) {
	meta := FileMeta{FileNonce: "00"}
	if _, err := JoinEnvelope(meta, DEKWrapRecord{}, nil); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("got %v, want ErrInvalidFormat", err)
	}
}
