package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func randBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return b
}

func TestSealOpenRoundTrip(t *testing.T) {
	key := randBytes(t, KeySize)
	nonce := randBytes(t, NonceSize)
	pt := randBytes(t, 4096)
	ct, err := SealGCM(key, nonce, pt)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if len(ct) != len(pt)+TagSize {
		t.Fatalf("ciphertext length %d, want %d", len(ct), len(pt)+TagSize)
	}
	out, err := OpenGCM(key, nonce, ct)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(pt, out) {
		t.Fatal("plaintext mismatch")
	}
}

func TestSealEmptyPlaintext(t *testing.T) {
	key := randBytes(t, KeySize)
	nonce := randBytes(t, NonceSize)
	ct, err := SealGCM(key, nonce, nil)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if len(ct) != TagSize {
		t.Fatalf("ciphertext length %d, want %d", len(ct), TagSize)
	}
	out, err := OpenGCM(key, nonce, ct)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty plaintext, got %d bytes", len(out))
	}
}

func TestOpenTamper(t *testing.T) {
	key := randBytes(t, KeySize)
	nonce := randBytes(t, NonceSize)
	ct, err := SealGCM(key, nonce, []byte("hello"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	for i := range ct {
		mut := append([]byte(nil), ct...)
		mut[i] ^= 0x01
		if _, err := OpenGCM(key, nonce, mut); !errors.Is(err, ErrAuth) {
			t.Fatalf("bit flip at byte %d: got %v, want ErrAuth", i, err)
		}
	}
}

func TestOpenWrongKeyOrNonce(t *testing.T) {
	key := randBytes(t, KeySize)
	nonce := randBytes(t, NonceSize)
	ct, err := SealGCM(key, nonce, []byte("hello"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := OpenGCM(randBytes(t, KeySize), nonce, ct); !errors.Is(err, ErrAuth) {
		t.Fatalf("wrong key: got %v, want ErrAuth", err)
	}
	if _, err := OpenGCM(key, randBytes(t, NonceSize), ct); !errors.Is(err, ErrAuth) {
		t.Fatalf("wrong nonce: got %v, want ErrAuth", err)
	}
}

func TestSealRejectsBadWidths(t *testing.T) {
	if _, err := SealGCM(make([]byte, 16), make([]byte, NonceSize), nil); err == nil {
		t.Fatal("expected error for short key")
	}
	if _, err := SealGCM(make([]byte, KeySize), make([]byte, 16), nil); err == nil {
		t.Fatal("expected error for wrong nonce width")
	}
}

func TestSharedSecretSymmetry(t *testing.T) {
	aPriv, aPub, err := NewX25519()
	if err != nil {
		t.Fatalf("keygen a: %v", err)
	}
	bPriv, bPub, err := NewX25519()
	if err != nil {
		t.Fatalf("keygen b: %v", err)
	}
	if len(aPub) != PointSize || len(aPriv) != PointSize {
		t.Fatalf("unexpected key widths %d/%d", len(aPriv), len(aPub))
	}
	s1, err := SharedSecret(aPriv, bPub)
	if err != nil {
		t.Fatalf("dh a: %v", err)
	}
	s2, err := SharedSecret(bPriv, aPub)
	if err != nil {
		t.Fatalf("dh b: %v", err)
	}
	if !bytes.Equal(s1, s2) {
		t.Fatal("shared secrets differ")
	}
}

func TestSharedSecretRejectsBadPoint(t *testing.T) {
	priv, _, err := NewX25519()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	if _, err := SharedSecret(priv, make([]byte, 16)); err == nil {
		t.Fatal("expected error for truncated point")
	}
}
