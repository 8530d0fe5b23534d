package crypto

import (
	"errors"
	"testing"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	k1, err := DeriveKey("correct horse", "alice@example.com")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	k2, err := DeriveKey("correct horse", "alice@example.com")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if k1 != k2 {
		t.Fatal("same inputs produced different keys")
	}
}

func TestDeriveKeySaltSeparation(t *testing.T) {
	k1, err := DeriveKey("correct horse", "alice@example.com")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	k2, err := DeriveKey("correct horse", "bob@example.com")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if k1 == k2 {
		t.Fatal("different salts produced identical keys")
	}
	k3, err := DeriveKey("incorrect horse", "alice@example.com")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if k1 == k3 {
		t.Fatal("different passwords produced identical keys")
	}
}

func TestDeriveKeyEmptySalt(t *testing.T) {
	if _, err := DeriveKey("pw", ""); !errors.Is(err, ErrKeyDerivation) {
		t.Fatalf("got %v, want ErrKeyDerivation", err)
	}
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Zero(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not zeroed", i)
		}
	}
	var k [32]byte
	k[0], k[31] = 0xff, 0xff
	Zero32(&k)
	if k != ([32]byte{}) {
		t.Fatal("array not zeroed")
	}
}
