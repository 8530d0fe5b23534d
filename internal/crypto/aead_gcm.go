package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

// TagSize is the GCM authentication tag appended to every ciphertext.
const TagSize = 16

// ErrAuth is returned when GCM authentication fails. A wrong key, a
// wrong nonce and a tampered ciphertext are indistinguishable here.
var ErrAuth = errors.New("crypto: message authentication failed")

// SealGCM encrypts plaintext with AES-256-GCM under an explicit nonce.
// Returned layout: [ciphertext||tag].
func SealGCM(key, nonce, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("crypto: nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}
	out := make([]byte, 0, len(plaintext)+TagSize)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// OpenGCM decrypts and authenticates [ciphertext||tag]. Any bit flip in
// ciphertext, tag, key or nonce yields ErrAuth, never wrong plaintext.
func OpenGCM(key, nonce, ciphertext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("crypto: nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}
	pt, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuth
	}
	return pt, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("crypto: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
