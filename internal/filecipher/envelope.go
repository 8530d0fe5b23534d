package filecipher

import (
	"errors"
	"fmt"

	"github.com/JLSed/Novault/internal/crypto"
)

// Envelope is one encrypted file version: the sealed body, a per-file
// DEK wrapped for exactly one recipient public key, and the ephemeral
// point that lets that recipient rebuild the wrapping key. Envelopes
// are never mutated; a re-upload supersedes the old one entirely.
type Envelope struct {
	Body               []byte // file ciphertext ‖ tag
	BodyNonce          []byte
	EncryptedDEK       []byte // 48 bytes: wrapped DEK ‖ tag
	DEKNonce           []byte
	EphemeralPublicKey []byte
}

var (
	// ErrKeyUnwrap means GCM authentication failed on the wrapped DEK:
	// wrong private key, or a tampered/foreign envelope.
	ErrKeyUnwrap = errors.New("filecipher: failed to unwrap content key")
	// ErrContentDecrypt means the DEK unwrapped but the body failed
	// authentication: corrupted ciphertext or a mismatched DEK.
	ErrContentDecrypt = errors.New("filecipher: failed to decrypt content")
)

// Encrypt seals plaintext for one recipient public key. A fresh DEK
// encrypts the body; an ephemeral X25519 exchange against the recipient
// key wraps the DEK. The raw ECDH output is the wrapping key, with no
// extra KDF stage, matching the deployed record format. The ephemeral
// scalar never leaves this function, so one compromised file exposes
// nothing about the others.
func Encrypt(plaintext, recipientPublicKey []byte) (Envelope, error) {
	dek, err := crypto.RandBytes(crypto.KeySize)
	if err != nil {
		return Envelope{}, err
	}
	defer crypto.Zero(dek)

	bodyNonce, err := crypto.NewNonce()
	if err != nil {
		return Envelope{}, err
	}
	body, err := crypto.SealGCM(dek, bodyNonce, plaintext)
	if err != nil {
		return Envelope{}, err
	}

	ephScalar, ephPoint, err := crypto.NewX25519()
	if err != nil {
		return Envelope{}, err
	}
	defer crypto.Zero(ephScalar)

	shared, err := crypto.SharedSecret(ephScalar, recipientPublicKey)
	if err != nil {
		return Envelope{}, fmt.Errorf("filecipher: bad recipient key: %w", err)
	}
	defer crypto.Zero(shared)

	dekNonce, err := crypto.NewNonce()
	if err != nil {
		return Envelope{}, err
	}
	encDEK, err := crypto.SealGCM(shared, dekNonce, dek)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		Body:               body,
		BodyNonce:          bodyNonce,
		EncryptedDEK:       encDEK,
		DEKNonce:           dekNonce,
		EphemeralPublicKey: ephPoint,
	}, nil
}

// Decrypt recovers the plaintext with the recipient's private scalar.
// Single pass, whole file in memory; nothing partial is ever returned.
func Decrypt(env Envelope, recipientPrivateKey []byte) ([]byte, error) {
	shared, err := crypto.SharedSecret(recipientPrivateKey, env.EphemeralPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnwrap, err)
	}
	defer crypto.Zero(shared)

	dek, err := crypto.OpenGCM(shared, env.DEKNonce, env.EncryptedDEK)
	if err != nil {
		return nil, ErrKeyUnwrap
	}
	defer crypto.Zero(dek)

	pt, err := crypto.OpenGCM(dek, env.BodyNonce, env.Body)
	if err != nil {
		return nil, ErrContentDecrypt
	}
	return pt, nil
}
