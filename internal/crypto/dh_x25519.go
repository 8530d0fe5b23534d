package crypto

import (
	"crypto/ecdh"
	"crypto/rand"
	"fmt"
)

// PointSize is the width of an X25519 public point and private scalar.
const PointSize = 32

// NewX25519 generates a keypair and hands back the raw 32-byte scalar
// and public point. The scalar is the caller's to scrub.
func NewX25519() (scalar, point []byte, err error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRandomnessUnavailable, err)
	}
	return priv.Bytes(), priv.PublicKey().Bytes(), nil
}

// SharedSecret runs X25519 between a raw private scalar and a peer's
// public point. By DH symmetry both sides compute the same 32 bytes.
func SharedSecret(scalar, peerPoint []byte) ([]byte, error) {
	priv, err := ecdh.X25519().NewPrivateKey(scalar)
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid X25519 scalar: %w", err)
	}
	pub, err := ecdh.X25519().NewPublicKey(peerPoint)
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid X25519 point: %w", err)
	}
	return priv.ECDH(pub)
}
