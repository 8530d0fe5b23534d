package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// KeySize is the width of every symmetric key in the scheme: the
	// password-derived key, the per-file DEK and the legacy master key.
	KeySize = 32
	// NonceSize is the AES-GCM nonce width.
	NonceSize = 12
)

// ErrRandomnessUnavailable means the OS CSPRNG could not be read. Not
// recoverable: callers abort the whole operation rather than degrade.
var ErrRandomnessUnavailable = errors.New("crypto: randomness unavailable")

// RandBytes returns n bytes from the OS CSPRNG.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomnessUnavailable, err)
	}
	return b, nil
}

// NewNonce returns a fresh random GCM nonce. Generated once per Seal,
// never reused.
func NewNonce() ([]byte, error) {
	return RandBytes(NonceSize)
}
