package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters are a compatibility contract: a record encrypted
// under them cannot be reopened if they change. Changing them requires
// a versioned record format, which does not exist yet.
const (
	kdfMemoryKiB = 64 * 1024
	kdfTime      = 3
	kdfThreads   = 4
)

// ErrKeyDerivation means key derivation could not run at all, as
// opposed to running and producing a key that fails to decrypt.
var ErrKeyDerivation = errors.New("crypto: key derivation failed")

// DeriveKey turns (password, salt) into a 32-byte AES key via Argon2id.
// Deterministic, side-effect free and intentionally slow; callers never
// retain the result beyond one logical operation.
func DeriveKey(password, salt string) ([KeySize]byte, error) {
	var key [KeySize]byte
	if salt == "" {
		return key, fmt.Errorf("%w: empty salt", ErrKeyDerivation)
	}
	raw := argon2.IDKey([]byte(password), []byte(salt), kdfTime, kdfMemoryKiB, kdfThreads, KeySize)
	copy(key[:], raw)
	Zero(raw)
	return key, nil
}
