package integrity

import (
	"encoding/hex"

	"github.com/JLSed/Novault/internal/crypto"
)

// Fingerprint is the SHA-256 digest of a file's plaintext. It is
// computed before encryption, persisted next to the envelope, and
// recomputed after decryption as an end-to-end correctness check that
// is independent of the AEAD tag: the tag protects the ciphertext, the
// fingerprint verifies the whole storage round trip.
type Fingerprint [crypto.DigestSize]byte

// Compute fingerprints a plaintext.
func Compute(plaintext []byte) Fingerprint {
	return Fingerprint(crypto.SHA256Sum(plaintext))
}

// Verify reports whether plaintext matches a stored fingerprint.
// Fingerprints are public values, so plain comparison is fine.
func Verify(plaintext []byte, want Fingerprint) bool {
	return Compute(plaintext) == want
}

// Hex renders the fingerprint as lowercase hex for persistence.
func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f[:])
}
