package crypto

import "crypto/sha256"

// DigestSize is the SHA-256 digest width.
const DigestSize = sha256.Size

// SHA256Sum hashes data with SHA-256.
func SHA256Sum(data []byte) [DigestSize]byte {
	return sha256.Sum256(data)
}
