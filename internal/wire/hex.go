package wire

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Canonical field widths at the persistence boundary, in bytes.
const (
	NonceLen  = 12
	KeyLen    = 32
	PointLen  = 32
	DigestLen = 32
	TagLen    = 16
	// WrappedKeyLen is any 32-byte key sealed with its tag appended.
	WrappedKeyLen = KeyLen + TagLen
)

// ErrInvalidFormat flags malformed hex or a wrong field width coming in
// from a caller. Surfaced verbatim, never a panic.
var ErrInvalidFormat = errors.New("wire: invalid format")

// EncodeHex renders a byte field as lowercase hex.
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

// DecodeHex decodes a lowercase-hex field. Uppercase digits are
// rejected: records are written lowercase and must round-trip exactly.
// want < 0 skips the width check.
func DecodeHex(field, s string, want int) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: %s: odd-length hex", ErrInvalidFormat, field)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return nil, fmt.Errorf("%w: %s: non-hex character at index %d", ErrInvalidFormat, field, i)
		}
	}
	b, _ := hex.DecodeString(s)
	if want >= 0 && len(b) != want {
		return nil, fmt.Errorf("%w: %s: want %d bytes, got %d", ErrInvalidFormat, field, want, len(b))
	}
	return b, nil
}
