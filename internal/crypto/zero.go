package crypto

// Zero overwrites a byte slice in memory with zeros. Every secret
// buffer (derived key, scalar, DEK, shared secret) is zeroed on every
// exit path by whoever owns it.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Zero32 overwrites a 32-byte key array in place.
func Zero32(k *[32]byte) {
	for i := range k {
		k[i] = 0
	}
}
