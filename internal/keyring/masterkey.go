package keyring

import (
	"github.com/JLSed/Novault/internal/crypto"
)

// Legacy scheme: instead of an asymmetric identity, one random 32-byte
// master key is sealed under the password-derived key and used to
// encrypt every file directly. Kept so records created before the
// hybrid scheme still decrypt.

// GenerateMasterKey creates a fresh random master key and returns it
// sealed under the password-derived key. The plaintext key is scrubbed
// before returning.
func GenerateMasterKey(password, salt string) (EncryptedSecret, error) {
	kek, err := crypto.DeriveKey(password, salt)
	if err != nil {
		return EncryptedSecret{}, err
	}
	defer crypto.Zero32(&kek)

	master, err := crypto.RandBytes(crypto.KeySize)
	if err != nil {
		return EncryptedSecret{}, err
	}
	defer crypto.Zero(master)

	nonce, err := crypto.NewNonce()
	if err != nil {
		return EncryptedSecret{}, err
	}
	ct, err := crypto.SealGCM(kek[:], nonce, master)
	if err != nil {
		return EncryptedSecret{}, err
	}
	return EncryptedSecret{Ciphertext: ct, Nonce: nonce, Salt: salt}, nil
}

// DecryptMasterKey recovers the legacy master key. The returned buffer
// is owned by the caller, who zeroes it after use.
func DecryptMasterKey(password string, enc EncryptedSecret) ([]byte, error) {
	return openSecret(password, enc)
}
