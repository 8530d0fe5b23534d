package filecipher

import (
	"github.com/JLSed/Novault/internal/crypto"
)

// Legacy path for master-key records: the shared master key encrypts
// the file body directly, no per-file DEK and no envelope.

// EncryptWithMasterKey seals plaintext directly under the master key.
// Returns the ciphertext (with tag) and the fresh nonce.
func EncryptWithMasterKey(plaintext, masterKey []byte) (body, nonce []byte, err error) {
	nonce, err = crypto.NewNonce()
	if err != nil {
		return nil, nil, err
	}
	body, err = crypto.SealGCM(masterKey, nonce, plaintext)
	if err != nil {
		return nil, nil, err
	}
	return body, nonce, nil
}

// DecryptWithMasterKey opens a legacy body sealed by EncryptWithMasterKey.
func DecryptWithMasterKey(body, nonce, masterKey []byte) ([]byte, error) {
	pt, err := crypto.OpenGCM(masterKey, nonce, body)
	if err != nil {
		return nil, ErrContentDecrypt
	}
	return pt, nil
}
