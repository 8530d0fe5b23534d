package keyring

import (
	"errors"

	"github.com/JLSed/Novault/internal/crypto"
)

// EncryptedSecret is the at-rest envelope around one long-term secret:
// an AES-256-GCM ciphertext with its 16-byte tag appended, the nonce
// used to seal it, and the key-derivation salt (the user's email).
type EncryptedSecret struct {
	Ciphertext []byte
	Nonce      []byte
	Salt       string
}

// Identity is a user's long-term X25519 keypair. The public point is
// stored in backend records in the clear; the private scalar only ever
// exists encrypted under the password-derived key, except for the
// duration of one unlock call.
type Identity struct {
	PublicKey           []byte
	EncryptedPrivateKey EncryptedSecret
}

// ErrWrongPasswordOrCorrupted means GCM authentication failed while
// unlocking a long-term secret. A wrong password and a corrupted record
// are indistinguishable here, and the API keeps it that way.
var ErrWrongPasswordOrCorrupted = errors.New("keyring: wrong password or corrupted record")

// SetupIdentity creates a user's identity: derive the key-encryption
// key from the password, generate an X25519 keypair and seal the
// private scalar. Runs once per user at account setup.
func SetupIdentity(password, salt string) (Identity, error) {
	kek, err := crypto.DeriveKey(password, salt)
	if err != nil {
		return Identity{}, err
	}
	defer crypto.Zero32(&kek)
	_ = crypto.LockMemory(kek[:])
	defer func() { _ = crypto.UnlockMemory(kek[:]) }()

	scalar, point, err := crypto.NewX25519()
	if err != nil {
		return Identity{}, err
	}
	defer crypto.Zero(scalar)

	nonce, err := crypto.NewNonce()
	if err != nil {
		return Identity{}, err
	}
	ct, err := crypto.SealGCM(kek[:], nonce, scalar)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		PublicKey: point,
		EncryptedPrivateKey: EncryptedSecret{
			Ciphertext: ct,
			Nonce:      nonce,
			Salt:       salt,
		},
	}, nil
}

// UnlockIdentity recovers the raw private scalar from its at-rest
// envelope. The returned buffer is owned by the caller, who zeroes it
// as soon as the surrounding operation finishes.
func UnlockIdentity(password string, enc EncryptedSecret) ([]byte, error) {
	return openSecret(password, enc)
}

func openSecret(password string, enc EncryptedSecret) ([]byte, error) {
	kek, err := crypto.DeriveKey(password, enc.Salt)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero32(&kek)
	_ = crypto.LockMemory(kek[:])
	defer func() { _ = crypto.UnlockMemory(kek[:]) }()

	secret, err := crypto.OpenGCM(kek[:], enc.Nonce, enc.Ciphertext)
	if err != nil {
		return nil, ErrWrongPasswordOrCorrupted
	}
	return secret, nil
}
