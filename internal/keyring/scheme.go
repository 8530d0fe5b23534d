package keyring

import (
	"fmt"

	"github.com/JLSed/Novault/internal/crypto"
)

// Scheme identifies which long-term secret variant a persisted record
// carries.
type Scheme uint8

const (
	SchemeUnknown Scheme = iota
	// SchemeMasterKey is the legacy symmetric design: the password
	// wraps one shared master key.
	SchemeMasterKey
	// SchemeIdentity is the production design: the password wraps an
	// X25519 private scalar, files are hybrid-encrypted per recipient.
	SchemeIdentity
)

func (s Scheme) String() string {
	switch s {
	case SchemeMasterKey:
		return "masterkey"
	case SchemeIdentity:
		return "identity"
	default:
		return "unknown"
	}
}

// Record is a parsed identity record: the encrypted long-term secret
// plus, for the asymmetric scheme, the public point. Field presence
// selects the scheme.
type Record struct {
	PublicKey []byte // nil for legacy master-key records
	Secret    EncryptedSecret
}

// Scheme reports the variant this record carries.
func (r Record) Scheme() Scheme {
	switch {
	case len(r.Secret.Ciphertext) == 0:
		return SchemeUnknown
	case len(r.PublicKey) != 0:
		return SchemeIdentity
	default:
		return SchemeMasterKey
	}
}

// LongTermSecret is an unlocked long-term secret in either scheme:
// a private scalar for SchemeIdentity, a master key for
// SchemeMasterKey. Owned by the caller; Destroy scrubs it.
type LongTermSecret struct {
	Scheme Scheme
	Key    []byte
}

// Destroy zeroes the secret in place.
func (s *LongTermSecret) Destroy() {
	crypto.Zero(s.Key)
	s.Key = nil
}

// Unlock recovers a record's long-term secret with the password,
// whichever scheme the record uses.
func Unlock(password string, rec Record) (*LongTermSecret, error) {
	scheme := rec.Scheme()
	if scheme == SchemeUnknown {
		return nil, fmt.Errorf("keyring: record carries no encrypted secret")
	}
	key, err := openSecret(password, rec.Secret)
	if err != nil {
		return nil, err
	}
	return &LongTermSecret{Scheme: scheme, Key: key}, nil
}
