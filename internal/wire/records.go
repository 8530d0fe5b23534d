package wire

import (
	"fmt"

	"github.com/JLSed/Novault/internal/filecipher"
	"github.com/JLSed/Novault/internal/integrity"
	"github.com/JLSed/Novault/internal/keyring"
)

// IdentityRecord is the persisted shape of a user's long-term key
// material. Current records carry public_key and encrypted_private_key;
// legacy records carry encrypted_master_key instead. All byte fields
// are lowercase hex.
type IdentityRecord struct {
	OwnerID             string `bson:"owner_id" json:"owner_id"`
	PublicKey           string `bson:"public_key,omitempty" json:"public_key,omitempty"`
	EncryptedPrivateKey string `bson:"encrypted_private_key,omitempty" json:"encrypted_private_key,omitempty"`
	EncryptedMasterKey  string `bson:"encrypted_master_key,omitempty" json:"encrypted_master_key,omitempty"`
	Salt                string `bson:"pk_salt" json:"pk_salt"`
	Nonce               string `bson:"pk_nonce" json:"pk_nonce"`
}

// FileMeta is the per-file metadata record: the plaintext fingerprint,
// the body nonce, and where the ciphertext blob lives.
type FileMeta struct {
	FileID    string `bson:"file_id" json:"file_id"`
	OwnerID   string `bson:"owner_id" json:"owner_id"`
	Name      string `bson:"name" json:"name"`
	FileHash  string `bson:"file_hash" json:"file_hash"`
	FileNonce string `bson:"file_nonce" json:"file_nonce"`
	BlobID    string `bson:"blob_id" json:"blob_id"`
	Size      int64  `bson:"size" json:"size"`
	Created   int64  `bson:"created" json:"created"`
}

// DEKWrapRecord grants one recipient access to one file's DEK. Exactly
// one exists per (file, recipient) pair; today the uploader is the only
// recipient, the shape leaves room for sharing.
type DEKWrapRecord struct {
	FileID             string `bson:"file_id" json:"file_id"`
	OwnerID            string `bson:"owner_id" json:"owner_id"`
	EncryptedDEK       string `bson:"encrypted_dek" json:"encrypted_dek"`
	DEKNonce           string `bson:"dek_nonce" json:"dek_nonce"`
	EphemeralPublicKey string `bson:"ephemeral_public_key" json:"ephemeral_public_key"`
}

// NewIdentityRecord renders a freshly set up identity in its persisted
// shape.
func NewIdentityRecord(ownerID string, id keyring.Identity) IdentityRecord {
	return IdentityRecord{
		OwnerID:             ownerID,
		PublicKey:           EncodeHex(id.PublicKey),
		EncryptedPrivateKey: EncodeHex(id.EncryptedPrivateKey.Ciphertext),
		Salt:                id.EncryptedPrivateKey.Salt,
		Nonce:               EncodeHex(id.EncryptedPrivateKey.Nonce),
	}
}

// NewMasterKeyRecord renders a legacy master-key secret in its
// persisted shape.
func NewMasterKeyRecord(ownerID string, enc keyring.EncryptedSecret) IdentityRecord {
	return IdentityRecord{
		OwnerID:            ownerID,
		EncryptedMasterKey: EncodeHex(enc.Ciphertext),
		Salt:               enc.Salt,
		Nonce:              EncodeHex(enc.Nonce),
	}
}

// ParseIdentityRecord validates field widths and hands back the binary
// record for keyring.Unlock. Scheme selection follows field presence.
func ParseIdentityRecord(rec IdentityRecord) (keyring.Record, error) {
	nonce, err := DecodeHex("pk_nonce", rec.Nonce, NonceLen)
	if err != nil {
		return keyring.Record{}, err
	}
	if rec.Salt == "" {
		return keyring.Record{}, fmt.Errorf("%w: pk_salt: empty", ErrInvalidFormat)
	}

	switch {
	case rec.EncryptedPrivateKey != "":
		pub, err := DecodeHex("public_key", rec.PublicKey, PointLen)
		if err != nil {
			return keyring.Record{}, err
		}
		ct, err := DecodeHex("encrypted_private_key", rec.EncryptedPrivateKey, WrappedKeyLen)
		if err != nil {
			return keyring.Record{}, err
		}
		return keyring.Record{
			PublicKey: pub,
			Secret:    keyring.EncryptedSecret{Ciphertext: ct, Nonce: nonce, Salt: rec.Salt},
		}, nil

	case rec.EncryptedMasterKey != "":
		ct, err := DecodeHex("encrypted_master_key", rec.EncryptedMasterKey, WrappedKeyLen)
		if err != nil {
			return keyring.Record{}, err
		}
		return keyring.Record{
			Secret: keyring.EncryptedSecret{Ciphertext: ct, Nonce: nonce, Salt: rec.Salt},
		}, nil

	default:
		return keyring.Record{}, fmt.Errorf("%w: record carries neither private key nor master key", ErrInvalidFormat)
	}
}

// SplitEnvelope flattens an envelope into its persisted parts: the
// opaque ciphertext blob plus the hex metadata and DEK-wrap records.
func SplitEnvelope(fileID, ownerID, name string, created int64, env filecipher.Envelope, fp integrity.Fingerprint) (FileMeta, DEKWrapRecord, []byte) {
	meta := FileMeta{
		FileID:    fileID,
		OwnerID:   ownerID,
		Name:      name,
		FileHash:  fp.Hex(),
		FileNonce: EncodeHex(env.BodyNonce),
		BlobID:    fileID,
		Size:      int64(len(env.Body)),
		Created:   created,
	}
	wrap := DEKWrapRecord{
		FileID:             fileID,
		OwnerID:            ownerID,
		EncryptedDEK:       EncodeHex(env.EncryptedDEK),
		DEKNonce:           EncodeHex(env.DEKNonce),
		EphemeralPublicKey: EncodeHex(env.EphemeralPublicKey),
	}
	return meta, wrap, env.Body
}

// JoinEnvelope validates the persisted parts and rebuilds the envelope
// for decryption.
func JoinEnvelope(meta FileMeta, wrap DEKWrapRecord, blob []byte) (filecipher.Envelope, error) {
	bodyNonce, err := DecodeHex("file_nonce", meta.FileNonce, NonceLen)
	if err != nil {
		return filecipher.Envelope{}, err
	}
	encDEK, err := DecodeHex("encrypted_dek", wrap.EncryptedDEK, WrappedKeyLen)
	if err != nil {
		return filecipher.Envelope{}, err
	}
	dekNonce, err := DecodeHex("dek_nonce", wrap.DEKNonce, NonceLen)
	if err != nil {
		return filecipher.Envelope{}, err
	}
	eph, err := DecodeHex("ephemeral_public_key", wrap.EphemeralPublicKey, PointLen)
	if err != nil {
		return filecipher.Envelope{}, err
	}
	if len(blob) < TagLen {
		return filecipher.Envelope{}, fmt.Errorf("%w: blob shorter than a GCM tag", ErrInvalidFormat)
	}
	return filecipher.Envelope{
		Body:               blob,
		BodyNonce:          bodyNonce,
		EncryptedDEK:       encDEK,
		DEKNonce:           dekNonce,
		EphemeralPublicKey: eph,
	}, nil
}

// ParseFingerprint decodes a stored file_hash field.
func ParseFingerprint(s string) (integrity.Fingerprint, error) {
	b, err := DecodeHex("file_hash", s, DigestLen)
	if err != nil {
		return integrity.Fingerprint{}, err
	}
	var fp integrity.Fingerprint
	copy(fp[:], b)
	return fp, nil
}
