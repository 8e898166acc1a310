package seal

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"vaultbridge/internal/crypto"
	"vaultbridge/internal/domain"
)

// Sealed is the output of encrypting one payload: single-use ciphertext
// plus the material the receiver needs to derive the same key.
type Sealed struct {
	Ciphertext         []byte // payload ciphertext with the 16-byte tag appended
	IV                 []byte // 12 bytes, random per message
	EphemeralPublicKey []byte // uncompressed point, generated for this message only
}

// Seal encrypts the JSON encoding of payload for the holder of peerPub.
//
// A fresh P-256 pair is generated per call and discarded afterwards. That
// ephemeral pair, not the long-term identity key, derives the message key,
// so compromise of a long-term key never retroactively exposes traffic.
func Seal(peerPub []byte, payload any) (Sealed, error) {
	plain, err := json.Marshal(payload)
	if err != nil {
		return Sealed{}, err
	}

	eph, err := crypto.GenerateP256()
	if err != nil {
		return Sealed{}, err
	}
	key, err := crypto.SharedSecret(eph, peerPub)
	if err != nil {
		return Sealed{}, err
	}
	defer crypto.Wipe(key)

	iv, ct, err := crypto.SealGCM(key, plain)
	if err != nil {
		return Sealed{}, err
	}
	return Sealed{
		Ciphertext:         ct,
		IV:                 iv,
		EphemeralPublicKey: eph.PublicKey().Bytes(),
	}, nil
}

// Open authenticates and decrypts a sealed payload using our long-term
// private key and the sender's embedded ephemeral public key, then decodes
// the JSON into out.
func Open(priv *ecdh.PrivateKey, senderEphemeralPub, iv, ciphertext []byte, out any) error {
	key, err := crypto.SharedSecret(priv, senderEphemeralPub)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDecryptionFailure, err)
	}
	defer crypto.Wipe(key)

	plain, err := crypto.OpenGCM(key, iv, ciphertext)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plain, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDecryptionFailure, err)
	}
	return nil
}

// NewRequestID returns a 128-bit random request identifier, hex encoded
// (32 chars). Identifiers are never reused across attempts.
func NewRequestID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
