package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"vaultbridge/internal/crypto"
)

const (
	envelopeVersion = 1
	saltSize        = 16

	// Argon2id parameters recorded in the envelope so they can be tuned
	// without breaking existing keystores.
	argonTime     = 1
	argonMemoryKB = 64 * 1024
	argonThreads  = 4
)

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// keystore has been modified or corrupted.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted keystore")

// envelope is the on-disk JSON structure: ciphertext plus the KDF
// parameters needed to re-derive the key. The salt doubles as associated
// data, binding the ciphertext to its own KDF input.
type envelope struct {
	Version    int    `json:"version"`
	Salt       []byte `json:"salt"`
	Time       uint32 `json:"argon_time"`
	MemoryKB   uint32 `json:"argon_memory_kb"`
	Threads    uint8  `json:"argon_threads"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// sealEnvelope encrypts raw under a key derived from passphrase with
// Argon2id and ChaCha20-Poly1305.
func sealEnvelope(passphrase string, raw []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemoryKB, argonThreads, chacha20poly1305.KeySize)
	defer crypto.Wipe(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, raw, salt)

	return json.Marshal(envelope{
		Version:    envelopeVersion,
		Salt:       salt,
		Time:       argonTime,
		MemoryKB:   argonMemoryKB,
		Threads:    argonThreads,
		Nonce:      nonce,
		Ciphertext: ct,
	})
}

// openEnvelope decrypts an envelope produced by sealEnvelope.
func openEnvelope(passphrase string, b []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("keystore envelope: %w", err)
	}
	if env.Version > envelopeVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", env.Version)
	}
	key := argon2.IDKey([]byte(passphrase), env.Salt, env.Time, env.MemoryKB, env.Threads, chacha20poly1305.KeySize)
	defer crypto.Wipe(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, env.Nonce, env.Ciphertext, env.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}
