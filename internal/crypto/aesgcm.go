package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"vaultbridge/internal/domain"
)

const (
	// KeySize is the AES-256 key length.
	KeySize = 32
	// IVSize is the GCM initialization vector length.
	IVSize = 12
	// TagSize is the GCM authentication tag appended to the ciphertext.
	TagSize = 16
)

// SealGCM encrypts plaintext with AES-256-GCM under key, returning a
// fresh random IV and the ciphertext with the 16-byte tag appended.
func SealGCM(key, plaintext []byte) (iv, ciphertext []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	iv = make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, err
	}
	return iv, aead.Seal(nil, iv, plaintext, nil), nil
}

// OpenGCM authenticates and decrypts ciphertext carrying a trailing tag.
// Any authentication or framing failure maps to ErrDecryptionFailure.
func OpenGCM(key, iv, ciphertext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", domain.ErrDecryptionFailure, IVSize, len(iv))
	}
	if len(ciphertext) < TagSize {
		return nil, fmt.Errorf("%w: ciphertext shorter than tag", domain.ErrDecryptionFailure)
	}
	plain, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryptionFailure, err)
	}
	return plain, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("aes key: want %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
