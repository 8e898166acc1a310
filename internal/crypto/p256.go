package crypto

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"vaultbridge/internal/domain"
)

// GenerateP256 returns a fresh NIST P-256 key pair for ECDH.
func GenerateP256() (*ecdh.PrivateKey, error) {
	return ecdh.P256().GenerateKey(rand.Reader)
}

// ParsePublicKey decodes an uncompressed P-256 point.
func ParsePublicKey(b []byte) (*ecdh.PublicKey, error) {
	return ecdh.P256().NewPublicKey(b)
}

// ParsePrivateKey rehydrates a P-256 private key from its byte encoding.
func ParsePrivateKey(b []byte) (*ecdh.PrivateKey, error) {
	return ecdh.P256().NewPrivateKey(b)
}

// DeriveClientID computes the stable client identifier for a public key:
// lowercase hex of the first 16 bytes of SHA-256 over the uncompressed
// point encoding.
func DeriveClientID(pub []byte) domain.ClientID {
	sum := sha256.Sum256(pub)
	return domain.ClientID(hex.EncodeToString(sum[:16]))
}

// SharedSecret runs ECDH between priv and an uncompressed peer public
// point. The first 32 bytes of the shared secret are used directly as the
// AES-256 key.
func SharedSecret(priv *ecdh.PrivateKey, peerPub []byte) ([]byte, error) {
	pub, err := ParsePublicKey(peerPub)
	if err != nil {
		return nil, err
	}
	secret, err := priv.ECDH(pub)
	if err != nil {
		return nil, err
	}
	return secret[:KeySize], nil
}
