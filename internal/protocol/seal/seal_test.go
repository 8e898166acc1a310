package seal_test

import (
	"bytes"
	"crypto/ecdh"
	"reflect"
	"regexp"
	"testing"

	"vaultbridge/internal/crypto"
	"vaultbridge/internal/protocol/seal"
)

// makeRecipient creates a long-term P-256 pair standing in for the vault.
func makeRecipient(t *testing.T) *ecdh.PrivateKey {
	t.Helper()
	priv, err := crypto.GenerateP256()
	if err != nil {
		t.Fatalf("GenerateP256: %v", err)
	}
	return priv
}

func TestSealOpen_RoundTrip(t *testing.T) {
	vault := makeRecipient(t)

	payloads := []any{
		map[string]any{},
		map[string]any{"requestId": "00112233445566778899aabbccddeeff"},
		map[string]any{"url": "https://example.com", "note": "héllo ✓ 世界"},
		map[string]any{"nested": map[string]any{"items": []any{"a", "b"}, "n": float64(3)}},
		map[string]any{"empty": ""},
	}
	for _, payload := range payloads {
		sealed, err := seal.Seal(vault.PublicKey().Bytes(), payload)
		if err != nil {
			t.Fatalf("Seal: %v", err)
		}

		var got map[string]any
		err = seal.Open(vault, sealed.EphemeralPublicKey, sealed.IV, sealed.Ciphertext, &got)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if !reflect.DeepEqual(got, payload) {
			t.Fatalf("round trip mismatch: got %v, want %v", got, payload)
		}
	}
}

func TestSeal_ForwardSecrecy(t *testing.T) {
	vault := makeRecipient(t)
	payload := map[string]any{"action": "identical"}

	first, err := seal.Seal(vault.PublicKey().Bytes(), payload)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	second, err := seal.Seal(vault.PublicKey().Bytes(), payload)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if bytes.Equal(first.EphemeralPublicKey, second.EphemeralPublicKey) {
		t.Fatal("ephemeral key reused across messages")
	}
	// Distinct ephemeral keys mean distinct derived keys, so even an
	// identical payload must not produce related ciphertext.
	if bytes.Equal(first.Ciphertext, second.Ciphertext) {
		t.Fatal("identical ciphertext for two seals of the same payload")
	}
	if bytes.Equal(first.IV, second.IV) {
		t.Fatal("IV reused across messages")
	}
}

func TestOpen_WrongRecipient(t *testing.T) {
	vault := makeRecipient(t)
	bystander := makeRecipient(t)

	sealed, err := seal.Seal(vault.PublicKey().Bytes(), map[string]any{"secret": true})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	var out map[string]any
	if err := seal.Open(bystander, sealed.EphemeralPublicKey, sealed.IV, sealed.Ciphertext, &out); err == nil {
		t.Fatal("want failure when opened by a key other than the recipient's")
	}
}

func TestOpen_Tampered(t *testing.T) {
	vault := makeRecipient(t)
	sealed, err := seal.Seal(vault.PublicKey().Bytes(), map[string]any{"v": 1})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	sealed.Ciphertext[len(sealed.Ciphertext)-1] ^= 0xff

	var out map[string]any
	if err := seal.Open(vault, sealed.EphemeralPublicKey, sealed.IV, sealed.Ciphertext, &out); err == nil {
		t.Fatal("want authentication failure for tampered ciphertext")
	}
}

func TestNewRequestID(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{32}$`)
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		id, err := seal.NewRequestID()
		if err != nil {
			t.Fatalf("NewRequestID: %v", err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("request id %q is not 32 hex chars", id)
		}
		if seen[id] {
			t.Fatalf("request id %q repeated", id)
		}
		seen[id] = true
	}
}
