// Package crypto exposes the primitives the pairing channel is built on.
//
// Contents
//
//   - P-256 key generation and ECDH shared-secret derivation
//     (GenerateP256, SharedSecret)
//   - Client identifier derivation from a public key (DeriveClientID)
//   - AES-256-GCM sealing with a random 12-byte IV and the 16-byte tag
//     appended to the ciphertext (SealGCM, OpenGCM)
//   - Base64 helpers for wire transport (B64, B64Decode)
//   - Best-effort wiping of derived symmetric keys (Wipe)
//
// Public keys travel in the standard uncompressed point encoding
// (65 bytes); callers should treat derived secrets as sensitive and Wipe
// them once used.
package crypto
