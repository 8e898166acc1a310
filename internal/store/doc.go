// Package store provides file-based persistence for the client identity.
//
// The identity is serialised as JSON and sealed in an envelope encrypted
// with ChaCha20-Poly1305 under an Argon2id-derived key; the salt and KDF
// parameters live alongside the ciphertext. Writes go through a temp file
// and rename so a crash never leaves a truncated keystore.
package store
