// Package handshake implements the plaintext pairing handshake: the hello
// message a client sends on transport open, and the pure decision rules
// mapping the peer's authorization verdicts to channel states.
package handshake
