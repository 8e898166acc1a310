// Package vaultsim is a simulated vault peer: it terminates the pairing
// handshake, makes approval decisions on a schedule and serves canned
// items over the encrypted channel. It backs the vaultsim command and
// the end-to-end tests.
package vaultsim
