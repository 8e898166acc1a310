// Package channel implements the encrypted request/response channel to
// the vault bridge: the pairing handshake, the authorization state
// machine, request correlation with per-request timeouts, and optional
// retry with exponential backoff.
package channel
