package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrHandshakeIncomplete is returned by SendRequest before the peer's
	// public key is known.
	ErrHandshakeIncomplete = errors.New("handshake incomplete: peer public key not known")

	// ErrNotAuthorized is returned by SendRequest while the channel is in
	// any state other than paired.
	ErrNotAuthorized = errors.New("client is not paired with the vault")

	// ErrRequestTimeout rejects a request whose response did not arrive
	// within its timeout window.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrChannelClosed rejects requests still in flight when the channel
	// disconnects.
	ErrChannelClosed = errors.New("channel closed")

	// ErrNotConnected reports a send attempted on a closed transport.
	ErrNotConnected = errors.New("transport is not connected")

	// ErrDecryptionFailure marks an inbound envelope that failed to
	// authenticate, decrypt or parse. Such messages are logged and
	// dropped; they never terminate the channel.
	ErrDecryptionFailure = errors.New("decryption failure")
)

// TransportError wraps a connect, send or read failure of the underlying
// transport.
type TransportError struct {
	Op  string // "dial", "send" or "read"
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport %s: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is an explicit error message from the peer. It surfaces as
// channel-level error state without closing the connection.
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %s: %s", e.Code, e.Message)
}
