package domain

import "context"

// Transport is a full-duplex, message-oriented connection to the bridge
// endpoint. Handlers must be registered before Connect; the implementation
// invokes OnMessage from its read loop and fires exactly one of OnClose or
// OnError when the connection goes away.
type Transport interface {
	// Connect opens the connection. It is idempotent: connecting an
	// already-open transport returns nil immediately. Failures surface as
	// *TransportError.
	Connect(ctx context.Context, url string) error

	// Send writes one message. It fails with *TransportError when the
	// transport is not open.
	Send(msg []byte) error

	OnMessage(fn func(msg []byte))
	OnClose(fn func())
	OnError(fn func(err error))

	Close() error
}

// IdentityStore persists the long-term client identity encrypted at rest.
type IdentityStore interface {
	SaveIdentity(passphrase string, id Identity) error
	LoadIdentity(passphrase string) (Identity, error)
}
