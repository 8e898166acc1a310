package domain

// ClientID identifies a client to the vault: lowercase hex of the first
// 16 bytes of SHA-256 over the uncompressed public-key point (32 chars).
// It is a pure function of the public key and stable across reconnects.
type ClientID string

// Identity is the long-term P-256 key pair of a client. It is created
// once at startup, never rotated, and must exist before any connection
// attempt.
type Identity struct {
	PrivateKey []byte `json:"privateKey"` // P-256 scalar in crypto/ecdh encoding
	PublicKey  []byte `json:"publicKey"`  // uncompressed point (65 bytes)
}

// State is the pairing lifecycle of a channel.
type State string

const (
	// StateDisconnected is the initial state; the channel re-enters it on
	// every transport close or error.
	StateDisconnected State = "disconnected"
	// StateConnecting covers the window between an explicit connect call
	// and the handshake response.
	StateConnecting State = "connecting"
	// StateConnected means the bridge is reachable but this client is
	// neither authorized nor pending approval.
	StateConnected State = "connected"
	// StatePendingApproval means the vault is waiting for the user to
	// approve the pairing.
	StatePendingApproval State = "pending_approval"
	// StatePaired means the client is authorized and may send requests.
	StatePaired State = "paired"
)

func (s State) String() string { return string(s) }
