package domain

// MessageType discriminates wire messages on the bridge.
type MessageType string

const (
	TypeHandshake           MessageType = "handshake"
	TypeHandshakeResponse   MessageType = "handshakeResponse"
	TypeRequest             MessageType = "request"
	TypeResponse            MessageType = "response"
	TypeAuthorizationUpdate MessageType = "authorizationUpdate"
	TypeError               MessageType = "error"
	TypePong                MessageType = "pong"
)

// Probe extracts only the discriminator from a raw wire message, so the
// channel can dispatch before committing to a full decode.
type Probe struct {
	Type MessageType `json:"type"`
}

// ClientInfo announces the client identity during the handshake.
type ClientInfo struct {
	ClientID   ClientID `json:"clientId"`
	ClientName string   `json:"clientName"`
	PublicKey  string   `json:"publicKey"` // base64 uncompressed point
}

// Handshake is the one-shot plaintext hello sent on transport open.
type Handshake struct {
	Type    MessageType `json:"type"`
	Version string      `json:"version"`
	Client  ClientInfo  `json:"client"`
}

// HandshakeResponse carries the peer's public key and its authorization
// verdict for this client.
type HandshakeResponse struct {
	Type            MessageType `json:"type"`
	ServerPublicKey string      `json:"serverPublicKey"` // base64 uncompressed point
	Authorized      bool        `json:"authorized"`
	PendingApproval bool        `json:"pendingApproval"`
}

// RequestEnvelope is one encrypted client request. Message holds the
// ciphertext with the 16-byte GCM tag appended; PublicKey is the
// single-use ephemeral key the peer needs for ECDH. ExtensionPublicKey
// and ExtensionName route the decrypted action on the peer side.
type RequestEnvelope struct {
	Type               MessageType `json:"type"`
	Action             string      `json:"action"`
	Message            string      `json:"message"` // base64 ciphertext||tag
	IV                 string      `json:"iv"`      // base64, 12 bytes
	ClientID           ClientID    `json:"clientId"`
	PublicKey          string      `json:"publicKey"` // base64 ephemeral point
	ExtensionPublicKey string      `json:"extensionPublicKey"`
	ExtensionName      string      `json:"extensionName"`
}

// ResponseEnvelope is one encrypted peer response, sealed with the peer's
// own fresh ephemeral key against the client's long-term key.
type ResponseEnvelope struct {
	Type      MessageType `json:"type"`
	Action    string      `json:"action"`
	Message   string      `json:"message"`
	IV        string      `json:"iv"`
	ClientID  ClientID    `json:"clientId"`
	PublicKey string      `json:"publicKey"` // base64 ephemeral point
}

// AuthorizationUpdate reports an approval decision made after the
// handshake, while the client waits in pending_approval.
type AuthorizationUpdate struct {
	Type       MessageType `json:"type"`
	Authorized bool        `json:"authorized"`
}

// ErrorMessage is an explicit channel-level error from the peer. It does
// not by itself close the connection.
type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

// PongMessage is a keepalive from the peer; clients ignore it.
type PongMessage struct {
	Type MessageType `json:"type"`
}
