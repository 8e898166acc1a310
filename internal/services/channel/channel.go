package channel

import (
	"context"
	"crypto/ecdh"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vaultbridge/internal/crypto"
	"vaultbridge/internal/domain"
	"vaultbridge/internal/protocol/handshake"
	"vaultbridge/internal/protocol/seal"
)

// Config carries channel construction options.
type Config struct {
	// ClientName is the display name announced in the handshake; the
	// vault shows it to the user on the approval prompt.
	ClientName string
	// TargetName names the application the peer routes decrypted actions
	// to, sent as extensionName on every request.
	TargetName string
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
}

// Channel is the encrypted request/response channel between one client
// identity and the vault bridge. It owns the pairing state machine and
// the request correlation table, and is safe for concurrent use: requests
// are multiplexed by id, not by send order.
type Channel struct {
	identity   domain.Identity
	privateKey *ecdh.PrivateKey
	clientID   domain.ClientID

	transport domain.Transport
	cfg       Config
	log       zerolog.Logger

	state   *stateTracker
	pending *pendingTable

	mu           sync.Mutex
	open         bool
	sawHandshake bool
}

// New builds a channel over t for the given identity. The identity's
// private key must parse; a broken identity can never pair, so it is
// rejected here rather than on first use.
func New(id domain.Identity, t domain.Transport, cfg Config) (*Channel, error) {
	priv, err := crypto.ParsePrivateKey(id.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("identity private key: %w", err)
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	c := &Channel{
		identity:   id,
		privateKey: priv,
		clientID:   crypto.DeriveClientID(id.PublicKey),
		transport:  t,
		cfg:        cfg,
		log:        log.With().Str("clientId", string(crypto.DeriveClientID(id.PublicKey))).Logger(),
		state:      newStateTracker(),
		pending:    newPendingTable(),
	}
	t.OnMessage(c.handleMessage)
	t.OnClose(func() { c.handleDisconnect(nil) })
	t.OnError(func(err error) { c.handleDisconnect(err) })
	return c, nil
}

// ClientID returns the stable identifier derived from the identity key.
func (c *Channel) ClientID() domain.ClientID { return c.clientID }

// State returns the current pairing state snapshot.
func (c *Channel) State() Snapshot { return c.state.snapshot() }

// Subscribe registers fn for state changes. fn is invoked once
// immediately with the current state, then on every transition. The
// returned function cancels the subscription.
func (c *Channel) Subscribe(fn func(Snapshot)) (cancel func()) {
	return c.state.subscribe(fn)
}

// Connect opens the transport and sends the plaintext handshake. It
// returns without waiting for the handshake response; pairing progress is
// observable via Subscribe and WaitForAuthorization. Connecting an
// already-open channel is a no-op.
func (c *Channel) Connect(ctx context.Context, url string) error {
	c.mu.Lock()
	if c.open {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.state.toConnecting()
	if err := c.transport.Connect(ctx, url); err != nil {
		c.state.reset(err)
		return err
	}
	c.mu.Lock()
	c.open = true
	c.sawHandshake = false
	c.mu.Unlock()

	raw, err := json.Marshal(handshake.Hello(c.identity, c.cfg.ClientName))
	if err != nil {
		return err
	}
	if err := c.transport.Send(raw); err != nil {
		c.state.reset(err)
		return err
	}
	c.log.Debug().Msg("handshake sent")
	return nil
}

// Close tears the transport down. All outstanding requests are rejected
// immediately with ErrChannelClosed rather than left to their individual
// timeouts, and the state resets to disconnected with no recorded error.
func (c *Channel) Close() error {
	err := c.transport.Close()
	c.handleDisconnect(nil)
	return err
}

// WaitForAuthorization blocks until the channel reaches the paired state
// or ctx is done.
func (c *Channel) WaitForAuthorization(ctx context.Context) error {
	paired := make(chan struct{})
	var once sync.Once
	cancel := c.Subscribe(func(s Snapshot) {
		if s.State == domain.StatePaired {
			once.Do(func() { close(paired) })
		}
	})
	defer cancel()

	select {
	case <-paired:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendRequest validates and seals req, sends it, and blocks until the
// matching response, the timeout, ctx cancellation or channel close.
// Each call uses a fresh request id and a fresh ephemeral key pair, so
// concurrent requests multiplex freely and responses may arrive in any
// order.
func (c *Channel) SendRequest(ctx context.Context, req domain.Request, timeout time.Duration) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Precondition checks, each a distinct failure.
	c.mu.Lock()
	open := c.open
	c.mu.Unlock()
	if !open {
		return nil, &domain.TransportError{Op: "send", Err: domain.ErrNotConnected}
	}
	snap := c.state.snapshot()
	if len(snap.ServerPublicKey) == 0 {
		return nil, domain.ErrHandshakeIncomplete
	}
	if snap.State != domain.StatePaired {
		return nil, domain.ErrNotAuthorized
	}

	requestID, err := seal.NewRequestID()
	if err != nil {
		return nil, err
	}
	payload, err := injectRequestID(req, requestID)
	if err != nil {
		return nil, err
	}
	sealed, err := seal.Seal(snap.ServerPublicKey, payload)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(domain.RequestEnvelope{
		Type:               domain.TypeRequest,
		Action:             req.Action(),
		Message:            crypto.B64(sealed.Ciphertext),
		IV:                 crypto.B64(sealed.IV),
		ClientID:           c.clientID,
		PublicKey:          crypto.B64(sealed.EphemeralPublicKey),
		ExtensionPublicKey: crypto.B64(snap.ServerPublicKey),
		ExtensionName:      c.cfg.TargetName,
	})
	if err != nil {
		return nil, err
	}

	// Register before sending: a response can race back before Send
	// returns.
	ch := c.pending.add(requestID, timeout)
	if err := c.transport.Send(raw); err != nil {
		c.pending.fail(requestID, err)
		<-ch
		return nil, err
	}
	c.log.Debug().Str("action", req.Action()).Str("requestId", requestID).Msg("request sent")

	select {
	case res := <-ch:
		return res.payload, res.err
	case <-ctx.Done():
		c.pending.fail(requestID, ctx.Err())
		// The single result is buffered either way; drain it so a racing
		// response wins over cancellation.
		res := <-ch
		return res.payload, res.err
	}
}

// injectRequestID flattens req to a JSON object and adds the correlation
// id the peer echoes back inside the encrypted response.
func injectRequestID(req domain.Request, id string) (map[string]any, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	payload := make(map[string]any)
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	payload["requestId"] = id
	return payload, nil
}

// handleDisconnect resets the channel after a transport close or error.
// err is nil for a clean close.
func (c *Channel) handleDisconnect(err error) {
	c.mu.Lock()
	c.open = false
	c.sawHandshake = false
	c.mu.Unlock()

	c.pending.failAll(domain.ErrChannelClosed)
	c.state.reset(err)
	if err != nil {
		c.log.Warn().Err(err).Msg("channel disconnected")
	}
}

// handleMessage dispatches one inbound wire message. A malformed message
// of any kind is logged and dropped; it must never terminate the channel
// or corrupt the correlation table.
func (c *Channel) handleMessage(raw []byte) {
	var probe domain.Probe
	if err := json.Unmarshal(raw, &probe); err != nil {
		c.log.Warn().Err(err).Msg("dropping unparseable message")
		return
	}
	switch probe.Type {
	case domain.TypeHandshakeResponse:
		c.handleHandshakeResponse(raw)
	case domain.TypeAuthorizationUpdate:
		c.handleAuthorizationUpdate(raw)
	case domain.TypeResponse:
		c.handleResponse(raw)
	case domain.TypeError:
		c.handleServerError(raw)
	case domain.TypePong:
		// Keepalive, nothing to do.
	default:
		c.log.Debug().Str("type", string(probe.Type)).Msg("dropping unknown message type")
	}
}

func (c *Channel) handleHandshakeResponse(raw []byte) {
	var resp domain.HandshakeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.log.Warn().Err(err).Msg("dropping malformed handshake response")
		return
	}

	// Exactly one handshake response is consumed per connection; the
	// peer key it carries is used for every outgoing encryption until a
	// new handshake occurs.
	c.mu.Lock()
	if c.sawHandshake {
		c.mu.Unlock()
		c.log.Debug().Msg("dropping duplicate handshake response")
		return
	}
	c.sawHandshake = true
	c.mu.Unlock()

	serverKey, err := crypto.B64Decode(resp.ServerPublicKey)
	if err == nil {
		_, err = crypto.ParsePublicKey(serverKey)
	}
	if err != nil {
		c.mu.Lock()
		c.sawHandshake = false
		c.mu.Unlock()
		c.log.Warn().Err(err).Msg("dropping handshake response with invalid server key")
		return
	}

	verdict := handshake.Verdict(resp)
	c.state.applyHandshake(serverKey, verdict)
	c.log.Debug().Str("state", verdict.String()).Msg("handshake complete")
}

func (c *Channel) handleAuthorizationUpdate(raw []byte) {
	var update domain.AuthorizationUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		c.log.Warn().Err(err).Msg("dropping malformed authorization update")
		return
	}
	c.state.applyAuthorizationUpdate(handshake.UpdateVerdict(update))
}

func (c *Channel) handleResponse(raw []byte) {
	var env domain.ResponseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Warn().Err(err).Msg("dropping malformed response envelope")
		return
	}
	ephemeralPub, err := crypto.B64Decode(env.PublicKey)
	if err != nil {
		c.log.Warn().Err(err).Msg("dropping response with invalid ephemeral key encoding")
		return
	}
	iv, err := crypto.B64Decode(env.IV)
	if err != nil {
		c.log.Warn().Err(err).Msg("dropping response with invalid iv encoding")
		return
	}
	ciphertext, err := crypto.B64Decode(env.Message)
	if err != nil {
		c.log.Warn().Err(err).Msg("dropping response with invalid ciphertext encoding")
		return
	}

	var payload json.RawMessage
	if err := seal.Open(c.privateKey, ephemeralPub, iv, ciphertext, &payload); err != nil {
		c.log.Warn().Err(err).Str("action", env.Action).Msg("dropping undecryptable response")
		return
	}
	var correlation struct {
		RequestID string `json:"requestId"`
	}
	if err := json.Unmarshal(payload, &correlation); err != nil || correlation.RequestID == "" {
		c.log.Warn().Str("action", env.Action).Msg("dropping response without requestId")
		return
	}
	if !c.pending.resolve(correlation.RequestID, payload) {
		// Stray or duplicate: the request already timed out, was
		// cancelled, or never existed. Dropped without error.
		c.log.Debug().Str("requestId", correlation.RequestID).Msg("dropping unmatched response")
	}
}

func (c *Channel) handleServerError(raw []byte) {
	var msg domain.ErrorMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.log.Warn().Err(err).Msg("dropping malformed error message")
		return
	}
	serverErr := &domain.ServerError{Code: msg.Code, Message: msg.Message}
	c.state.recordServerError(serverErr)
	c.log.Warn().Str("code", msg.Code).Str("message", msg.Message).Msg("server reported error")
}
