package vaultsim

import (
	"crypto/ecdh"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"vaultbridge/internal/crypto"
	"vaultbridge/internal/domain"
	"vaultbridge/internal/protocol/seal"
)

// Config controls how the simulated vault treats clients.
type Config struct {
	// AutoAuthorize pairs every client straight from the handshake.
	AutoAuthorize bool
	// ApproveAfter, when set, answers handshakes with pending approval and
	// pushes an approving authorization update after the delay.
	ApproveAfter time.Duration
	// DenyAfter is like ApproveAfter but denies.
	DenyAfter time.Duration
	// PairRate limits handshakes per second across all connections.
	// Zero means unlimited.
	PairRate rate.Limit
	// ActionDelay postpones the response to the named actions, useful for
	// exercising out-of-order delivery.
	ActionDelay map[string]time.Duration

	Logger   *zerolog.Logger
	Registry prometheus.Registerer
}

// Server simulates the trusted vault side of the bridge: it answers
// handshakes, makes approval decisions and serves canned items over the
// encrypted channel. It exists for development and end-to-end tests.
type Server struct {
	cfg      Config
	log      zerolog.Logger
	priv     *ecdh.PrivateKey
	limiter  *rate.Limiter
	metrics  *metrics
	upgrader websocket.Upgrader

	mu    sync.Mutex
	items []Item
}

// New generates a fresh server identity and seeds the canned item set.
func New(cfg Config) (*Server, error) {
	priv, err := crypto.GenerateP256()
	if err != nil {
		return nil, err
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	limit := cfg.PairRate
	if limit == 0 {
		limit = rate.Inf
	}
	return &Server{
		cfg:     cfg,
		log:     log,
		priv:    priv,
		limiter: rate.NewLimiter(limit, 1),
		metrics: newMetrics(cfg.Registry),
		items:   defaultItems(),
	}, nil
}

// PublicKey returns the server's long-term public key (uncompressed point).
func (s *Server) PublicKey() []byte { return s.priv.PublicKey().Bytes() }

// Handler upgrades each HTTP request to a WebSocket and runs one session
// on it until the client goes away.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn().Err(err).Msg("upgrade failed")
			return
		}
		sess := &session{srv: s, conn: conn, log: s.log.With().Str("remote", conn.RemoteAddr().String()).Logger()}
		sess.run()
	})
}

// session is one client connection. Writes go through writeMu because
// approval timers and delayed responses write concurrently with the
// read loop.
type session struct {
	srv  *Server
	conn *websocket.Conn
	log  zerolog.Logger

	writeMu sync.Mutex

	mu         sync.Mutex
	clientPub  []byte
	authorized bool
}

func (c *session) run() {
	defer c.conn.Close()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var probe domain.Probe
		if err := json.Unmarshal(raw, &probe); err != nil {
			c.writeError("bad_message", "message is not valid JSON")
			continue
		}
		switch probe.Type {
		case domain.TypeHandshake:
			c.handleHandshake(raw)
		case domain.TypeRequest:
			c.handleRequest(raw)
		default:
			c.writeError("unsupported_type", "unsupported message type "+string(probe.Type))
		}
	}
}

func (c *session) handleHandshake(raw []byte) {
	if !c.srv.limiter.Allow() {
		c.writeError("rate_limited", "too many pairing attempts")
		return
	}
	var hs domain.Handshake
	if err := json.Unmarshal(raw, &hs); err != nil {
		c.writeError("bad_handshake", "malformed handshake")
		return
	}
	clientPub, err := crypto.B64Decode(hs.Client.PublicKey)
	if err == nil {
		_, err = crypto.ParsePublicKey(clientPub)
	}
	if err != nil {
		c.writeError("bad_handshake", "invalid client public key")
		return
	}
	c.srv.metrics.handshakes.Inc()

	cfg := c.srv.cfg
	authorized := cfg.AutoAuthorize
	pending := !authorized && (cfg.ApproveAfter > 0 || cfg.DenyAfter > 0)

	c.mu.Lock()
	c.clientPub = clientPub
	c.authorized = authorized
	c.mu.Unlock()

	c.write(domain.HandshakeResponse{
		Type:            domain.TypeHandshakeResponse,
		ServerPublicKey: crypto.B64(c.srv.PublicKey()),
		Authorized:      authorized,
		PendingApproval: pending,
	})
	c.log.Info().
		Str("clientId", string(hs.Client.ClientID)).
		Str("clientName", hs.Client.ClientName).
		Bool("authorized", authorized).
		Bool("pending", pending).
		Msg("handshake")

	if !pending {
		return
	}
	if cfg.ApproveAfter > 0 {
		time.AfterFunc(cfg.ApproveAfter, func() { c.decide(true) })
	} else {
		time.AfterFunc(cfg.DenyAfter, func() { c.decide(false) })
	}
}

// decide pushes the deferred approval decision.
func (c *session) decide(approved bool) {
	c.mu.Lock()
	c.authorized = approved
	c.mu.Unlock()
	c.write(domain.AuthorizationUpdate{
		Type:       domain.TypeAuthorizationUpdate,
		Authorized: approved,
	})
	c.log.Info().Bool("approved", approved).Msg("approval decision")
}

func (c *session) handleRequest(raw []byte) {
	var env domain.RequestEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.writeError("bad_request", "malformed request envelope")
		return
	}

	c.mu.Lock()
	clientPub := c.clientPub
	authorized := c.authorized
	c.mu.Unlock()
	if clientPub == nil {
		c.writeError("no_handshake", "request before handshake")
		return
	}
	if !authorized {
		c.writeError("not_authorized", "client is not authorized")
		return
	}

	ephPub, err := crypto.B64Decode(env.PublicKey)
	if err != nil {
		c.srv.metrics.decryptFailures.Inc()
		c.writeError("bad_request", "invalid ephemeral key encoding")
		return
	}
	iv, err := crypto.B64Decode(env.IV)
	if err != nil {
		c.srv.metrics.decryptFailures.Inc()
		c.writeError("bad_request", "invalid iv encoding")
		return
	}
	ct, err := crypto.B64Decode(env.Message)
	if err != nil {
		c.srv.metrics.decryptFailures.Inc()
		c.writeError("bad_request", "invalid ciphertext encoding")
		return
	}

	payload := map[string]any{}
	if err := seal.Open(c.srv.priv, ephPub, iv, ct, &payload); err != nil {
		c.srv.metrics.decryptFailures.Inc()
		c.writeError("decryption_failed", "could not decrypt request")
		return
	}
	requestID, _ := payload["requestId"].(string)
	if requestID == "" {
		c.writeError("bad_request", "request has no requestId")
		return
	}
	c.srv.metrics.requests.WithLabelValues(env.Action).Inc()

	reply := c.srv.answer(env.Action, payload)
	delay := c.srv.cfg.ActionDelay[env.Action]
	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		c.respond(clientPub, env, requestID, reply)
	}()
}

// respond seals reply against the client's long-term key with a fresh
// ephemeral pair, mirroring what clients do on the way in.
func (c *session) respond(clientPub []byte, env domain.RequestEnvelope, requestID string, reply map[string]any) {
	reply["requestId"] = requestID
	sealed, err := seal.Seal(clientPub, reply)
	if err != nil {
		c.log.Error().Err(err).Msg("sealing response failed")
		return
	}
	c.write(domain.ResponseEnvelope{
		Type:      domain.TypeResponse,
		Action:    env.Action,
		Message:   crypto.B64(sealed.Ciphertext),
		IV:        crypto.B64(sealed.IV),
		ClientID:  env.ClientID,
		PublicKey: crypto.B64(sealed.EphemeralPublicKey),
	})
}

// answer computes the plaintext reply for one decrypted action.
func (s *Server) answer(action string, payload map[string]any) map[string]any {
	switch action {
	case "ping":
		return map[string]any{"status": "ok"}

	case "get-items":
		pageURL, _ := payload["url"].(string)
		s.mu.Lock()
		defer s.mu.Unlock()
		matches := make([]Item, 0)
		for _, it := range s.items {
			if matchesHost(it.URL, pageURL) {
				it.Password = "" // listings never carry secrets
				matches = append(matches, it)
			}
		}
		return map[string]any{"items": matches}

	case "get-item-details":
		itemID, _ := payload["itemId"].(string)
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, it := range s.items {
			if it.ID == itemID {
				return map[string]any{"item": it}
			}
		}
		return map[string]any{"error": "not_found"}

	case "create-item":
		item := Item{
			ID:       newItemID(),
			Name:     stringField(payload, "name"),
			URL:      stringField(payload, "url"),
			Username: stringField(payload, "username"),
			Password: stringField(payload, "password"),
		}
		s.mu.Lock()
		s.items = append(s.items, item)
		s.mu.Unlock()
		return map[string]any{"status": "created", "itemId": item.ID}

	default:
		return map[string]any{"error": "unknown_action"}
	}
}

func stringField(payload map[string]any, key string) string {
	v, _ := payload[key].(string)
	return v
}

func (c *session) write(msg any) {
	raw, err := json.Marshal(msg)
	if err != nil {
		c.log.Error().Err(err).Msg("marshal failed")
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		c.log.Debug().Err(err).Msg("write failed")
	}
}

func (c *session) writeError(code, message string) {
	c.write(domain.ErrorMessage{Type: domain.TypeError, Code: code, Message: message})
}
