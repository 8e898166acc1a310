package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"vaultbridge/internal/domain"
)

const (
	handshakeTimeout = 10 * time.Second
	closeGracePeriod = time.Second
)

// WebSocket is a message-oriented transport over a single WebSocket
// connection. Messages are delivered in arrival order from one read loop;
// writes are serialized internally so any goroutine may Send.
type WebSocket struct {
	log zerolog.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	writeMu sync.Mutex

	onMessage func([]byte)
	onClose   func()
	onError   func(error)
}

var _ domain.Transport = (*WebSocket)(nil)

// NewWebSocket returns an unconnected transport. logger may be nil.
func NewWebSocket(logger *zerolog.Logger) *WebSocket {
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}
	return &WebSocket{log: log}
}

// OnMessage registers the inbound message handler. Register before Connect.
func (t *WebSocket) OnMessage(fn func([]byte)) { t.onMessage = fn }

// OnClose registers the clean-close handler.
func (t *WebSocket) OnClose(fn func()) { t.onClose = fn }

// OnError registers the failure handler. Exactly one of OnClose or
// OnError fires per connection.
func (t *WebSocket) OnError(fn func(error)) { t.onError = fn }

// Connect dials url and starts the read loop. Connecting an already-open
// transport is a no-op.
func (t *WebSocket) Connect(ctx context.Context, url string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return &domain.TransportError{Op: "dial", Err: err}
	}
	t.conn = conn
	t.log.Debug().Str("url", url).Msg("websocket connected")

	go t.readPump(conn)
	return nil
}

// Send writes one text message.
func (t *WebSocket) Send(msg []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return &domain.TransportError{Op: "send", Err: domain.ErrNotConnected}
	}

	t.writeMu.Lock()
	err := conn.WriteMessage(websocket.TextMessage, msg)
	t.writeMu.Unlock()
	if err != nil {
		return &domain.TransportError{Op: "send", Err: err}
	}
	return nil
}

// Close shuts the connection down cleanly and fires OnClose. Detaching
// the connection here, not in the read loop, lets a caller reconnect
// immediately after Close returns.
func (t *WebSocket) Close() error {
	t.mu.Lock()
	conn := t.conn
	if conn == nil {
		t.mu.Unlock()
		return nil
	}
	t.conn = nil
	t.mu.Unlock()

	deadline := time.Now().Add(closeGracePeriod)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	t.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
	t.writeMu.Unlock()
	err := conn.Close()

	t.log.Debug().Msg("websocket closed")
	if t.onClose != nil {
		t.onClose()
	}
	return err
}

// readPump delivers inbound messages until the connection dies, then
// tears down exactly once.
func (t *WebSocket) readPump(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.teardown(conn, err)
			return
		}
		if t.onMessage != nil {
			t.onMessage(msg)
		}
	}
}

// teardown clears the connection and fires the appropriate handler. The
// identity check makes a pump whose connection was already detached by
// Close, or superseded by a reconnect, exit silently.
func (t *WebSocket) teardown(conn *websocket.Conn, err error) {
	t.mu.Lock()
	if t.conn != conn {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	t.mu.Unlock()

	_ = conn.Close()

	if isExpectedClose(err) {
		t.log.Debug().Msg("websocket closed")
		if t.onClose != nil {
			t.onClose()
		}
		return
	}
	t.log.Warn().Err(err).Msg("websocket read failed")
	if t.onError != nil {
		t.onError(&domain.TransportError{Op: "read", Err: err})
	}
}

func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
	)
}
