package app

import (
	"time"

	"github.com/rs/zerolog"

	"vaultbridge/internal/domain"
	"vaultbridge/internal/services/channel"
	identitysvc "vaultbridge/internal/services/identity"
	"vaultbridge/internal/store"
	"vaultbridge/internal/transport"
)

// Wire bundles the stores and services the CLI commands use.
type Wire struct {
	Identities *identitysvc.Service
	Log        zerolog.Logger

	cfg Config
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	identityStore := store.NewIdentityFileStore(cfg.Home)
	return &Wire{
		Identities: identitysvc.New(identityStore),
		Log:        log,
		cfg:        cfg,
	}, nil
}

// NewChannel builds a fresh channel over its own WebSocket transport for
// the given identity. Each channel owns one connection.
func (w *Wire) NewChannel(id domain.Identity) (*channel.Channel, error) {
	ws := transport.NewWebSocket(&w.Log)
	return channel.New(id, ws, channel.Config{
		ClientName: w.cfg.ClientName,
		TargetName: w.cfg.TargetName,
		Logger:     &w.Log,
	})
}

// BridgeURL returns the configured bridge endpoint.
func (w *Wire) BridgeURL() string { return w.cfg.BridgeURL }

// RequestDeadline returns the per-request timeout.
func (w *Wire) RequestDeadline() time.Duration { return w.cfg.RequestDeadline() }
