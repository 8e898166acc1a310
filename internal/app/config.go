package app

import (
	"time"

	"github.com/rs/zerolog"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home           string          // config directory, e.g. $HOME/.vaultbridge
	BridgeURL      string          // bridge endpoint, e.g. ws://127.0.0.1:8734
	ClientName     string          // name shown on the vault's approval prompt
	TargetName     string          // application the vault routes actions to
	RequestTimeout time.Duration   // per-request deadline; defaults to 30s
	Logger         *zerolog.Logger // optional; defaults to a disabled logger
}

const defaultRequestTimeout = 30 * time.Second

// RequestDeadline returns the configured per-request timeout or the default.
func (c Config) RequestDeadline() time.Duration {
	if c.RequestTimeout > 0 {
		return c.RequestTimeout
	}
	return defaultRequestTimeout
}
