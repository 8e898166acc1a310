package channel_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vaultbridge/internal/domain"
	"vaultbridge/internal/services/channel"
)

// stubSender fails scripted attempts before succeeding.
type stubSender struct {
	calls int
	errs  []error
}

func (s *stubSender) SendRequest(ctx context.Context, req domain.Request, timeout time.Duration) (json.RawMessage, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return nil, s.errs[s.calls-1]
	}
	return json.RawMessage(`{"status":"ok"}`), nil
}

func TestRetrier_RetriesTimeouts(t *testing.T) {
	s := &stubSender{errs: []error{domain.ErrRequestTimeout, domain.ErrRequestTimeout}}
	r := &channel.Retrier{Sender: s, MaxRetries: 3, InitialInterval: time.Millisecond}

	payload, err := r.Do(context.Background(), domain.Ping{}, time.Second)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"ok"}`, string(payload))
	require.Equal(t, 3, s.calls)
}

func TestRetrier_RetriesTransportErrors(t *testing.T) {
	s := &stubSender{errs: []error{&domain.TransportError{Op: "send", Err: domain.ErrNotConnected}}}
	r := &channel.Retrier{Sender: s, MaxRetries: 3, InitialInterval: time.Millisecond}

	_, err := r.Do(context.Background(), domain.Ping{}, time.Second)
	require.NoError(t, err)
	require.Equal(t, 2, s.calls)
}

func TestRetrier_AuthorizationFailureIsPermanent(t *testing.T) {
	s := &stubSender{errs: []error{domain.ErrNotAuthorized, domain.ErrNotAuthorized}}
	r := &channel.Retrier{Sender: s, MaxRetries: 5, InitialInterval: time.Millisecond}

	_, err := r.Do(context.Background(), domain.Ping{}, time.Second)
	require.ErrorIs(t, err, domain.ErrNotAuthorized)
	require.Equal(t, 1, s.calls)
}

func TestRetrier_ExhaustsRetries(t *testing.T) {
	s := &stubSender{errs: []error{
		domain.ErrRequestTimeout,
		domain.ErrRequestTimeout,
		domain.ErrRequestTimeout,
	}}
	r := &channel.Retrier{Sender: s, MaxRetries: 2, InitialInterval: time.Millisecond}

	_, err := r.Do(context.Background(), domain.Ping{}, time.Second)
	require.ErrorIs(t, err, domain.ErrRequestTimeout)
	require.Equal(t, 3, s.calls) // initial attempt plus two retries
}
