package channel

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"vaultbridge/internal/domain"
)

// Sender issues one encrypted request and waits for its response.
type Sender interface {
	SendRequest(ctx context.Context, req domain.Request, timeout time.Duration) (json.RawMessage, error)
}

var _ Sender = (*Channel)(nil)

// Retrier wraps a Sender with exponential backoff for transient failures.
// Timeouts and transport errors are retried; authorization and validation
// failures are not, since repeating them cannot succeed.
type Retrier struct {
	Sender          Sender
	MaxRetries      uint64
	InitialInterval time.Duration
}

// Do sends req, retrying up to MaxRetries times. Each attempt gets the
// full timeout; ctx bounds the whole sequence.
func (r *Retrier) Do(ctx context.Context, req domain.Request, timeout time.Duration) (json.RawMessage, error) {
	bo := backoff.NewExponentialBackOff()
	if r.InitialInterval > 0 {
		bo.InitialInterval = r.InitialInterval
	}

	var payload json.RawMessage
	op := func() error {
		var err error
		payload, err = r.Sender.SendRequest(ctx, req, timeout)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, r.MaxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func retryable(err error) bool {
	if errors.Is(err, domain.ErrRequestTimeout) {
		return true
	}
	var te *domain.TransportError
	return errors.As(err, &te)
}
