package channel

import (
	"sync"

	"vaultbridge/internal/domain"
)

// Snapshot is an immutable view of the channel's pairing state handed to
// subscribers and returned by State.
type Snapshot struct {
	State domain.State
	// Err is the last channel-level error: a transport failure that
	// dropped the connection, or an explicit error message from the peer.
	Err error
	// ServerPublicKey is the peer's long-term key from the handshake,
	// nil until a handshake response arrives.
	ServerPublicKey []byte
}

// stateTracker owns the connection state and the subscriber list. The
// subscriber list is an explicit map owned here; notification iterates a
// copy taken under the lock, so a callback can subscribe, unsubscribe or
// send without deadlocking, and never observes mutation mid-iteration.
type stateTracker struct {
	mu              sync.Mutex
	state           domain.State
	err             error
	serverPublicKey []byte

	nextID int
	subs   map[int]func(Snapshot)
}

func newStateTracker() *stateTracker {
	return &stateTracker{
		state: domain.StateDisconnected,
		subs:  make(map[int]func(Snapshot)),
	}
}

func (t *stateTracker) snapshotLocked() Snapshot {
	var key []byte
	if t.serverPublicKey != nil {
		key = append([]byte(nil), t.serverPublicKey...)
	}
	return Snapshot{State: t.state, Err: t.err, ServerPublicKey: key}
}

func (t *stateTracker) snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// subscribe registers fn and replays the current state to it immediately,
// then invokes it on every subsequent transition. The returned function
// cancels the subscription.
func (t *stateTracker) subscribe(fn func(Snapshot)) (cancel func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	snap := t.snapshotLocked()
	t.mu.Unlock()

	fn(snap)
	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// apply mutates the tracked state under the lock and notifies subscribers
// over the resulting snapshot. mutate reports whether anything changed;
// unchanged state produces no notification.
func (t *stateTracker) apply(mutate func(*stateTracker) bool) {
	t.mu.Lock()
	if !mutate(t) {
		t.mu.Unlock()
		return
	}
	snap := t.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// toConnecting marks the start of an explicit connect attempt.
func (t *stateTracker) toConnecting() {
	t.apply(func(t *stateTracker) bool {
		t.state = domain.StateConnecting
		t.err = nil
		return true
	})
}

// applyHandshake records the peer key and the handshake verdict.
func (t *stateTracker) applyHandshake(serverPublicKey []byte, verdict domain.State) {
	t.apply(func(t *stateTracker) bool {
		t.serverPublicKey = append([]byte(nil), serverPublicKey...)
		t.state = verdict
		return true
	})
}

// applyAuthorizationUpdate transitions out of pending_approval. Updates
// arriving in any other state are ignored.
func (t *stateTracker) applyAuthorizationUpdate(verdict domain.State) {
	t.apply(func(t *stateTracker) bool {
		if t.state != domain.StatePendingApproval {
			return false
		}
		t.state = verdict
		return true
	})
}

// reset returns to disconnected and clears the peer key. err is recorded
// only for the error path; a clean close leaves no error behind.
func (t *stateTracker) reset(err error) {
	t.apply(func(t *stateTracker) bool {
		if t.state == domain.StateDisconnected && t.serverPublicKey == nil && err == nil {
			return false
		}
		t.state = domain.StateDisconnected
		t.serverPublicKey = nil
		t.err = err
		return true
	})
}

// recordServerError surfaces an explicit peer error as channel-level
// error state without changing the pairing state.
func (t *stateTracker) recordServerError(err error) {
	t.apply(func(t *stateTracker) bool {
		t.err = err
		return true
	})
}

// serverKey returns the peer public key, nil before the handshake.
func (t *stateTracker) serverKey() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.serverPublicKey == nil {
		return nil
	}
	return append([]byte(nil), t.serverPublicKey...)
}
