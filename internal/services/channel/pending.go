package channel

import (
	"encoding/json"
	"sync"
	"time"

	"vaultbridge/internal/domain"
)

// result carries a decrypted response payload or the request's failure.
// Exactly one result is delivered per registered request.
type result struct {
	payload json.RawMessage
	err     error
}

type pendingRequest struct {
	ch    chan result
	timer *time.Timer
}

// pendingTable correlates in-flight request ids with their completions.
// The read loop, timeout timers and callers race on it freely; every
// access is mutex-guarded. Invariant: at most one entry per request id,
// and whoever removes the entry is the one who delivers its result.
type pendingTable struct {
	mu   sync.Mutex
	reqs map[string]*pendingRequest
}

func newPendingTable() *pendingTable {
	return &pendingTable{reqs: make(map[string]*pendingRequest)}
}

// add registers id and arms its timeout. The returned channel receives
// exactly one result.
func (p *pendingTable) add(id string, timeout time.Duration) <-chan result {
	p.mu.Lock()
	defer p.mu.Unlock()
	pr := &pendingRequest{ch: make(chan result, 1)}
	pr.timer = time.AfterFunc(timeout, func() {
		p.fail(id, domain.ErrRequestTimeout)
	})
	p.reqs[id] = pr
	return pr.ch
}

// resolve completes id with payload. It reports false for unknown ids —
// stray or duplicate responses — which callers drop silently.
func (p *pendingTable) resolve(id string, payload json.RawMessage) bool {
	pr := p.take(id)
	if pr == nil {
		return false
	}
	pr.ch <- result{payload: payload}
	return true
}

// fail completes id with err.
func (p *pendingTable) fail(id string, err error) bool {
	pr := p.take(id)
	if pr == nil {
		return false
	}
	pr.ch <- result{err: err}
	return true
}

// failAll rejects every outstanding request, used when the channel
// disconnects.
func (p *pendingTable) failAll(err error) {
	p.mu.Lock()
	reqs := p.reqs
	p.reqs = make(map[string]*pendingRequest)
	p.mu.Unlock()

	for _, pr := range reqs {
		pr.timer.Stop()
		pr.ch <- result{err: err}
	}
}

// take removes and returns the entry for id, stopping its timer.
func (p *pendingTable) take(id string) *pendingRequest {
	p.mu.Lock()
	pr, ok := p.reqs[id]
	if ok {
		delete(p.reqs, id)
	}
	p.mu.Unlock()
	if !ok {
		return nil
	}
	pr.timer.Stop()
	return pr
}

func (p *pendingTable) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.reqs)
}
