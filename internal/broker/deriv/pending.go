package deriv

import (
	"fmt"
	"sync"
	"time"

	"candle-bot/internal/metrics"
)

type result struct {
	resp *Response
	err  error
}

type pendingRequest struct {
	id       uint64
	msgType  string
	deadline time.Time
	done     chan result
}

// pendingTable maps correlation ids to requests awaiting a response. Every
// entry leaves the table exactly once: on response, expiry, removal or close.
type pendingTable struct {
	mu      sync.Mutex
	entries map[uint64]*pendingRequest
	closed  error
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[uint64]*pendingRequest)}
}

func (t *pendingTable) add(p *pendingRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed != nil {
		return t.closed
	}
	if _, exists := t.entries[p.id]; exists {
		return fmt.Errorf("deriv: correlation id %d already pending", p.id)
	}
	t.entries[p.id] = p
	metrics.PendingRequests.Inc()
	return nil
}

// resolve delivers res to the request with the given id. It reports false
// when no such request is pending.
func (t *pendingTable) resolve(id uint64, res result) bool {
	p := t.take(id)
	if p == nil {
		return false
	}
	p.done <- res
	return true
}

func (t *pendingTable) take(id uint64) *pendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.entries[id]
	if !ok {
		return nil
	}
	delete(t.entries, id)
	metrics.PendingRequests.Dec()
	return p
}

// expire fails every request whose deadline is not after now.
func (t *pendingTable) expire(now time.Time) []*pendingRequest {
	t.mu.Lock()
	var expired []*pendingRequest
	for id, p := range t.entries {
		if !p.deadline.After(now) {
			delete(t.entries, id)
			expired = append(expired, p)
		}
	}
	t.mu.Unlock()

	for _, p := range expired {
		metrics.PendingRequests.Dec()
		metrics.ExpiredRequests.Inc()
		p.done <- result{err: fmt.Errorf("%w: %s req_id=%d", ErrRequestTimeout, p.msgType, p.id)}
	}
	return expired
}

// failAll rejects every pending request with err and refuses new ones.
func (t *pendingTable) failAll(err error) int {
	t.mu.Lock()
	if t.closed == nil {
		t.closed = err
	}
	entries := t.entries
	t.entries = make(map[uint64]*pendingRequest)
	t.mu.Unlock()

	for _, p := range entries {
		metrics.PendingRequests.Dec()
		p.done <- result{err: err}
	}
	return len(entries)
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
