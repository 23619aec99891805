package tooling

import (
	"sync"
	"time"
)

// Pending correlates deferred tool calls with their later completions. It
// is a keyed map, so several calls can be outstanding at once; entries
// expire so an abandoned camera never leaks a handle.
type Pending struct {
	mu      sync.Mutex
	ttl     time.Duration
	waiting map[string]pendingEntry
}

type pendingEntry struct {
	complete func(Result)
	expires  time.Time
}

// NewPending returns a Pending map with the given entry TTL.
func NewPending(ttl time.Duration) *Pending {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Pending{ttl: ttl, waiting: make(map[string]pendingEntry)}
}

// Register stores a completion handle for a tool call ID.
func (p *Pending) Register(id string, complete func(Result)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waiting[id] = pendingEntry{complete: complete, expires: time.Now().Add(p.ttl)}
}

// Complete resolves the call if it is still outstanding and unexpired.
func (p *Pending) Complete(id string, result Result) bool {
	p.mu.Lock()
	entry, ok := p.waiting[id]
	if ok {
		delete(p.waiting, id)
	}
	p.mu.Unlock()

	if !ok || time.Now().After(entry.expires) || entry.complete == nil {
		return false
	}
	entry.complete(result)
	return true
}

// Outstanding returns how many unexpired calls are waiting.
func (p *Pending) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	count := 0
	for id, entry := range p.waiting {
		if now.After(entry.expires) {
			delete(p.waiting, id)
			continue
		}
		count++
	}
	return count
}
