// Package notify implements the per-session notification relay: an
// in-memory, newest-first, time-bounded sequence of unlock events feeding
// transient UI toasts. Nothing here is persisted; a relay lives and dies with
// one client session and the engine's durable state never depends on it.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/menucraft/go-badge-backend/internal/domain"
)

// DefaultTTL is how long an event stays visible unless dismissed first.
const DefaultTTL = 5 * time.Second

// DefaultMax bounds the sequence length; the oldest events are dropped when
// a burst of unlocks exceeds it.
const DefaultMax = 20

// Notification is one ephemeral unlock event. It carries a snapshot of the
// badge rather than a reference so the payload stays stable even if the
// process later swaps catalogs.
type Notification struct {
	ID        string       `json:"id"`
	Badge     domain.Badge `json:"badge"`
	CreatedAt time.Time    `json:"created_at"`
}

// Relay is a bounded, TTL-governed event queue. Expiry is lazy: expired
// events are pruned whenever the relay is touched, which keeps the type free
// of timers and makes it trivial to drive with a fake clock in tests.
//
// All methods are safe for concurrent use.
type Relay struct {
	mu     sync.Mutex
	events []Notification // newest first
	ttl    time.Duration
	max    int
	now    func() time.Time
}

// NewRelay constructs a relay with the given TTL and maximum length.
// Non-positive arguments fall back to the package defaults.
func NewRelay(ttl time.Duration, max int) *Relay {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if max <= 0 {
		max = DefaultMax
	}
	return &Relay{ttl: ttl, max: max, now: func() time.Time { return time.Now().UTC() }}
}

// Add appends a new event for the badge at the head of the sequence and
// returns it. The event expires TTL after creation or on Remove, whichever
// comes first.
func (r *Relay) Add(b domain.Badge) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Badge:     b,
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()

	r.events = append([]Notification{n}, r.events...)
	if len(r.events) > r.max {
		r.events = r.events[:r.max]
	}
	return n
}

// Remove dismisses an event by id. Removing an unknown or already-expired id
// is a no-op: manual dismissal racing automatic expiry is harmless by design.
func (r *Relay) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()

	for i, n := range r.events {
		if n.ID == id {
			r.events = append(r.events[:i], r.events[i+1:]...)
			return
		}
	}
}

// Events returns the live events, newest first. The returned slice is a copy
// safe for the caller to range over while the relay keeps moving.
func (r *Relay) Events() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()

	out := make([]Notification, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of live (unexpired) events.
func (r *Relay) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	return len(r.events)
}

// pruneLocked drops expired events. Caller must hold mu.
func (r *Relay) pruneLocked() {
	cutoff := r.now().Add(-r.ttl)
	live := r.events[:0]
	for _, n := range r.events {
		if n.CreatedAt.After(cutoff) {
			live = append(live, n)
		}
	}
	r.events = live
}
