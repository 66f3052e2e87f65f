// Package session tracks live client sessions. A session owns exactly one
// notification relay and one poller; both are created on session start and
// torn down on session end. Durable state (progress, ledger) is shared across
// a user's sessions, so two tabs of the same user get two sessions here while
// the ledger still guarantees each badge unlocks once.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/menucraft/go-badge-backend/internal/notify"
	"github.com/menucraft/go-badge-backend/internal/poller"
)

// ErrSessionNotFound indicates an unknown or already-ended session id.
var ErrSessionNotFound = errors.New("session not found")

// Session is one live client session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	StartedAt time.Time `json:"started_at"`

	Relay *notify.Relay `json:"-"`
	poll  *poller.Poller
}

// Options configures the per-session components a Manager creates.
type Options struct {
	// PollInterval is the evaluation period (default poller.DefaultInterval).
	PollInterval time.Duration
	// NotificationTTL is the relay event lifetime (default notify.DefaultTTL).
	NotificationTTL time.Duration
	// NotificationMax bounds the relay length (default notify.DefaultMax).
	NotificationMax int
}

// Manager owns the live sessions of this process. Sessions are created on
// demand and evicted explicitly (sign-out / teardown) or all at once on
// shutdown. The map is guarded by a mutex, same shape as the rate limiter's
// per-key buckets.
type Manager struct {
	check poller.CheckFunc
	opts  Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager constructs a Manager that starts pollers driving check.
func NewManager(check poller.CheckFunc, opts Options) *Manager {
	return &Manager{
		check:    check,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Start creates a session for userID, wires its relay, and starts its
// poller (which evaluates immediately).
func (m *Manager) Start(userID string) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartedAt: time.Now().UTC(),
		Relay:     notify.NewRelay(m.opts.NotificationTTL, m.opts.NotificationMax),
	}
	s.poll = poller.New(userID, m.opts.PollInterval, m.check, s.Relay)
	if err := s.poll.Start(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns a live session or ErrSessionNotFound.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// End tears a session down: the poller's timer is cancelled (in-flight
// evaluation results are discarded) and the relay is dropped with the
// session. Ending an unknown id returns ErrSessionNotFound.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.poll.Stop()
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown ends every live session. Used on process shutdown.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.poll.Stop()
	}
}
