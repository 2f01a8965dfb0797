package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 2 * time.Hour

// Store keeps sessions in memory and evicts idle ones. Contents are lost
// on restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	done     chan struct{}
	once     sync.Once
}

// NewStore creates a store that evicts sessions idle for longer than ttl.
// Eviction runs in the background until Close is called.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go s.cleanup(cleanupInterval(ttl))
	return s
}

func cleanupInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// Create registers a new session with a random ID.
func (s *Store) Create() *Session {
	sess := New(uuid.New().String())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session with id.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// GetOrCreate returns the session with id, creating a new one when id is
// unknown. The boolean reports whether a session was created.
func (s *Store) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if sess, err := s.Get(id); err == nil {
			return sess, false
		}
	}
	return s.Create(), true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops background eviction.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

// EvictIdle removes sessions idle since before now-ttl. Busy sessions are
// kept. It returns the number of sessions removed.
func (s *Store) EvictIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		last, busy := sess.idleSince()
		if !busy && now.Sub(last) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.EvictIdle(now)
		}
	}
}
