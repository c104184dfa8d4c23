package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	values    map[string]any
	expiresAt time.Time
}

// MemoryStore keeps session state in process memory.
// Values are stored as-is, without serialization.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Cleaner = (*MemoryStore)(nil)
)

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      cfg.TTL,
		now:      time.Now,
	}
}

// Get returns the value stored under key for the session.
func (s *MemoryStore) Get(_ context.Context, sessionID, key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[sessionID]
	if !ok || s.expired(e) {
		return nil, nil
	}
	return e.values[key], nil
}

// Set stores value under key, or deletes key when value is nil.
func (s *MemoryStore) Set(_ context.Context, sessionID, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok || s.expired(e) {
		if value == nil {
			delete(s.sessions, sessionID)
			return nil
		}
		e = &memoryEntry{values: make(map[string]any)}
		s.sessions[sessionID] = e
	}

	if value == nil {
		delete(e.values, key)
	} else {
		e.values[key] = value
	}

	if len(e.values) == 0 {
		delete(s.sessions, sessionID)
		return nil
	}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	return nil
}

// DeleteExpired removes expired sessions.
func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, e := range s.sessions {
		if s.expired(e) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.sessions {
		if !s.expired(e) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) expired(e *memoryEntry) bool {
	return !e.expiresAt.IsZero() && s.now().After(e.expiresAt)
}
