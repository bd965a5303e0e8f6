package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	values    map[string]string
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, sid, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(sid)
	if entry == nil {
		return "", nil
	}
	return entry.values[key], nil
}

func (s *MemoryStore) Set(ctx context.Context, sid, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(sid)
	if entry == nil {
		entry = &memoryEntry{values: make(map[string]string)}
		s.sessions[sid] = entry
	}
	entry.values[key] = value
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sid string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sid]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(entry.values, k)
	}
	if len(entry.values) == 0 {
		delete(s.sessions, sid)
	}
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for sid, entry := range s.sessions {
		if s.expired(entry) {
			delete(s.sessions, sid)
			removed++
		}
	}
	return removed
}

// live returns the entry for sid, dropping it when expired. Caller holds mu.
func (s *MemoryStore) live(sid string) *memoryEntry {
	entry, ok := s.sessions[sid]
	if !ok {
		return nil
	}
	if s.expired(entry) {
		delete(s.sessions, sid)
		return nil
	}
	return entry
}

func (s *MemoryStore) expired(entry *memoryEntry) bool {
	return !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt)
}
