package session

import (
	"context"
	"sync"
	"time"
)

// Durable storage keys. A session never holds anything else.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Storage persists per-session key/value pairs. Implementations must be safe
// for concurrent use.
type Storage interface {
	// Get returns the value under key; ok is false when it is absent.
	Get(ctx context.Context, sessionID string, key string) (value string, ok bool, err error)
	// Put writes every entry atomically.
	Put(ctx context.Context, sessionID string, entries map[string]string) error
	Clear(ctx context.Context, sessionID string) error
	// Touch marks the session as active now.
	Touch(ctx context.Context, sessionID string) error
	// PurgeIdle removes sessions not touched since before and reports how
	// many were removed.
	PurgeIdle(ctx context.Context, before time.Time) (int64, error)
}

type memoryEntry struct {
	values    map[string]string
	updatedAt time.Time
}

// MemoryStorage keeps sessions in process memory. Sessions are lost on
// restart.
type MemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	now      func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[string]*memoryEntry),
		now:      time.Now,
	}
}

func (s *MemoryStorage) Get(_ context.Context, sessionID string, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return "", false, nil
	}
	value, ok := entry.values[key]
	return value, ok, nil
}

func (s *MemoryStorage) Put(_ context.Context, sessionID string, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		entry = &memoryEntry{values: make(map[string]string, len(entries))}
		s.sessions[sessionID] = entry
	}
	for k, v := range entries {
		entry.values[k] = v
	}
	entry.updatedAt = s.now()
	return nil
}

func (s *MemoryStorage) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStorage) Touch(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.sessions[sessionID]; ok {
		entry.updatedAt = s.now()
	}
	return nil
}

func (s *MemoryStorage) PurgeIdle(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for id, entry := range s.sessions {
		if entry.updatedAt.Before(before) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged, nil
}

// Len reports how many sessions are held.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
