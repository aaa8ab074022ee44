package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fpc-portal/internal/event"
	"fpc-portal/internal/model"
)

// AuditStore persists audit entries.
type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Recent(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, error)
}

// AuditService records every bus event as an audit entry.
type AuditService struct {
	store AuditStore
	bus   event.Bus

	mu          sync.Mutex
	unsubscribe func()
	done        chan struct{}
}

func NewAuditService(store AuditStore, bus event.Bus) *AuditService {
	return &AuditService{store: store, bus: bus}
}

// Start subscribes to the bus and records events until Stop is called.
func (s *AuditService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return
	}

	events, unsubscribe := s.bus.Subscribe()
	s.unsubscribe = unsubscribe
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		for e := range events {
			s.record(e)
		}
	}(s.done)
}

// Stop unsubscribes and waits until queued events are recorded or ctx ends.
func (s *AuditService) Stop(ctx context.Context) {
	s.mu.Lock()
	unsubscribe, done := s.unsubscribe, s.done
	s.unsubscribe, s.done = nil, nil
	s.mu.Unlock()

	if unsubscribe == nil {
		return
	}
	unsubscribe()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (s *AuditService) record(e event.Event) {
	occurredAt, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		occurredAt = time.Now().UTC()
	}

	entry := model.AuditEntry{
		EventID:    e.ID,
		Action:     string(e.Type),
		OccurredAt: occurredAt,
		ActorEmail: e.ActorID,
		Payload:    e.Payload,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.Log(ctx, entry); err != nil {
		slog.Error("audit entry not recorded", "action", entry.Action, "event_id", entry.EventID, "error", err)
	}
}

func (s *AuditService) Recent(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, error) {
	return s.store.Recent(ctx, query)
}

// MemoryAuditStore keeps the newest entries in a fixed-size ring and mirrors
// each one to the structured log. It backs audit when no database is
// configured.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	entries []model.AuditEntry
	next    int
	full    bool
}

func NewMemoryAuditStore(capacity int) *MemoryAuditStore {
	if capacity <= 0 {
		capacity = 200
	}
	return &MemoryAuditStore{entries: make([]model.AuditEntry, capacity)}
}

func (m *MemoryAuditStore) Log(_ context.Context, entry model.AuditEntry) error {
	slog.Info("audit", "action", entry.Action, "actor", entry.ActorEmail, "event_id", entry.EventID, "payload", entry.Payload)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[m.next] = entry
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *MemoryAuditStore) Recent(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}
	action := strings.TrimSpace(query.Action)
	actor := strings.TrimSpace(query.ActorEmail)

	m.mu.RLock()
	defer m.mu.RUnlock()

	count := m.next
	if m.full {
		count = len(m.entries)
	}

	out := make([]model.AuditEntry, 0, min(limit, count))
	for i := 0; i < count && len(out) < limit; i++ {
		idx := (m.next - 1 - i + len(m.entries)) % len(m.entries)
		e := m.entries[idx]
		if action != "" && !strings.EqualFold(e.Action, action) {
			continue
		}
		if actor != "" && !strings.EqualFold(e.ActorEmail, actor) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
