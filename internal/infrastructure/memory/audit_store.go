package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/audit"
)

// AuditStore implements audit.Repository as an append-only slice.
type AuditStore struct {
	mu      sync.Mutex
	entries []audit.Entry
	nextID  int64
}

// NewAuditStore creates an empty audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

func (s *AuditStore) Create(ctx context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	copied := *e
	s.entries = append(s.entries, copied)
	idx := len(s.entries) - 1
	recordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.entries) {
			s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
		}
	})
	return nil
}

func (s *AuditStore) ListByEntity(_ context.Context, entityType string, entityID uuid.UUID, limit int) ([]*audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*audit.Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.EntityType != entityType || e.EntityID != entityID {
			continue
		}
		copied := e
		out = append(out, &copied)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// All returns every entry in insertion order, for tests.
func (s *AuditStore) All() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
