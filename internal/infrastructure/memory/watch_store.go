package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/watch"
)

// WatchStore implements watch.Repository in memory.
type WatchStore struct {
	mu       sync.Mutex
	rules    map[uuid.UUID]watch.Rule
	inserted []uuid.UUID
	nextID   int64
}

// NewWatchStore creates an empty watch rule store.
func NewWatchStore() *WatchStore {
	return &WatchStore{rules: map[uuid.UUID]watch.Rule{}}
}

func (s *WatchStore) Create(_ context.Context, r *watch.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	s.rules[r.RuleID] = *r
	s.inserted = append(s.inserted, r.RuleID)
	return nil
}

func (s *WatchStore) GetByID(_ context.Context, ruleID uuid.UUID) (*watch.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[ruleID]
	if !ok {
		return nil, nil
	}
	copied := r
	return &copied, nil
}

func (s *WatchStore) ListActive(_ context.Context) ([]*watch.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*watch.Rule
	for _, id := range s.inserted {
		r := s.rules[id]
		if r.Status != watch.StatusActive {
			continue
		}
		copied := r
		out = append(out, &copied)
	}
	return out, nil
}

func (s *WatchStore) List(_ context.Context, limit, offset int) ([]*watch.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*watch.Rule
	skipped := 0
	for _, id := range s.inserted {
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		r := s.rules[id]
		copied := r
		out = append(out, &copied)
	}
	return out, nil
}

func (s *WatchStore) UpdateStatus(_ context.Context, ruleID uuid.UUID, status watch.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[ruleID]
	if !ok {
		return lifecycle.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	s.rules[ruleID] = r
	return nil
}
