package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/request"
)

type requestRow struct {
	sem chan struct{}
	r   request.Request
}

// RequestStore implements request.Repository in memory.
type RequestStore struct {
	mu       sync.Mutex
	wait     time.Duration
	rows     map[uuid.UUID]*requestRow
	nextID   int64
	inserted []uuid.UUID
}

// NewRequestStore creates an empty request store.
func NewRequestStore() *RequestStore {
	return &RequestStore{wait: DefaultLockWait, rows: map[uuid.UUID]*requestRow{}}
}

// SetLockWait overrides the bounded lock wait, for contention tests.
func (s *RequestStore) SetLockWait(d time.Duration) { s.wait = d }

func (s *RequestStore) Create(_ context.Context, r *request.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	copied := *r
	s.rows[r.RequestID] = &requestRow{sem: make(chan struct{}, 1), r: copied}
	s.inserted = append(s.inserted, r.RequestID)
	return nil
}

func (s *RequestStore) GetByID(_ context.Context, requestID uuid.UUID) (*request.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[requestID]
	if !ok {
		return nil, nil
	}
	copied := row.r
	return &copied, nil
}

func (s *RequestStore) List(_ context.Context, status *request.Status, limit, offset int) ([]*request.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, len(s.inserted))
	copy(ids, s.inserted)
	sort.SliceStable(ids, func(i, j int) bool {
		return s.rows[ids[i]].r.CreatedAt.After(s.rows[ids[j]].r.CreatedAt)
	})
	var out []*request.Request
	skipped := 0
	for _, id := range ids {
		row := s.rows[id]
		if status != nil && row.r.Status != *status {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		copied := row.r
		out = append(out, &copied)
	}
	return out, nil
}

func (s *RequestStore) ListOverdue(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for _, id := range s.inserted {
		row := s.rows[id]
		if row.r.Status != request.StatusSent || row.r.ExpiresAt == nil {
			continue
		}
		if row.r.ExpiresAt.Before(now) {
			out = append(out, id)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *RequestStore) SetMeetingTime(ctx context.Context, requestID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[requestID]
	if !ok {
		return lifecycle.ErrNotFound
	}
	prev := row.r.MeetingAt
	recordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		row.r.MeetingAt = prev
	})
	at = at.UTC()
	row.r.MeetingAt = &at
	return nil
}

func (s *RequestStore) Lock(ctx context.Context, id uuid.UUID) (*lifecycle.Row, error) {
	s.mu.Lock()
	row, ok := s.rows[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	if err := lockSem(ctx, row.sem, s.wait); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	owner := row.r.OwnerID
	return &lifecycle.Row{
		ID:             row.r.RequestID,
		Status:         string(row.r.Status),
		Version:        row.r.Version,
		OwnerID:        row.r.RequesterID,
		CounterpartyID: &owner,
	}, nil
}

func (s *RequestStore) Commit(ctx context.Context, id uuid.UUID, fromVersion int64, toStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return lifecycle.ErrNotFound
	}
	if row.r.Version != fromVersion {
		return lifecycle.ErrVersionConflict
	}
	prevStatus, prevVersion, prevUpdated := row.r.Status, row.r.Version, row.r.UpdatedAt
	recordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		row.r.Status, row.r.Version, row.r.UpdatedAt = prevStatus, prevVersion, prevUpdated
	})
	row.r.Status = request.Status(toStatus)
	row.r.Version++
	row.r.UpdatedAt = time.Now().UTC()
	return nil
}
