package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/dispute"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
)

type disputeRow struct {
	sem chan struct{}
	d   dispute.Dispute
}

// DisputeStore implements dispute.Repository in memory.
type DisputeStore struct {
	mu       sync.Mutex
	wait     time.Duration
	rows     map[uuid.UUID]*disputeRow
	nextID   int64
	inserted []uuid.UUID
}

// NewDisputeStore creates an empty dispute store.
func NewDisputeStore() *DisputeStore {
	return &DisputeStore{wait: DefaultLockWait, rows: map[uuid.UUID]*disputeRow{}}
}

func (s *DisputeStore) Create(_ context.Context, d *dispute.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	d.ID = s.nextID
	copied := *d
	s.rows[d.DisputeID] = &disputeRow{sem: make(chan struct{}, 1), d: copied}
	s.inserted = append(s.inserted, d.DisputeID)
	return nil
}

func (s *DisputeStore) GetByID(_ context.Context, disputeID uuid.UUID) (*dispute.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[disputeID]
	if !ok {
		return nil, nil
	}
	copied := row.d
	return &copied, nil
}

func (s *DisputeStore) List(_ context.Context, status *dispute.Status, limit, offset int) ([]*dispute.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, len(s.inserted))
	copy(ids, s.inserted)
	sort.SliceStable(ids, func(i, j int) bool {
		return s.rows[ids[i]].d.CreatedAt.After(s.rows[ids[j]].d.CreatedAt)
	})
	var out []*dispute.Dispute
	skipped := 0
	for _, id := range ids {
		row := s.rows[id]
		if status != nil && row.d.Status != *status {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		copied := row.d
		out = append(out, &copied)
	}
	return out, nil
}

func (s *DisputeStore) SetResolution(ctx context.Context, disputeID uuid.UUID, resolution string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[disputeID]
	if !ok {
		return lifecycle.ErrNotFound
	}
	prev := row.d.Resolution
	recordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		row.d.Resolution = prev
	})
	row.d.Resolution = &resolution
	return nil
}

func (s *DisputeStore) Lock(ctx context.Context, id uuid.UUID) (*lifecycle.Row, error) {
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
	respondent := row.d.RespondentID
	return &lifecycle.Row{
		ID:             row.d.DisputeID,
		Status:         string(row.d.Status),
		Version:        row.d.Version,
		OwnerID:        row.d.OpenedBy,
		CounterpartyID: &respondent,
	}, nil
}

func (s *DisputeStore) Commit(ctx context.Context, id uuid.UUID, fromVersion int64, toStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return lifecycle.ErrNotFound
	}
	if row.d.Version != fromVersion {
		return lifecycle.ErrVersionConflict
	}
	prevStatus, prevVersion, prevUpdated := row.d.Status, row.d.Version, row.d.UpdatedAt
	recordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		row.d.Status, row.d.Version, row.d.UpdatedAt = prevStatus, prevVersion, prevUpdated
	})
	row.d.Status = dispute.Status(toStatus)
	row.d.Version++
	row.d.UpdatedAt = time.Now().UTC()
	return nil
}
