package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/listing"
)

type listingRow struct {
	sem chan struct{}
	l   listing.Listing
}

// ListingStore implements listing.Repository in memory.
type ListingStore struct {
	mu       sync.Mutex
	wait     time.Duration
	rows     map[uuid.UUID]*listingRow
	nextID   int64
	inserted []uuid.UUID
}

// NewListingStore creates an empty listing store.
func NewListingStore() *ListingStore {
	return &ListingStore{wait: DefaultLockWait, rows: map[uuid.UUID]*listingRow{}}
}

// SetLockWait overrides the bounded lock wait, for contention tests.
func (s *ListingStore) SetLockWait(d time.Duration) { s.wait = d }

func (s *ListingStore) Create(_ context.Context, l *listing.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	l.ID = s.nextID
	copied := *l
	s.rows[l.ListingID] = &listingRow{sem: make(chan struct{}, 1), l: copied}
	s.inserted = append(s.inserted, l.ListingID)
	return nil
}

func (s *ListingStore) GetByID(_ context.Context, listingID uuid.UUID) (*listing.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[listingID]
	if !ok {
		return nil, nil
	}
	copied := row.l
	return &copied, nil
}

func (s *ListingStore) List(_ context.Context, status *listing.Status, limit, offset int) ([]*listing.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, len(s.inserted))
	copy(ids, s.inserted)
	sort.SliceStable(ids, func(i, j int) bool {
		return s.rows[ids[i]].l.CreatedAt.After(s.rows[ids[j]].l.CreatedAt)
	})
	var out []*listing.Listing
	skipped := 0
	for _, id := range ids {
		row := s.rows[id]
		if status != nil && row.l.Status != *status {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		copied := row.l
		out = append(out, &copied)
	}
	return out, nil
}

func (s *ListingStore) Lock(ctx context.Context, id uuid.UUID) (*lifecycle.Row, error) {
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
	return &lifecycle.Row{
		ID:      row.l.ListingID,
		Status:  string(row.l.Status),
		Version: row.l.Version,
		OwnerID: row.l.OwnerID,
	}, nil
}

func (s *ListingStore) Commit(ctx context.Context, id uuid.UUID, fromVersion int64, toStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return lifecycle.ErrNotFound
	}
	if row.l.Version != fromVersion {
		return lifecycle.ErrVersionConflict
	}
	prevStatus, prevVersion, prevUpdated := row.l.Status, row.l.Version, row.l.UpdatedAt
	recordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		row.l.Status, row.l.Version, row.l.UpdatedAt = prevStatus, prevVersion, prevUpdated
	})
	row.l.Status = listing.Status(toStatus)
	row.l.Version++
	row.l.UpdatedAt = time.Now().UTC()
	return nil
}
