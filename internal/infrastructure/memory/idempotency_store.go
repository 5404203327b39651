package memory

import (
	"context"
	"sync"
	"time"

	"github.com/market-hub/market-hub/internal/domain/idempotency"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
)

// IdempotencyStore implements idempotency.Store with a mutex-guarded map.
// Claim is atomic under the mutex: check-and-insert happens as one step.
type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]idempotency.Record
}

// NewIdempotencyStore creates an empty idempotency store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{records: map[string]idempotency.Record{}}
}

func (s *IdempotencyStore) Claim(_ context.Context, rec *idempotency.Record) (bool, *idempotency.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[rec.CompositeKey]; ok {
		copied := existing
		return false, &copied, nil
	}
	s.records[rec.CompositeKey] = *rec
	return true, nil, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, compositeKey string, status int, body []byte, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[compositeKey]
	if !ok {
		return lifecycle.ErrNotFound
	}
	rec.Status = status
	rec.Body = append([]byte(nil), body...)
	rec.ExpiresAt = expiresAt
	s.records[compositeKey] = rec
	return nil
}

func (s *IdempotencyStore) Delete(_ context.Context, compositeKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, compositeKey)
	return nil
}

func (s *IdempotencyStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for key, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of live records, for tests.
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
