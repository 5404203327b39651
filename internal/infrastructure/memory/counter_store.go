package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/policy"
)

// CounterStore serves behavioral counters from seeded values. The postgres
// implementation aggregates them from live rows; here tests set them directly.
type CounterStore struct {
	mu           sync.Mutex
	trust        map[uuid.UUID]policy.TrustCounters
	fraud        map[uuid.UUID]policy.FraudCounters
	restrictions map[uuid.UUID]policy.RestrictionInput
}

// NewCounterStore creates an empty counter store.
func NewCounterStore() *CounterStore {
	return &CounterStore{
		trust:        map[uuid.UUID]policy.TrustCounters{},
		fraud:        map[uuid.UUID]policy.FraudCounters{},
		restrictions: map[uuid.UUID]policy.RestrictionInput{},
	}
}

// SeedTrust sets the trust counters for a user.
func (s *CounterStore) SeedTrust(userID uuid.UUID, c policy.TrustCounters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trust[userID] = c
}

// SeedFraud sets the fraud counters for a user.
func (s *CounterStore) SeedFraud(userID uuid.UUID, c policy.FraudCounters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fraud[userID] = c
}

// SeedRestriction sets the restriction facts for a user. TrustStatus is
// ignored; the policy service derives it from the trust counters.
func (s *CounterStore) SeedRestriction(userID uuid.UUID, activeDisputes float64, adminOverride bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restrictions[userID] = policy.RestrictionInput{ActiveDisputes: activeDisputes, AdminOverride: adminOverride}
}

func (s *CounterStore) TrustCounters(_ context.Context, userID uuid.UUID) (policy.TrustCounters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trust[userID], nil
}

func (s *CounterStore) FraudCounters(_ context.Context, userID uuid.UUID) (policy.FraudCounters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fraud[userID], nil
}

func (s *CounterStore) RestrictionFacts(_ context.Context, userID uuid.UUID) (activeDisputes float64, adminOverride bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := s.restrictions[userID]
	return in.ActiveDisputes, in.AdminOverride, nil
}
