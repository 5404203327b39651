// Package idempotency implements the claim/complete lifecycle around the
// atomic store: validate the client key, claim or classify the existing
// record, and cache only outcomes worth replaying.
package idempotency

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/market-hub/market-hub/internal/domain/idempotency"
	"github.com/market-hub/market-hub/internal/infrastructure/metrics"
)

// DefaultTTL is how long a completed record is replayable.
const DefaultTTL = 24 * time.Hour

// ClaimTTL bounds how long a processing sentinel may sit unclaimed before the
// sweep treats it as abandoned.
const ClaimTTL = 5 * time.Minute

// Outcome classifies a Claim call.
type Outcome int

const (
	// OutcomeClaimed means the caller owns the key and must execute the
	// operation, then call Complete or Abandon.
	OutcomeClaimed Outcome = iota
	// OutcomeReplayed means a cached response was returned.
	OutcomeReplayed
)

// ClaimResult is the verdict of one Claim call.
type ClaimResult struct {
	Outcome Outcome
	// Status and Body are set when Outcome is OutcomeReplayed.
	Status int
	Body   []byte
}

// Service coordinates idempotency claims against the atomic store.
type Service struct {
	store   idempotency.Store
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// NewService creates an idempotency service with the default replay TTL.
func NewService(store idempotency.Store, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		ttl:     DefaultTTL,
		metrics: m,
		logger:  logger.With().Str("service", "idempotency").Logger(),
		now:     time.Now,
	}
}

// SetTTL overrides the replay TTL for completed records.
func (s *Service) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		s.ttl = ttl
	}
}

// Claim resolves one (actor, key, request) triple:
//
//   - fresh key: a processing sentinel is claimed and the caller executes
//   - completed record, same fingerprint: the cached response is replayed
//   - completed record, different fingerprint: ErrFingerprintMismatch
//   - processing record: ErrInProgress
//   - expired record: deleted and re-claimed
func (s *Service) Claim(ctx context.Context, actorID uuid.UUID, clientKey, method, path string, body []byte) (string, *ClaimResult, error) {
	key, err := idempotency.CompositeKey(actorID, clientKey)
	if err != nil {
		return "", nil, err
	}
	fp := idempotency.Fingerprint(method, path, body)

	// At most one retry: an expired record is deleted and the claim re-run.
	// A second collision means a concurrent claimer won; classify theirs.
	for attempt := 0; attempt < 2; attempt++ {
		now := s.now().UTC()
		rec := &idempotency.Record{
			CompositeKey: key,
			Fingerprint:  fp,
			Status:       idempotency.StatusProcessing,
			ExpiresAt:    now.Add(ClaimTTL),
			CreatedAt:    now,
		}
		claimed, existing, err := s.store.Claim(ctx, rec)
		if err != nil {
			return "", nil, fmt.Errorf("claim idempotency key: %w", err)
		}
		if claimed {
			s.metrics.Idempotency.WithLabelValues(metrics.IdemClaimed).Inc()
			return key, &ClaimResult{Outcome: OutcomeClaimed}, nil
		}

		if existing.Expired(now) && attempt == 0 {
			if err := s.store.Delete(ctx, key); err != nil {
				return "", nil, fmt.Errorf("evict expired idempotency record: %w", err)
			}
			continue
		}
		if subtle.ConstantTimeCompare(existing.Fingerprint, fp) != 1 {
			s.metrics.Idempotency.WithLabelValues(metrics.IdemMismatch).Inc()
			return "", nil, idempotency.ErrFingerprintMismatch
		}
		if existing.Processing() {
			s.metrics.Idempotency.WithLabelValues(metrics.IdemProcessing).Inc()
			return "", nil, idempotency.ErrInProgress
		}
		s.metrics.Idempotency.WithLabelValues(metrics.IdemReplayed).Inc()
		s.logger.Debug().Str("key", key).Int("status", existing.Status).Msg("replaying cached response")
		return key, &ClaimResult{Outcome: OutcomeReplayed, Status: existing.Status, Body: existing.Body}, nil
	}
	return "", nil, idempotency.ErrInProgress
}

// Complete finalizes a claimed key with the operation's response. Server
// faults are never cached: the sentinel is deleted so a retry re-executes.
func (s *Service) Complete(ctx context.Context, key string, status int, body []byte) error {
	if status >= http.StatusInternalServerError {
		return s.Abandon(ctx, key)
	}
	expiresAt := s.now().UTC().Add(s.ttl)
	if err := s.store.Complete(ctx, key, status, body, expiresAt); err != nil {
		return fmt.Errorf("complete idempotency record: %w", err)
	}
	return nil
}

// Abandon releases a claimed key without caching anything.
func (s *Service) Abandon(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("abandon idempotency record: %w", err)
	}
	return nil
}

// Sweep removes expired records. Runs off the request path on a timer.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	removed, err := s.store.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep idempotency records: %w", err)
	}
	if removed > 0 {
		s.logger.Info().Int64("removed", removed).Msg("swept expired idempotency records")
	}
	return removed, nil
}
