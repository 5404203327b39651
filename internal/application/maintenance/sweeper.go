// Package maintenance runs the background sweeps: expiring overdue exchange
// requests through the normal transition path and evicting stale idempotency
// records. Sweeps are tick-driven and skip a tick rather than overlap.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/market-hub/market-hub/internal/application/transition"
	"github.com/market-hub/market-hub/internal/domain/actor"
	"github.com/market-hub/market-hub/internal/domain/fsm"
	"github.com/market-hub/market-hub/internal/domain/request"
	"github.com/market-hub/market-hub/internal/infrastructure/metrics"
)

const (
	// batchLimit bounds how many overdue requests one sweep picks up.
	batchLimit = 200
	// expireConcurrency bounds parallel EXPIRE transitions per sweep.
	expireConcurrency = 8
)

// IdempotencySweeper evicts expired idempotency records.
type IdempotencySweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Sweeper drives the periodic maintenance work.
type Sweeper struct {
	requests    request.Repository
	coordinator *transition.Coordinator
	idem        IdempotencySweeper
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	now         func() time.Time

	expireMu sync.Mutex
	idemMu   sync.Mutex
}

// NewSweeper creates a maintenance sweeper. coordinator must be the
// request-entity coordinator.
func NewSweeper(requests request.Repository, coordinator *transition.Coordinator, idem IdempotencySweeper, m *metrics.Metrics, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		requests:    requests,
		coordinator: coordinator,
		idem:        idem,
		metrics:     m,
		logger:      logger.With().Str("service", "maintenance").Logger(),
		now:         time.Now,
	}
}

// ExpireOverdueRequests transitions every overdue sent request through the
// normal EXPIRE path as the system actor, so expiry shows up in the audit log
// like any other transition. Races with a concurrent user response lose
// cleanly: the row lock serializes them and the loser's event is rejected by
// the machine.
func (s *Sweeper) ExpireOverdueRequests(ctx context.Context) (int, error) {
	if !s.expireMu.TryLock() {
		s.metrics.SweepSkipped.WithLabelValues("expire_requests").Inc()
		return 0, nil
	}
	defer s.expireMu.Unlock()

	start := s.now()
	ids, err := s.requests.ListOverdue(ctx, start.UTC(), batchLimit)
	if err != nil {
		return 0, fmt.Errorf("list overdue requests: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	system := actor.System()
	var mu sync.Mutex
	expired := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(expireConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := s.coordinator.Apply(gctx, id, request.EventExpire, system)
			if err != nil {
				// Already answered, withdrawn or being written to; the next
				// ListOverdue no longer returns it.
				var invalid *fsm.InvalidTransitionError
				if !errors.As(err, &invalid) {
					s.logger.Warn().Err(err).Str("requestId", id.String()).Msg("expire sweep transition failed")
				}
				return nil
			}
			mu.Lock()
			expired++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return expired, err
	}

	s.metrics.SweepDuration.WithLabelValues("expire_requests").Observe(s.now().Sub(start).Seconds())
	if expired > 0 {
		s.logger.Info().Int("expired", expired).Int("candidates", len(ids)).Msg("expired overdue requests")
	}
	return expired, nil
}

// SweepIdempotency evicts expired idempotency records.
func (s *Sweeper) SweepIdempotency(ctx context.Context) (int64, error) {
	if !s.idemMu.TryLock() {
		s.metrics.SweepSkipped.WithLabelValues("idempotency").Inc()
		return 0, nil
	}
	defer s.idemMu.Unlock()

	start := s.now()
	removed, err := s.idem.Sweep(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.SweepDuration.WithLabelValues("idempotency").Observe(s.now().Sub(start).Seconds())
	return removed, nil
}

// Run ticks both sweeps until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, expireEvery, idemEvery time.Duration) {
	expireTicker := time.NewTicker(expireEvery)
	defer expireTicker.Stop()
	idemTicker := time.NewTicker(idemEvery)
	defer idemTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-expireTicker.C:
			if _, err := s.ExpireOverdueRequests(ctx); err != nil {
				s.logger.Error().Err(err).Msg("expire sweep failed")
			}
		case <-idemTicker.C:
			if _, err := s.SweepIdempotency(ctx); err != nil {
				s.logger.Error().Err(err).Msg("idempotency sweep failed")
			}
		}
	}
}
