// Package transition implements the coordinator that turns a requested
// machine event into exactly one committed status change. Every mutation,
// whether user-initiated or maintenance, goes through Apply, which serializes
// per-entity via the store's row lock and commits status, version bump and
// audit record as a single atomic unit.
package transition

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/market-hub/market-hub/internal/domain/actor"
	"github.com/market-hub/market-hub/internal/domain/audit"
	"github.com/market-hub/market-hub/internal/domain/fsm"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/infrastructure/metrics"
)

// Recorder persists audit entries inside the coordinator's transaction.
type Recorder interface {
	Record(ctx context.Context, e *audit.Entry) error
}

// Config binds one entity type's machine, status mapping and authorization
// policy to the coordinator.
type Config struct {
	EntityType string
	Definition *fsm.Definition
	StateFor   func(status string) (fsm.State, bool)
	StatusFor  func(state fsm.State) (string, bool)
	Authorize  func(row *lifecycle.Row, a actor.Actor, e fsm.Event) error
}

// Result describes one committed transition.
type Result struct {
	EntityID   uuid.UUID `json:"entityId"`
	Event      fsm.Event `json:"event"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	Version    int64     `json:"version"`
}

// Coordinator validates and commits transitions for one entity type.
type Coordinator struct {
	cfg      Config
	store    lifecycle.Store
	runner   lifecycle.Runner
	recorder Recorder
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewCoordinator creates a coordinator.
func NewCoordinator(cfg Config, store lifecycle.Store, runner lifecycle.Runner, recorder Recorder, m *metrics.Metrics, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		store:    store,
		runner:   runner,
		recorder: recorder,
		metrics:  m,
		logger:   logger.With().Str("service", "transition").Str("entity", cfg.EntityType).Logger(),
	}
}

// Apply requests one event against one entity:
//
//  1. lock the entity row for the duration of the transaction
//  2. map the persisted status to a machine state
//  3. authorize the actor (existence and ownership checks precede FSM
//     validation)
//  4. validate the event against the sealed table
//  5. commit new status + version+1 + audit record atomically
//
// A concurrent caller blocks on the row lock until the first commit, then
// re-reads the committed status, so a stale read can never produce a stale
// write.
func (c *Coordinator) Apply(ctx context.Context, entityID uuid.UUID, event fsm.Event, act actor.Actor) (*Result, error) {
	var res *Result
	err := c.runner.InTx(ctx, func(ctx context.Context) error {
		row, err := c.store.Lock(ctx, entityID)
		if err != nil {
			return err
		}
		if row == nil {
			return fmt.Errorf("%s %s: %w", c.cfg.EntityType, entityID, lifecycle.ErrNotFound)
		}

		state, ok := c.cfg.StateFor(row.Status)
		if !ok {
			return fmt.Errorf("%s %s status %q: %w", c.cfg.EntityType, entityID, row.Status, lifecycle.ErrUnknownStatus)
		}

		if err := c.cfg.Authorize(row, act, event); err != nil {
			return fmt.Errorf("%s %s event %s: %w", c.cfg.EntityType, entityID, event, err)
		}

		inst, err := c.cfg.Definition.Restore(state)
		if err != nil {
			return fmt.Errorf("%s %s: %w", c.cfg.EntityType, entityID, lifecycle.ErrUnknownStatus)
		}
		next, err := inst.Send(event)
		if err != nil {
			return err
		}

		toStatus, ok := c.cfg.StatusFor(next.State())
		if !ok {
			return fmt.Errorf("%s state %q: %w", c.cfg.EntityType, next.State(), lifecycle.ErrUnknownStatus)
		}

		if err := c.store.Commit(ctx, entityID, row.Version, toStatus); err != nil {
			return err
		}

		entry := audit.NewTransitionEntry(c.cfg.EntityType, entityID, act.ID, string(event), row.Status, toStatus)
		if err := c.recorder.Record(ctx, entry); err != nil {
			return fmt.Errorf("record transition audit: %w", err)
		}

		res = &Result{
			EntityID:   entityID,
			Event:      event,
			FromStatus: row.Status,
			ToStatus:   toStatus,
			Version:    row.Version + 1,
		}
		return nil
	})

	outcome := outcomeFor(err)
	c.metrics.Transitions.WithLabelValues(c.cfg.EntityType, string(event), outcome).Inc()

	if err != nil {
		c.logger.Debug().Err(err).
			Str("entityId", entityID.String()).
			Str("event", string(event)).
			Str("actorId", act.ID.String()).
			Str("outcome", outcome).
			Msg("transition rejected")
		return nil, err
	}

	c.logger.Info().
		Str("entityId", entityID.String()).
		Str("event", string(event)).
		Str("actorId", act.ID.String()).
		Str("fromStatus", res.FromStatus).
		Str("toStatus", res.ToStatus).
		Int64("version", res.Version).
		Msg("transition committed")
	return res, nil
}

func outcomeFor(err error) string {
	var invalid *fsm.InvalidTransitionError
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, lifecycle.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, lifecycle.ErrForbidden):
		return metrics.OutcomeForbidden
	case errors.As(err, &invalid):
		return metrics.OutcomeInvalid
	case errors.Is(err, lifecycle.ErrVersionConflict), errors.Is(err, lifecycle.ErrLockTimeout):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}
