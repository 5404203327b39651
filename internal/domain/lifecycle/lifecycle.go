// Package lifecycle defines the storage-facing contracts the transition
// coordinator runs against: a locked row snapshot, a per-entity store, and a
// transaction runner. Implementations live in infrastructure.
package lifecycle

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Row is the snapshot of an entity read under its row lock. OwnerID is the
// creating party; CounterpartyID is the other party where the entity has one
// (the listing owner on a request, the respondent on a dispute).
type Row struct {
	ID             uuid.UUID
	Status         string
	Version        int64
	OwnerID        uuid.UUID
	CounterpartyID *uuid.UUID
}

// Store is the locked read/write surface of one entity table. Both methods
// must run inside the transaction carried by ctx.
type Store interface {
	// Lock reads the row under an exclusive row lock (SELECT ... FOR UPDATE
	// or equivalent). Returns nil when the entity does not exist. A bounded
	// lock wait that elapses fails with ErrLockTimeout.
	Lock(ctx context.Context, id uuid.UUID) (*Row, error)

	// Commit writes the new status and bumps version by exactly 1, guarded by
	// the expected version. A zero-row update fails with ErrVersionConflict.
	Commit(ctx context.Context, id uuid.UUID, fromVersion int64, toStatus string) error
}

// Runner executes fn inside an atomic unit of work. If ctx already carries a
// transaction the runner joins it instead of opening a nested one, so callers
// can compose multiple store operations into a single commit.
type Runner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var (
	// ErrNotFound means the entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrForbidden means the actor may not request this event.
	ErrForbidden = errors.New("forbidden")
	// ErrVersionConflict means a concurrent commit won the race.
	ErrVersionConflict = errors.New("version conflict")
	// ErrLockTimeout means the row lock could not be acquired in time.
	// Retryable.
	ErrLockTimeout = errors.New("lock wait timed out")
	// ErrUnknownStatus means a persisted status has no machine state. This is
	// data corruption, not an FSM rejection.
	ErrUnknownStatus = errors.New("persisted status has no machine state")
	// ErrValidation means the caller supplied malformed input.
	ErrValidation = errors.New("validation error")
)
