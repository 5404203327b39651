// Package memory provides in-memory store implementations mirroring the
// postgres ones: per-row lock semantics with bounded waits, version-guarded
// commits and transactional rollback. Used by unit tests and local
// development.
package memory

import (
	"context"
	"errors"
	"time"

	"github.com/market-hub/market-hub/internal/domain/lifecycle"
)

// DefaultLockWait bounds how long a Lock call blocks on a contended row
// before failing with lifecycle.ErrLockTimeout.
const DefaultLockWait = 2 * time.Second

var errNoTx = errors.New("memory: store call outside InTx")

type txKey struct{}

// txState tracks the locks and undo log of one in-flight unit of work.
type txState struct {
	release []func()
	undo    []func()
}

func stateFrom(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	return st
}

// Runner implements lifecycle.Runner over memory stores. A nested InTx joins
// the outer unit of work, matching the postgres runner.
type Runner struct{}

// NewRunner creates a memory transaction runner.
func NewRunner() *Runner { return &Runner{} }

// InTx runs fn as one atomic unit: on error every recorded write is undone
// in reverse order; either way all row locks are released.
func (r *Runner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if stateFrom(ctx) != nil {
		return fn(ctx)
	}
	st := &txState{}
	err := fn(context.WithValue(ctx, txKey{}, st))
	if err != nil {
		for i := len(st.undo) - 1; i >= 0; i-- {
			st.undo[i]()
		}
	}
	for i := len(st.release) - 1; i >= 0; i-- {
		st.release[i]()
	}
	return err
}

// lockSem acquires a row semaphore with a bounded wait, registering the
// release with the surrounding unit of work.
func lockSem(ctx context.Context, sem chan struct{}, wait time.Duration) error {
	st := stateFrom(ctx)
	if st == nil {
		return errNoTx
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case sem <- struct{}{}:
		st.release = append(st.release, func() { <-sem })
		return nil
	case <-timer.C:
		return lifecycle.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recordUndo registers a rollback action with the surrounding unit of work.
func recordUndo(ctx context.Context, fn func()) {
	if st := stateFrom(ctx); st != nil {
		st.undo = append(st.undo, fn)
	}
}
