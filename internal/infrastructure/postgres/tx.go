package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/market-hub/market-hub/internal/domain/lifecycle"
)

// pgLockNotAvailable is the SQLSTATE raised when lock_timeout elapses.
const pgLockNotAvailable = "55P03"

// DefaultLockTimeout bounds how long SELECT ... FOR UPDATE waits on a
// contended row before the transaction fails with lifecycle.ErrLockTimeout.
const DefaultLockTimeout = 2 * time.Second

type txKey struct{}

func txFrom(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// querier returns the transaction carried by ctx, or the pool when the call
// runs outside a unit of work.
func querier(ctx context.Context, pool *pgxpool.Pool) interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
} {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return pool
}

// Runner implements lifecycle.Runner over pgx transactions. A nested InTx
// joins the transaction already carried by ctx.
type Runner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewRunner creates a postgres transaction runner.
func NewRunner(pool *pgxpool.Pool) *Runner {
	return &Runner{pool: pool, lockTimeout: DefaultLockTimeout}
}

// InTx runs fn inside a transaction with a bounded row-lock wait. SET LOCAL
// scopes the lock_timeout to this transaction only.
func (r *Runner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return mapLockError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// mapLockError translates a postgres lock-wait failure into the retryable
// domain error.
func mapLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return fmt.Errorf("%v: %w", err, lifecycle.ErrLockTimeout)
	}
	return err
}
