package idempotency

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_store.go -package=mocks . Store

import (
	"context"
	"time"
)

// Store is the atomic claim surface. Claim must be a single
// insert-if-absent primitive (unique-constraint insert, SET NX, or a
// mutex-guarded map write); a read-then-write sequence is not an acceptable
// implementation.
type Store interface {
	// Claim atomically inserts rec as the processing sentinel. On success it
	// returns (true, nil). If the key is already held it returns
	// (false, existing) without modifying anything.
	Claim(ctx context.Context, rec *Record) (bool, *Record, error)

	// Complete replaces the sentinel with the final response.
	Complete(ctx context.Context, compositeKey string, status int, body []byte, expiresAt time.Time) error

	// Delete removes a record (server-fault outcomes and expired claims).
	Delete(ctx context.Context, compositeKey string) error

	// DeleteExpired removes records past expiry. Called by the sweep, never
	// on the request path.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
