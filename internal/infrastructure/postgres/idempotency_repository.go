package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/market-hub/market-hub/internal/domain/idempotency"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
)

// IdempotencyRepository implements idempotency.Store. The claim is a single
// ON CONFLICT DO NOTHING insert: the unique constraint on composite_key makes
// it atomic under concurrent claimers.
type IdempotencyRepository struct {
	pool *pgxpool.Pool
}

func NewIdempotencyRepository(pool *pgxpool.Pool) *IdempotencyRepository {
	return &IdempotencyRepository{pool: pool}
}

func (r *IdempotencyRepository) Claim(ctx context.Context, rec *idempotency.Record) (bool, *idempotency.Record, error) {
	tag, err := querier(ctx, r.pool).Exec(ctx, `
		INSERT INTO idempotency_records (composite_key, fingerprint, status, body, expires_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (composite_key) DO NOTHING
	`, rec.CompositeKey, rec.Fingerprint, rec.Status, rec.Body, rec.ExpiresAt, rec.CreatedAt)
	if err != nil {
		return false, nil, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil, nil
	}

	row := querier(ctx, r.pool).QueryRow(ctx, `
		SELECT composite_key, fingerprint, status, body, expires_at, created_at
		FROM idempotency_records WHERE composite_key=$1
	`, rec.CompositeKey)
	var existing idempotency.Record
	if err := row.Scan(&existing.CompositeKey, &existing.Fingerprint, &existing.Status, &existing.Body, &existing.ExpiresAt, &existing.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			// Holder deleted between insert and read; let the caller retry.
			return false, nil, idempotency.ErrInProgress
		}
		return false, nil, err
	}
	return false, &existing, nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, compositeKey string, status int, body []byte, expiresAt time.Time) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, `
		UPDATE idempotency_records SET status=$1, body=$2, expires_at=$3 WHERE composite_key=$4
	`, status, body, expiresAt, compositeKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func (r *IdempotencyRepository) Delete(ctx context.Context, compositeKey string) error {
	_, err := querier(ctx, r.pool).Exec(ctx, `
		DELETE FROM idempotency_records WHERE composite_key=$1
	`, compositeKey)
	return err
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := querier(ctx, r.pool).Exec(ctx, `
		DELETE FROM idempotency_records WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
