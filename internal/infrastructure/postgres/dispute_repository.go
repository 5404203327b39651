package postgres

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/market-hub/market-hub/internal/domain/dispute"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
)

// DisputeRepository implements dispute.Repository.
type DisputeRepository struct {
	pool *pgxpool.Pool
}

func NewDisputeRepository(pool *pgxpool.Pool) *DisputeRepository {
	return &DisputeRepository{pool: pool}
}

func (r *DisputeRepository) Create(ctx context.Context, d *dispute.Dispute) error {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO disputes (dispute_id, request_id, opened_by, respondent_id, reason, evidence, resolution, status, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id
	`, d.DisputeID, d.RequestID, d.OpenedBy, d.RespondentID, d.Reason, d.Evidence, d.Resolution, d.Status, d.Version, d.CreatedAt, d.UpdatedAt)
	return row.Scan(&d.ID)
}

func (r *DisputeRepository) GetByID(ctx context.Context, disputeID uuid.UUID) (*dispute.Dispute, error) {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		SELECT id, dispute_id, request_id, opened_by, respondent_id, reason, evidence, resolution, status, version, created_at, updated_at
		FROM disputes WHERE dispute_id=$1
	`, disputeID)
	return scanDispute(row)
}

func (r *DisputeRepository) List(ctx context.Context, status *dispute.Status, limit, offset int) ([]*dispute.Dispute, error) {
	query := `
		SELECT id, dispute_id, request_id, opened_by, respondent_id, reason, evidence, resolution, status, version, created_at, updated_at
		FROM disputes`
	args := []interface{}{}
	if status != nil {
		query += " WHERE status=$1"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := querier(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var disputes []*dispute.Dispute
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		disputes = append(disputes, d)
	}
	return disputes, rows.Err()
}

func (r *DisputeRepository) SetResolution(ctx context.Context, disputeID uuid.UUID, resolution string) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, `
		UPDATE disputes SET resolution=$1, updated_at=NOW() WHERE dispute_id=$2
	`, resolution, disputeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func (r *DisputeRepository) Lock(ctx context.Context, id uuid.UUID) (*lifecycle.Row, error) {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		SELECT dispute_id, opened_by, respondent_id, status, version FROM disputes WHERE dispute_id=$1 FOR UPDATE
	`, id)
	var out lifecycle.Row
	var respondent uuid.UUID
	if err := row.Scan(&out.ID, &out.OwnerID, &respondent, &out.Status, &out.Version); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, mapLockError(err)
	}
	out.CounterpartyID = &respondent
	return &out, nil
}

func (r *DisputeRepository) Commit(ctx context.Context, id uuid.UUID, fromVersion int64, toStatus string) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, `
		UPDATE disputes SET status=$1, version=version+1, updated_at=NOW()
		WHERE dispute_id=$2 AND version=$3
	`, toStatus, id, fromVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrVersionConflict
	}
	return nil
}

func scanDispute(row pgx.Row) (*dispute.Dispute, error) {
	var d dispute.Dispute
	var evidence json.RawMessage
	if err := row.Scan(&d.ID, &d.DisputeID, &d.RequestID, &d.OpenedBy, &d.RespondentID, &d.Reason, &evidence, &d.Resolution, &d.Status, &d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	d.Evidence = evidence
	return &d, nil
}
