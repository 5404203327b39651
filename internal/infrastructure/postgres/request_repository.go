package postgres

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/request"
)

// RequestRepository implements request.Repository.
type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

func (r *RequestRepository) Create(ctx context.Context, req *request.Request) error {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO requests (request_id, listing_id, requester_id, owner_id, message, meeting_at, expires_at, status, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id
	`, req.RequestID, req.ListingID, req.RequesterID, req.OwnerID, req.Message, req.MeetingAt, req.ExpiresAt, req.Status, req.Version, req.CreatedAt, req.UpdatedAt)
	return row.Scan(&req.ID)
}

func (r *RequestRepository) GetByID(ctx context.Context, requestID uuid.UUID) (*request.Request, error) {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		SELECT id, request_id, listing_id, requester_id, owner_id, message, meeting_at, expires_at, status, version, created_at, updated_at
		FROM requests WHERE request_id=$1
	`, requestID)
	return scanRequest(row)
}

func (r *RequestRepository) List(ctx context.Context, status *request.Status, limit, offset int) ([]*request.Request, error) {
	query := `
		SELECT id, request_id, listing_id, requester_id, owner_id, message, meeting_at, expires_at, status, version, created_at, updated_at
		FROM requests`
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
	var requests []*request.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *RequestRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, `
		SELECT request_id FROM requests
		WHERE status=$1 AND expires_at IS NOT NULL AND expires_at < $2
		ORDER BY expires_at ASC LIMIT $3
	`, request.StatusSent, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *RequestRepository) SetMeetingTime(ctx context.Context, requestID uuid.UUID, at time.Time) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, `
		UPDATE requests SET meeting_at=$1, updated_at=NOW() WHERE request_id=$2
	`, at, requestID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func (r *RequestRepository) Lock(ctx context.Context, id uuid.UUID) (*lifecycle.Row, error) {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		SELECT request_id, requester_id, owner_id, status, version FROM requests WHERE request_id=$1 FOR UPDATE
	`, id)
	var out lifecycle.Row
	var owner uuid.UUID
	if err := row.Scan(&out.ID, &out.OwnerID, &owner, &out.Status, &out.Version); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, mapLockError(err)
	}
	out.CounterpartyID = &owner
	return &out, nil
}

func (r *RequestRepository) Commit(ctx context.Context, id uuid.UUID, fromVersion int64, toStatus string) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, `
		UPDATE requests SET status=$1, version=version+1, updated_at=NOW()
		WHERE request_id=$2 AND version=$3
	`, toStatus, id, fromVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrVersionConflict
	}
	return nil
}

func scanRequest(row pgx.Row) (*request.Request, error) {
	var req request.Request
	if err := row.Scan(&req.ID, &req.RequestID, &req.ListingID, &req.RequesterID, &req.OwnerID, &req.Message, &req.MeetingAt, &req.ExpiresAt, &req.Status, &req.Version, &req.CreatedAt, &req.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}
