package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/market-hub/market-hub/internal/domain/audit"
)

// AuditRepository implements audit.Repository. Create joins the transaction
// carried by ctx so a transition and its audit entry commit as one unit.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Create(ctx context.Context, e *audit.Entry) error {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO audit_log (audit_id, entity_type, entity_id, actor_id, action, event, from_status, to_status, detail, signature, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id
	`, e.AuditID, e.EntityType, e.EntityID, e.ActorID, e.Action, e.Event, e.FromStatus, e.ToStatus, e.Detail, e.Signature, e.CreatedAt)
	return row.Scan(&e.ID)
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*audit.Entry, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, `
		SELECT id, audit_id, entity_type, entity_id, actor_id, action, event, from_status, to_status, detail, signature, created_at
		FROM audit_log WHERE entity_type=$1 AND entity_id=$2
		ORDER BY created_at DESC, id DESC LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*audit.Entry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanAudit(row pgx.Row) (*audit.Entry, error) {
	var e audit.Entry
	if err := row.Scan(&e.ID, &e.AuditID, &e.EntityType, &e.EntityID, &e.ActorID, &e.Action, &e.Event, &e.FromStatus, &e.ToStatus, &e.Detail, &e.Signature, &e.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
