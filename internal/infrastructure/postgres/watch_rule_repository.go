package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/watch"
)

// WatchRuleRepository implements watch.Repository.
type WatchRuleRepository struct {
	pool *pgxpool.Pool
}

func NewWatchRuleRepository(pool *pgxpool.Pool) *WatchRuleRepository {
	return &WatchRuleRepository{pool: pool}
}

func (r *WatchRuleRepository) Create(ctx context.Context, rl *watch.Rule) error {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO watch_rules (rule_id, name, expression, severity, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, rl.RuleID, rl.Name, rl.Expression, rl.Severity, rl.Status, rl.CreatedAt, rl.UpdatedAt)
	return row.Scan(&rl.ID)
}

func (r *WatchRuleRepository) GetByID(ctx context.Context, ruleID uuid.UUID) (*watch.Rule, error) {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		SELECT id, rule_id, name, expression, severity, status, created_at, updated_at
		FROM watch_rules WHERE rule_id=$1
	`, ruleID)
	return scanWatchRule(row)
}

func (r *WatchRuleRepository) ListActive(ctx context.Context) ([]*watch.Rule, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, `
		SELECT id, rule_id, name, expression, severity, status, created_at, updated_at
		FROM watch_rules WHERE status=$1 ORDER BY created_at ASC
	`, watch.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWatchRules(rows)
}

func (r *WatchRuleRepository) List(ctx context.Context, limit, offset int) ([]*watch.Rule, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, `
		SELECT id, rule_id, name, expression, severity, status, created_at, updated_at
		FROM watch_rules ORDER BY created_at ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWatchRules(rows)
}

func (r *WatchRuleRepository) UpdateStatus(ctx context.Context, ruleID uuid.UUID, status watch.Status) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, `
		UPDATE watch_rules SET status=$1, updated_at=NOW() WHERE rule_id=$2
	`, status, ruleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func collectWatchRules(rows pgx.Rows) ([]*watch.Rule, error) {
	var rules []*watch.Rule
	for rows.Next() {
		rl, err := scanWatchRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rl)
	}
	return rules, rows.Err()
}

func scanWatchRule(row pgx.Row) (*watch.Rule, error) {
	var rl watch.Rule
	if err := row.Scan(&rl.ID, &rl.RuleID, &rl.Name, &rl.Expression, &rl.Severity, &rl.Status, &rl.CreatedAt, &rl.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rl, nil
}
