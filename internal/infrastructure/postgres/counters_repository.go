package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/market-hub/market-hub/internal/domain/policy"
)

// recentWindow is the lookback for the fraud spike counters.
const recentWindow = 24 * time.Hour

// CountersRepository aggregates the behavioral counters the policy engines
// run on. Counters are never stored; every call recomputes from live rows.
type CountersRepository struct {
	pool *pgxpool.Pool
}

func NewCountersRepository(pool *pgxpool.Pool) *CountersRepository {
	return &CountersRepository{pool: pool}
}

func (r *CountersRepository) TrustCounters(ctx context.Context, userID uuid.UUID) (policy.TrustCounters, error) {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		SELECT
			(SELECT COUNT(1) FROM requests WHERE (requester_id=$1 OR owner_id=$1) AND status IN ('completed','disputed','resolved')),
			(SELECT COUNT(1) FROM requests WHERE requester_id=$1 AND status='cancelled'),
			(SELECT COUNT(1) FROM disputes WHERE respondent_id=$1),
			COALESCE((SELECT admin_flags FROM users WHERE user_id=$1), 0),
			COALESCE((SELECT EXTRACT(EPOCH FROM NOW() - created_at) / 86400 FROM users WHERE user_id=$1), 0)
	`, userID)
	var c policy.TrustCounters
	if err := row.Scan(&c.CompletedExchanges, &c.CancelledRequests, &c.Disputes, &c.AdminFlags, &c.AccountAgeDays); err != nil {
		return policy.TrustCounters{}, err
	}
	return c, nil
}

func (r *CountersRepository) FraudCounters(ctx context.Context, userID uuid.UUID) (policy.FraudCounters, error) {
	since := time.Now().UTC().Add(-recentWindow)
	row := querier(ctx, r.pool).QueryRow(ctx, `
		SELECT
			(SELECT COUNT(1) FROM listings WHERE owner_id=$1 AND created_at >= $2),
			(SELECT COUNT(1) FROM requests WHERE requester_id=$1 AND status='cancelled' AND updated_at >= $2),
			(SELECT COUNT(1) FROM disputes WHERE respondent_id=$1 AND created_at >= $2),
			COALESCE((SELECT EXTRACT(EPOCH FROM NOW() - created_at) / 86400 FROM users WHERE user_id=$1), 0)
	`, userID, since)
	var c policy.FraudCounters
	if err := row.Scan(&c.RecentListings, &c.RecentCancellations, &c.RecentDisputes, &c.AccountAgeDays); err != nil {
		return policy.FraudCounters{}, err
	}
	return c, nil
}

func (r *CountersRepository) RestrictionFacts(ctx context.Context, userID uuid.UUID) (float64, bool, error) {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		SELECT
			(SELECT COUNT(1) FROM disputes WHERE respondent_id=$1 AND status IN ('OPEN','UNDER_REVIEW','ESCALATED')),
			COALESCE((SELECT restricted_override FROM users WHERE user_id=$1), false)
	`, userID)
	var activeDisputes float64
	var adminOverride bool
	if err := row.Scan(&activeDisputes, &adminOverride); err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return activeDisputes, adminOverride, nil
}
