package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/user"
)

// UserRepository implements user.Repository.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (user_id, display_name, admin_flags, restricted_override, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, u.UserID, u.DisplayName, u.AdminFlags, u.RestrictedOverride, u.CreatedAt, u.UpdatedAt)
	return row.Scan(&u.ID)
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		SELECT id, user_id, display_name, admin_flags, restricted_override, created_at, updated_at
		FROM users WHERE user_id=$1
	`, userID)
	return scanUser(row)
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*user.User, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, `
		SELECT id, user_id, display_name, admin_flags, restricted_override, created_at, updated_at
		FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) SetRestrictedOverride(ctx context.Context, userID uuid.UUID, restricted bool) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, `
		UPDATE users SET restricted_override=$1, updated_at=NOW() WHERE user_id=$2
	`, restricted, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetAdminFlags(ctx context.Context, userID uuid.UUID, flags float64) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, `
		UPDATE users SET admin_flags=$1, updated_at=NOW() WHERE user_id=$2
	`, flags, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.UserID, &u.DisplayName, &u.AdminFlags, &u.RestrictedOverride, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
