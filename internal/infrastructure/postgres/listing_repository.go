package postgres

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/listing"
)

// ListingRepository implements listing.Repository.
type ListingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

func (r *ListingRepository) Create(ctx context.Context, l *listing.Listing) error {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO listings (listing_id, owner_id, title, description, price_cents, category, status, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`, l.ListingID, l.OwnerID, l.Title, l.Description, l.PriceCents, l.Category, l.Status, l.Version, l.CreatedAt, l.UpdatedAt)
	return row.Scan(&l.ID)
}

func (r *ListingRepository) GetByID(ctx context.Context, listingID uuid.UUID) (*listing.Listing, error) {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		SELECT id, listing_id, owner_id, title, description, price_cents, category, status, version, created_at, updated_at
		FROM listings WHERE listing_id=$1
	`, listingID)
	return scanListing(row)
}

func (r *ListingRepository) List(ctx context.Context, status *listing.Status, limit, offset int) ([]*listing.Listing, error) {
	query := `
		SELECT id, listing_id, owner_id, title, description, price_cents, category, status, version, created_at, updated_at
		FROM listings`
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
	var listings []*listing.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Lock reads the listing row under FOR UPDATE. The transaction's lock_timeout
// bounds the wait; a 55P03 failure surfaces as lifecycle.ErrLockTimeout when
// the runner unwinds.
func (r *ListingRepository) Lock(ctx context.Context, id uuid.UUID) (*lifecycle.Row, error) {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		SELECT listing_id, owner_id, status, version FROM listings WHERE listing_id=$1 FOR UPDATE
	`, id)
	var out lifecycle.Row
	if err := row.Scan(&out.ID, &out.OwnerID, &out.Status, &out.Version); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, mapLockError(err)
	}
	return &out, nil
}

// Commit writes the new status guarded by the expected version. A zero-row
// update means a concurrent commit won.
func (r *ListingRepository) Commit(ctx context.Context, id uuid.UUID, fromVersion int64, toStatus string) error {
	tag, err := querier(ctx, r.pool).Exec(ctx, `
		UPDATE listings SET status=$1, version=version+1, updated_at=NOW()
		WHERE listing_id=$2 AND version=$3
	`, toStatus, id, fromVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrVersionConflict
	}
	return nil
}

func scanListing(row pgx.Row) (*listing.Listing, error) {
	var l listing.Listing
	if err := row.Scan(&l.ID, &l.ListingID, &l.OwnerID, &l.Title, &l.Description, &l.PriceCents, &l.Category, &l.Status, &l.Version, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}
