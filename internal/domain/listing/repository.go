package listing

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/lifecycle"
)

// Repository persists listings. It embeds lifecycle.Store so the transition
// coordinator can lock and commit listing rows.
type Repository interface {
	lifecycle.Store

	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, listingID uuid.UUID) (*Listing, error)
	List(ctx context.Context, status *Status, limit, offset int) ([]*Listing, error)
}
