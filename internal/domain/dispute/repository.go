package dispute

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/lifecycle"
)

// Repository persists disputes.
type Repository interface {
	lifecycle.Store

	Create(ctx context.Context, d *Dispute) error
	GetByID(ctx context.Context, disputeID uuid.UUID) (*Dispute, error)
	List(ctx context.Context, status *Status, limit, offset int) ([]*Dispute, error)

	// SetResolution records the moderator's resolution note alongside a
	// RESOLVE or REJECT transition.
	SetResolution(ctx context.Context, disputeID uuid.UUID, resolution string) error
}
