package request

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/lifecycle"
)

// Repository persists exchange requests.
type Repository interface {
	lifecycle.Store

	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, requestID uuid.UUID) (*Request, error)
	List(ctx context.Context, status *Status, limit, offset int) ([]*Request, error)

	// ListOverdue returns ids of sent requests whose expiry has passed,
	// oldest first. Used by the maintenance sweeper.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)

	// SetMeetingTime records the agreed meeting time alongside a SCHEDULE
	// transition.
	SetMeetingTime(ctx context.Context, requestID uuid.UUID, at time.Time) error
}
