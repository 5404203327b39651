package watch

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists watch rules.
type Repository interface {
	Create(ctx context.Context, r *Rule) error
	GetByID(ctx context.Context, ruleID uuid.UUID) (*Rule, error)
	ListActive(ctx context.Context) ([]*Rule, error)
	List(ctx context.Context, limit, offset int) ([]*Rule, error)
	UpdateStatus(ctx context.Context, ruleID uuid.UUID, status Status) error
}
