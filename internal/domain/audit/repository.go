package audit

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists audit entries. Create must join the transaction carried
// by ctx when one is present, so a transition and its audit record commit as
// one unit.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*Entry, error)
}
