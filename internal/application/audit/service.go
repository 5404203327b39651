package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/market-hub/market-hub/internal/domain/audit"
)

// Service handles audit log operations.
type Service struct {
	repo    audit.Repository
	signKey []byte
	logger  zerolog.Logger
}

// NewService creates an audit service. signKey may be nil, in which case
// entries are stored unsigned.
func NewService(repo audit.Repository, logger zerolog.Logger, signKey []byte) *Service {
	return &Service{
		repo:    repo,
		signKey: signKey,
		logger:  logger.With().Str("service", "audit").Logger(),
	}
}

// Record signs and persists an entry synchronously, joining the caller's
// transaction when ctx carries one. The transition coordinator uses this so
// status, version and audit commit as one unit.
func (s *Service) Record(ctx context.Context, e *audit.Entry) error {
	if len(s.signKey) > 0 {
		sig, err := audit.Sign(e, s.signKey)
		if err != nil {
			return fmt.Errorf("sign audit entry: %w", err)
		}
		e.Signature = sig
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return fmt.Errorf("save audit entry: %w", err)
	}
	s.logger.Debug().
		Str("auditId", e.AuditID.String()).
		Str("entityType", e.EntityType).
		Str("entityId", e.EntityID.String()).
		Str("action", string(e.Action)).
		Msg("audit entry recorded")
	return nil
}

// Raise persists an entry asynchronously, fire-and-forget. Used for review
// records where the caller must not block or fail on audit problems.
func (s *Service) Raise(ctx context.Context, e *audit.Entry) {
	go func() {
		if err := s.Record(context.Background(), e); err != nil {
			s.logger.Error().Err(err).
				Str("entityType", e.EntityType).
				Str("entityId", e.EntityID.String()).
				Str("action", string(e.Action)).
				Msg("failed to raise audit entry")
		}
	}()
}

// ListByEntity returns recent entries for one entity, newest first.
func (s *Service) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*audit.Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByEntity(ctx, entityType, entityID, limit)
}
