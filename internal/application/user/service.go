package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/market-hub/market-hub/internal/domain/actor"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	domain "github.com/market-hub/market-hub/internal/domain/user"
)

// Service handles user profiles. Restriction overrides and admin flags are
// admin-only; the policy engines read them on every verdict.
type Service struct {
	repo   domain.Repository
	logger zerolog.Logger
}

// NewService creates a user service.
func NewService(repo domain.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("service", "user").Logger(),
	}
}

// CreateInput defines user registration input.
type CreateInput struct {
	DisplayName string `json:"displayName"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.User, error) {
	if err := domain.ValidateDisplayName(in.DisplayName); err != nil {
		return nil, fmt.Errorf("%w: %s", lifecycle.ErrValidation, err)
	}
	u := domain.New(in.DisplayName)
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.UserID.String()).Msg("user created")
	return u, nil
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %s", lifecycle.ErrNotFound, userID)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return s.repo.List(ctx, limit, offset)
}

// SetRestrictedOverride flips the administrative restriction switch. The
// override blocks the user regardless of what the trust engine computes.
func (s *Service) SetRestrictedOverride(ctx context.Context, act actor.Actor, userID uuid.UUID, restricted bool) error {
	if act.Role != actor.RoleAdmin {
		return fmt.Errorf("%w: restriction override requires admin", lifecycle.ErrForbidden)
	}
	if err := s.repo.SetRestrictedOverride(ctx, userID, restricted); err != nil {
		return err
	}
	s.logger.Info().
		Str("user_id", userID.String()).
		Str("admin_id", act.ID.String()).
		Bool("restricted", restricted).
		Msg("restriction override set")
	return nil
}

func (s *Service) SetAdminFlags(ctx context.Context, act actor.Actor, userID uuid.UUID, flags float64) error {
	if act.Role != actor.RoleAdmin {
		return fmt.Errorf("%w: admin flags require admin", lifecycle.ErrForbidden)
	}
	if err := domain.ValidateAdminFlags(flags); err != nil {
		return fmt.Errorf("%w: %s", lifecycle.ErrValidation, err)
	}
	return s.repo.SetAdminFlags(ctx, userID, flags)
}
