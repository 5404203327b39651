// Package listing implements listing use cases: creation behind the
// restriction gate, reads, and event dispatch through the transition
// coordinator.
package listing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/market-hub/market-hub/internal/application/transition"
	"github.com/market-hub/market-hub/internal/domain/actor"
	"github.com/market-hub/market-hub/internal/domain/fsm"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/listing"
	"github.com/market-hub/market-hub/internal/domain/policy"
)

const (
	maxTitleLength       = 140
	maxDescriptionLength = 4000
)

// Gate checks whether a user may perform a restricted action.
type Gate interface {
	Allowed(ctx context.Context, userID uuid.UUID, action policy.BlockedAction) error
}

// CreateInput carries the fields of a new listing.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	Category    string `json:"category"`
}

func (in *CreateInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	switch {
	case in.Title == "":
		return fmt.Errorf("title is required: %w", lifecycle.ErrValidation)
	case len(in.Title) > maxTitleLength:
		return fmt.Errorf("title exceeds %d characters: %w", maxTitleLength, lifecycle.ErrValidation)
	case len(in.Description) > maxDescriptionLength:
		return fmt.Errorf("description exceeds %d characters: %w", maxDescriptionLength, lifecycle.ErrValidation)
	case in.PriceCents < 0:
		return fmt.Errorf("price must not be negative: %w", lifecycle.ErrValidation)
	case strings.TrimSpace(in.Category) == "":
		return fmt.Errorf("category is required: %w", lifecycle.ErrValidation)
	}
	return nil
}

// Service handles listing operations.
type Service struct {
	repo        listing.Repository
	coordinator *transition.Coordinator
	gate        Gate
	logger      zerolog.Logger
}

// NewService creates a listing service.
func NewService(repo listing.Repository, coordinator *transition.Coordinator, gate Gate, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		coordinator: coordinator,
		gate:        gate,
		logger:      logger.With().Str("service", "listing").Logger(),
	}
}

// Create makes a draft listing after the restriction gate clears the owner.
func (s *Service) Create(ctx context.Context, act actor.Actor, in CreateInput) (*listing.Listing, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.gate.Allowed(ctx, act.ID, policy.ActionCreateListing); err != nil {
		return nil, err
	}
	l := listing.New(act.ID, in.Title, in.Description, in.PriceCents, in.Category)
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	s.logger.Info().
		Str("listingId", l.ListingID.String()).
		Str("ownerId", act.ID.String()).
		Msg("listing created")
	return l, nil
}

// Get returns one listing.
func (s *Service) Get(ctx context.Context, listingID uuid.UUID) (*listing.Listing, error) {
	l, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if l == nil {
		return nil, fmt.Errorf("listing %s: %w", listingID, lifecycle.ErrNotFound)
	}
	return l, nil
}

// List returns listings, newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *listing.Status, limit, offset int) ([]*listing.Listing, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, status, limit, offset)
}

// Apply dispatches one machine event against a listing.
func (s *Service) Apply(ctx context.Context, listingID uuid.UUID, event fsm.Event, act actor.Actor) (*transition.Result, error) {
	return s.coordinator.Apply(ctx, listingID, event, act)
}
