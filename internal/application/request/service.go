// Package request implements exchange-request use cases: creation behind the
// restriction gate, meeting scheduling, reads and event dispatch.
package request

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/market-hub/market-hub/internal/application/transition"
	"github.com/market-hub/market-hub/internal/domain/actor"
	"github.com/market-hub/market-hub/internal/domain/fsm"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/listing"
	"github.com/market-hub/market-hub/internal/domain/policy"
	"github.com/market-hub/market-hub/internal/domain/request"
)

const maxMessageLength = 2000

// DefaultExpiry is how long a sent request waits for a response before the
// maintenance sweep expires it.
const DefaultExpiry = 7 * 24 * time.Hour

// Gate checks whether a user may perform a restricted action.
type Gate interface {
	Allowed(ctx context.Context, userID uuid.UUID, action policy.BlockedAction) error
}

// CreateInput carries the fields of a new exchange request.
type CreateInput struct {
	ListingID uuid.UUID `json:"listingId"`
	Message   string    `json:"message"`
}

// ScheduleInput carries the meeting time for a SCHEDULE transition.
type ScheduleInput struct {
	MeetingAt time.Time `json:"meetingAt"`
}

// Service handles exchange-request operations.
type Service struct {
	repo        request.Repository
	listings    listing.Repository
	coordinator *transition.Coordinator
	runner      lifecycle.Runner
	gate        Gate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewService creates a request service.
func NewService(repo request.Repository, listings listing.Repository, coordinator *transition.Coordinator, runner lifecycle.Runner, gate Gate, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		listings:    listings,
		coordinator: coordinator,
		runner:      runner,
		gate:        gate,
		logger:      logger.With().Str("service", "request").Logger(),
		now:         time.Now,
	}
}

// Create makes an idle request against an approved listing. The requester
// must clear the restriction gate and may not request their own listing.
func (s *Service) Create(ctx context.Context, act actor.Actor, in CreateInput) (*request.Request, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, fmt.Errorf("message is required: %w", lifecycle.ErrValidation)
	}
	if len(in.Message) > maxMessageLength {
		return nil, fmt.Errorf("message exceeds %d characters: %w", maxMessageLength, lifecycle.ErrValidation)
	}
	if err := s.gate.Allowed(ctx, act.ID, policy.ActionRequestExchange); err != nil {
		return nil, err
	}

	l, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}
	if l == nil {
		return nil, fmt.Errorf("listing %s: %w", in.ListingID, lifecycle.ErrNotFound)
	}
	if l.Status != listing.StatusApproved && l.Status != listing.StatusInterestReceived {
		return nil, fmt.Errorf("listing %s is %s, not open for requests: %w", in.ListingID, l.Status, lifecycle.ErrValidation)
	}
	if l.OwnerID == act.ID {
		return nil, fmt.Errorf("cannot request own listing: %w", lifecycle.ErrValidation)
	}

	expiresAt := s.now().UTC().Add(DefaultExpiry)
	r := request.New(in.ListingID, act.ID, l.OwnerID, in.Message, &expiresAt)
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	s.logger.Info().
		Str("requestId", r.RequestID.String()).
		Str("listingId", in.ListingID.String()).
		Str("requesterId", act.ID.String()).
		Msg("exchange request created")
	return r, nil
}

// Get returns one request.
func (s *Service) Get(ctx context.Context, requestID uuid.UUID) (*request.Request, error) {
	r, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("request %s: %w", requestID, lifecycle.ErrNotFound)
	}
	return r, nil
}

// List returns requests, newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *request.Status, limit, offset int) ([]*request.Request, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, status, limit, offset)
}

// Apply dispatches one machine event against a request.
func (s *Service) Apply(ctx context.Context, requestID uuid.UUID, event fsm.Event, act actor.Actor) (*transition.Result, error) {
	return s.coordinator.Apply(ctx, requestID, event, act)
}

// Schedule commits the SCHEDULE transition and the meeting time as one unit.
func (s *Service) Schedule(ctx context.Context, requestID uuid.UUID, act actor.Actor, in ScheduleInput) (*transition.Result, error) {
	if in.MeetingAt.Before(s.now()) {
		return nil, fmt.Errorf("meeting time is in the past: %w", lifecycle.ErrValidation)
	}
	var res *transition.Result
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.coordinator.Apply(ctx, requestID, request.EventSchedule, act)
		if err != nil {
			return err
		}
		return s.repo.SetMeetingTime(ctx, requestID, in.MeetingAt)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
