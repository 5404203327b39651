// Package dispute implements dispute use cases. Opening a dispute is a
// composed write: the parent request's DISPUTE transition and the dispute row
// commit as one unit, so a dispute can never exist against a request that is
// not disputed.
package dispute

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/market-hub/market-hub/internal/application/transition"
	"github.com/market-hub/market-hub/internal/domain/actor"
	"github.com/market-hub/market-hub/internal/domain/dispute"
	"github.com/market-hub/market-hub/internal/domain/fsm"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/request"
)

const maxReasonLength = 2000

// OpenInput carries the fields of a new dispute.
type OpenInput struct {
	RequestID uuid.UUID       `json:"requestId"`
	Reason    string          `json:"reason"`
	Evidence  json.RawMessage `json:"evidence,omitempty"`
}

// ResolveInput carries a moderator's closing note.
type ResolveInput struct {
	Resolution string `json:"resolution"`
}

// Service handles dispute operations.
type Service struct {
	repo        dispute.Repository
	requests    request.Repository
	coordinator *transition.Coordinator
	reqCoord    *transition.Coordinator
	runner      lifecycle.Runner
	logger      zerolog.Logger
}

// NewService creates a dispute service. reqCoord is the request-entity
// coordinator used to drive the parent DISPUTE transition.
func NewService(repo dispute.Repository, requests request.Repository, coordinator, reqCoord *transition.Coordinator, runner lifecycle.Runner, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		requests:    requests,
		coordinator: coordinator,
		reqCoord:    reqCoord,
		runner:      runner,
		logger:      logger.With().Str("service", "dispute").Logger(),
	}
}

// Open disputes a completed exchange. The request's DISPUTE transition runs
// first: its machine and authorization decide who may dispute and from which
// status, and if it rejects nothing is written.
func (s *Service) Open(ctx context.Context, act actor.Actor, in OpenInput) (*dispute.Dispute, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return nil, fmt.Errorf("reason is required: %w", lifecycle.ErrValidation)
	}
	if len(in.Reason) > maxReasonLength {
		return nil, fmt.Errorf("reason exceeds %d characters: %w", maxReasonLength, lifecycle.ErrValidation)
	}

	var d *dispute.Dispute
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		r, err := s.requests.GetByID(ctx, in.RequestID)
		if err != nil {
			return fmt.Errorf("load request: %w", err)
		}
		if r == nil {
			return fmt.Errorf("request %s: %w", in.RequestID, lifecycle.ErrNotFound)
		}

		if _, err := s.reqCoord.Apply(ctx, in.RequestID, request.EventDispute, act); err != nil {
			return err
		}

		respondent := r.OwnerID
		if act.ID == r.OwnerID {
			respondent = r.RequesterID
		}
		d = dispute.New(in.RequestID, act.ID, respondent, in.Reason, in.Evidence)
		if err := s.repo.Create(ctx, d); err != nil {
			return fmt.Errorf("create dispute: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("disputeId", d.DisputeID.String()).
		Str("requestId", in.RequestID.String()).
		Str("openedBy", act.ID.String()).
		Msg("dispute opened")
	return d, nil
}

// Get returns one dispute.
func (s *Service) Get(ctx context.Context, disputeID uuid.UUID) (*dispute.Dispute, error) {
	d, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, fmt.Errorf("get dispute: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("dispute %s: %w", disputeID, lifecycle.ErrNotFound)
	}
	return d, nil
}

// List returns disputes, newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *dispute.Status, limit, offset int) ([]*dispute.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, status, limit, offset)
}

// Apply dispatches one machine event against a dispute.
func (s *Service) Apply(ctx context.Context, disputeID uuid.UUID, event fsm.Event, act actor.Actor) (*transition.Result, error) {
	return s.coordinator.Apply(ctx, disputeID, event, act)
}

// Close commits a RESOLVE or REJECT transition and the resolution note as one
// unit.
func (s *Service) Close(ctx context.Context, disputeID uuid.UUID, event fsm.Event, act actor.Actor, in ResolveInput) (*transition.Result, error) {
	if strings.TrimSpace(in.Resolution) == "" {
		return nil, fmt.Errorf("resolution is required: %w", lifecycle.ErrValidation)
	}
	var res *transition.Result
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.coordinator.Apply(ctx, disputeID, event, act)
		if err != nil {
			return err
		}
		return s.repo.SetResolution(ctx, disputeID, in.Resolution)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
