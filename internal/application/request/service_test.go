package request

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditsvc "github.com/market-hub/market-hub/internal/application/audit"
	"github.com/market-hub/market-hub/internal/application/transition"
	"github.com/market-hub/market-hub/internal/domain/actor"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/listing"
	"github.com/market-hub/market-hub/internal/domain/policy"
	"github.com/market-hub/market-hub/internal/domain/request"
	"github.com/market-hub/market-hub/internal/infrastructure/memory"
	"github.com/market-hub/market-hub/internal/infrastructure/metrics"
)

type stubGate struct {
	blocked map[uuid.UUID]bool
}

func (g *stubGate) Allowed(_ context.Context, userID uuid.UUID, _ policy.BlockedAction) error {
	if g.blocked[userID] {
		return policy.ErrRestricted
	}
	return nil
}

type fixture struct {
	svc      *Service
	gate     *stubGate
	requests *memory.RequestStore
	listings *memory.ListingStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	requests := memory.NewRequestStore()
	listings := memory.NewListingStore()
	runner := memory.NewRunner()
	recorder := auditsvc.NewService(memory.NewAuditStore(), zerolog.Nop(), nil)
	coordinator := transition.NewCoordinator(transition.Config{
		EntityType: "request",
		Definition: request.Machine,
		StateFor:   request.StateFor,
		StatusFor:  request.StatusFor,
		Authorize:  request.Authorize,
	}, requests, runner, recorder, metrics.NewNop(), zerolog.Nop())
	gate := &stubGate{blocked: map[uuid.UUID]bool{}}
	svc := NewService(requests, listings, coordinator, runner, gate, zerolog.Nop())
	return &fixture{svc: svc, gate: gate, requests: requests, listings: listings}
}

func approvedListing(t *testing.T, store *memory.ListingStore, owner uuid.UUID) *listing.Listing {
	t.Helper()
	l := listing.New(owner, "city bike", "", 12000, "sports")
	l.Status = listing.StatusApproved
	require.NoError(t, store.Create(context.Background(), l))
	return l
}

func TestCreateRequest(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	requester := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	l := approvedListing(t, f.listings, owner)

	r, err := f.svc.Create(context.Background(), requester, CreateInput{ListingID: l.ListingID, Message: "still available?"})
	require.NoError(t, err)
	assert.Equal(t, request.StatusIdle, r.Status)
	assert.Equal(t, owner, r.OwnerID)
	require.NotNil(t, r.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(DefaultExpiry), *r.ExpiresAt, time.Minute)
}

func TestCreateRequestAgainstDraftListing(t *testing.T) {
	f := newFixture(t)
	l := listing.New(uuid.New(), "bike", "", 100, "sports")
	require.NoError(t, f.listings.Create(context.Background(), l))

	_, err := f.svc.Create(context.Background(), actor.Actor{ID: uuid.New(), Role: actor.RoleUser},
		CreateInput{ListingID: l.ListingID, Message: "hi"})
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
}

func TestCreateRequestOwnListing(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	l := approvedListing(t, f.listings, owner)

	_, err := f.svc.Create(context.Background(), actor.Actor{ID: owner, Role: actor.RoleUser},
		CreateInput{ListingID: l.ListingID, Message: "mine"})
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
}

func TestCreateRequestRestricted(t *testing.T) {
	f := newFixture(t)
	requester := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	f.gate.blocked[requester.ID] = true
	l := approvedListing(t, f.listings, uuid.New())

	_, err := f.svc.Create(context.Background(), requester, CreateInput{ListingID: l.ListingID, Message: "hi"})
	assert.ErrorIs(t, err, policy.ErrRestricted)
}

func TestCreateRequestMissingListing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), actor.Actor{ID: uuid.New(), Role: actor.RoleUser},
		CreateInput{ListingID: uuid.New(), Message: "hi"})
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)
}

func TestScheduleCommitsMeetingTimeWithTransition(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	requester := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	ownerActor := actor.Actor{ID: owner, Role: actor.RoleUser}
	l := approvedListing(t, f.listings, owner)

	r, err := f.svc.Create(context.Background(), requester, CreateInput{ListingID: l.ListingID, Message: "hi"})
	require.NoError(t, err)
	_, err = f.svc.Apply(context.Background(), r.RequestID, request.EventSend, requester)
	require.NoError(t, err)
	_, err = f.svc.Apply(context.Background(), r.RequestID, request.EventAccept, ownerActor)
	require.NoError(t, err)

	meetingAt := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	res, err := f.svc.Schedule(context.Background(), r.RequestID, requester, ScheduleInput{MeetingAt: meetingAt})
	require.NoError(t, err)
	assert.Equal(t, string(request.StatusMeetingScheduled), res.ToStatus)

	got, err := f.svc.Get(context.Background(), r.RequestID)
	require.NoError(t, err)
	require.NotNil(t, got.MeetingAt)
	assert.True(t, got.MeetingAt.Equal(meetingAt))
}

func TestScheduleRejectsPastMeeting(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Schedule(context.Background(), uuid.New(), actor.Actor{ID: uuid.New(), Role: actor.RoleUser},
		ScheduleInput{MeetingAt: time.Now().Add(-time.Hour)})
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
}

func TestScheduleRollsBackMeetingTimeOnInvalidTransition(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	requester := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	l := approvedListing(t, f.listings, owner)

	r, err := f.svc.Create(context.Background(), requester, CreateInput{ListingID: l.ListingID, Message: "hi"})
	require.NoError(t, err)

	// SCHEDULE from idle is invalid; no meeting time may stick.
	_, err = f.svc.Schedule(context.Background(), r.RequestID, requester, ScheduleInput{MeetingAt: time.Now().Add(time.Hour)})
	require.Error(t, err)

	got, err := f.svc.Get(context.Background(), r.RequestID)
	require.NoError(t, err)
	assert.Nil(t, got.MeetingAt)
}

func TestRetryAfterDecline(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	requester := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	ownerActor := actor.Actor{ID: owner, Role: actor.RoleUser}
	l := approvedListing(t, f.listings, owner)

	r, err := f.svc.Create(context.Background(), requester, CreateInput{ListingID: l.ListingID, Message: "hi"})
	require.NoError(t, err)
	_, err = f.svc.Apply(context.Background(), r.RequestID, request.EventSend, requester)
	require.NoError(t, err)
	_, err = f.svc.Apply(context.Background(), r.RequestID, request.EventDecline, ownerActor)
	require.NoError(t, err)

	res, err := f.svc.Apply(context.Background(), r.RequestID, request.EventRetry, requester)
	require.NoError(t, err)
	assert.Equal(t, string(request.StatusIdle), res.ToStatus)
	assert.Equal(t, int64(4), res.Version)
}
