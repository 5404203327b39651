package request

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-hub/market-hub/internal/domain/actor"
	"github.com/market-hub/market-hub/internal/domain/fsm"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
)

var requestTransitions = map[fsm.State]map[fsm.Event]fsm.State{
	"idle":              {EventSend: "sent"},
	"sent":              {EventAccept: "accepted", EventDecline: "declined", EventExpire: "expired", EventWithdraw: "withdrawn"},
	"accepted":          {EventSchedule: "meeting_scheduled", EventCancel: "cancelled"},
	"meeting_scheduled": {EventCancel: "cancelled", EventConfirm: "completed"},
	"completed":         {EventDispute: "disputed"},
	"disputed":          {EventResolve: "resolved"},
	"declined":          {EventRetry: "idle"},
	"expired":           {EventRetry: "idle"},
	"cancelled":         {EventRetry: "idle"},
	"withdrawn":         {EventRetry: "idle"},
	"resolved":          {},
}

func TestRequestExhaustiveMatrix(t *testing.T) {
	for _, state := range Machine.States() {
		for _, event := range Machine.Events() {
			inst, err := Machine.Restore(state)
			require.NoError(t, err)

			next, err := inst.Send(event)
			want, legal := requestTransitions[state][event]
			if legal {
				require.NoError(t, err, "state=%s event=%s", state, event)
				assert.Equal(t, want, next.State())
			} else {
				var invalid *fsm.InvalidTransitionError
				require.True(t, errors.As(err, &invalid), "state=%s event=%s", state, event)
			}
		}
	}
}

func TestRequestResolvedIsTerminal(t *testing.T) {
	inst, err := Machine.Restore("resolved")
	require.NoError(t, err)
	assert.Empty(t, inst.AvailableEvents())
}

func TestRequestDisputeOnlyFromCompleted(t *testing.T) {
	for _, state := range Machine.States() {
		inst, err := Machine.Restore(state)
		require.NoError(t, err)
		if state == "completed" {
			assert.True(t, inst.Can(EventDispute))
		} else {
			assert.False(t, inst.Can(EventDispute), "DISPUTE legal from %s", state)
		}
	}
}

// declined -> RETRY -> idle -> SEND -> sent -> DECLINE -> declined is a
// repeatable loop, each lap driven by explicit events.
func TestRequestRetryLoop(t *testing.T) {
	inst, err := Machine.Restore("declined")
	require.NoError(t, err)

	for lap := 0; lap < 3; lap++ {
		inst, err = inst.Send(EventRetry)
		require.NoError(t, err)
		assert.Equal(t, fsm.State("idle"), inst.State())

		inst, err = inst.Send(EventSend)
		require.NoError(t, err)
		assert.Equal(t, fsm.State("sent"), inst.State())

		inst, err = inst.Send(EventDecline)
		require.NoError(t, err)
		assert.Equal(t, fsm.State("declined"), inst.State())
	}
	assert.Len(t, inst.History(), 9)
}

func TestRequestStatusStateBijection(t *testing.T) {
	for status, state := range statusState {
		back, ok := StatusFor(state)
		require.True(t, ok)
		assert.Equal(t, string(status), back)
	}
	for _, state := range Machine.States() {
		_, ok := StatusFor(state)
		assert.True(t, ok, "state %s has no persisted status", state)
	}
}

func TestRequestAuthorize(t *testing.T) {
	requester := uuid.New()
	owner := uuid.New()
	stranger := uuid.New()
	row := &lifecycle.Row{ID: uuid.New(), Status: string(StatusSent), OwnerID: requester, CounterpartyID: &owner}

	// Requester side.
	assert.NoError(t, Authorize(row, actor.Actor{ID: requester, Role: actor.RoleUser}, EventWithdraw))
	assert.ErrorIs(t, Authorize(row, actor.Actor{ID: requester, Role: actor.RoleUser}, EventAccept), lifecycle.ErrForbidden)

	// Listing-owner side.
	assert.NoError(t, Authorize(row, actor.Actor{ID: owner, Role: actor.RoleUser}, EventAccept))
	assert.NoError(t, Authorize(row, actor.Actor{ID: owner, Role: actor.RoleUser}, EventDecline))
	assert.ErrorIs(t, Authorize(row, actor.Actor{ID: owner, Role: actor.RoleUser}, EventWithdraw), lifecycle.ErrForbidden)

	// Either party may schedule, cancel, confirm, dispute.
	for _, e := range []fsm.Event{EventSchedule, EventCancel, EventConfirm, EventDispute} {
		assert.NoError(t, Authorize(row, actor.Actor{ID: requester, Role: actor.RoleUser}, e))
		assert.NoError(t, Authorize(row, actor.Actor{ID: owner, Role: actor.RoleUser}, e))
		assert.ErrorIs(t, Authorize(row, actor.Actor{ID: stranger, Role: actor.RoleUser}, e), lifecycle.ErrForbidden)
	}

	// RESOLVE is admin-only, EXPIRE is maintenance or admin.
	assert.ErrorIs(t, Authorize(row, actor.Actor{ID: requester, Role: actor.RoleUser}, EventResolve), lifecycle.ErrForbidden)
	assert.NoError(t, Authorize(row, actor.Actor{ID: stranger, Role: actor.RoleAdmin}, EventResolve))
	assert.NoError(t, Authorize(row, actor.System(), EventExpire))
	assert.ErrorIs(t, Authorize(row, actor.System(), EventAccept), lifecycle.ErrForbidden)
}
