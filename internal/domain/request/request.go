package request

import (
	"time"

	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/actor"
	"github.com/market-hub/market-hub/internal/domain/fsm"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
)

// Status represents the persisted exchange-request status.
type Status string

const (
	StatusIdle             Status = "idle"
	StatusSent             Status = "sent"
	StatusAccepted         Status = "accepted"
	StatusDeclined         Status = "declined"
	StatusMeetingScheduled Status = "meeting_scheduled"
	StatusCompleted        Status = "completed"
	StatusExpired          Status = "expired"
	StatusCancelled        Status = "cancelled"
	StatusWithdrawn        Status = "withdrawn"
	StatusDisputed         Status = "disputed"
	StatusResolved         Status = "resolved"
)

// Request machine events.
const (
	EventSend     fsm.Event = "SEND"
	EventAccept   fsm.Event = "ACCEPT"
	EventDecline  fsm.Event = "DECLINE"
	EventExpire   fsm.Event = "EXPIRE"
	EventWithdraw fsm.Event = "WITHDRAW"
	EventSchedule fsm.Event = "SCHEDULE"
	EventCancel   fsm.Event = "CANCEL"
	EventConfirm  fsm.Event = "CONFIRM"
	EventDispute  fsm.Event = "DISPUTE"
	EventResolve  fsm.Event = "RESOLVE"
	EventRetry    fsm.Event = "RETRY"
)

// Machine is the sealed exchange-request transition table. Failure states
// loop back to idle only via an explicit RETRY; resolved is the sole
// terminal state.
var Machine = fsm.MustNewDefinition("request", "idle", map[fsm.State]map[fsm.Event]fsm.State{
	"idle": {
		EventSend: "sent",
	},
	"sent": {
		EventAccept:   "accepted",
		EventDecline:  "declined",
		EventExpire:   "expired",
		EventWithdraw: "withdrawn",
	},
	"accepted": {
		EventSchedule: "meeting_scheduled",
		EventCancel:   "cancelled",
	},
	"meeting_scheduled": {
		EventCancel:  "cancelled",
		EventConfirm: "completed",
	},
	"completed": {
		EventDispute: "disputed",
	},
	"disputed": {
		EventResolve: "resolved",
	},
	"declined": {
		EventRetry: "idle",
	},
	"expired": {
		EventRetry: "idle",
	},
	"cancelled": {
		EventRetry: "idle",
	},
	"withdrawn": {
		EventRetry: "idle",
	},
})

var statusState = map[Status]fsm.State{
	StatusIdle:             "idle",
	StatusSent:             "sent",
	StatusAccepted:         "accepted",
	StatusDeclined:         "declined",
	StatusMeetingScheduled: "meeting_scheduled",
	StatusCompleted:        "completed",
	StatusExpired:          "expired",
	StatusCancelled:        "cancelled",
	StatusWithdrawn:        "withdrawn",
	StatusDisputed:         "disputed",
	StatusResolved:         "resolved",
}

var stateStatus = invertStatusState(statusState)

func invertStatusState(m map[Status]fsm.State) map[fsm.State]Status {
	out := make(map[fsm.State]Status, len(m))
	for status, state := range m {
		if _, dup := out[state]; dup {
			panic("request: status/state mapping is not bijective: " + state)
		}
		out[state] = status
	}
	return out
}

// StateFor maps a persisted status to its machine state.
func StateFor(s string) (fsm.State, bool) {
	state, ok := statusState[Status(s)]
	return state, ok
}

// StatusFor maps a machine state back to its persisted status.
func StatusFor(st fsm.State) (string, bool) {
	status, ok := stateStatus[st]
	return string(status), ok
}

// requesterEvents may be issued by the requester (row owner).
var requesterEvents = map[fsm.Event]bool{
	EventSend:     true,
	EventWithdraw: true,
	EventRetry:    true,
	EventSchedule: true,
	EventCancel:   true,
	EventConfirm:  true,
	EventDispute:  true,
}

// counterpartyEvents may be issued by the listing owner.
var counterpartyEvents = map[fsm.Event]bool{
	EventAccept:   true,
	EventDecline:  true,
	EventSchedule: true,
	EventCancel:   true,
	EventConfirm:  true,
	EventDispute:  true,
}

// Authorize decides whether the actor may request the event against the
// locked row. RESOLVE closes a dispute and is reserved for admins; EXPIRE is
// reserved for maintenance.
func Authorize(row *lifecycle.Row, a actor.Actor, e fsm.Event) error {
	if a.IsAdmin() {
		return nil
	}
	if a.IsSystem() {
		if e == EventExpire {
			return nil
		}
		return lifecycle.ErrForbidden
	}
	if e == EventResolve || e == EventExpire {
		return lifecycle.ErrForbidden
	}
	if a.ID == row.OwnerID && requesterEvents[e] {
		return nil
	}
	if row.CounterpartyID != nil && a.ID == *row.CounterpartyID && counterpartyEvents[e] {
		return nil
	}
	return lifecycle.ErrForbidden
}

// Request represents an exchange request against a listing.
type Request struct {
	ID          int64      `json:"id"`
	RequestID   uuid.UUID  `json:"requestId"`
	ListingID   uuid.UUID  `json:"listingId"`
	RequesterID uuid.UUID  `json:"requesterId"`
	OwnerID     uuid.UUID  `json:"ownerId"`
	Message     string     `json:"message"`
	MeetingAt   *time.Time `json:"meetingAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Status      Status     `json:"status"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// New creates an exchange request at idle, version 1. ownerID is the listing
// owner who will accept or decline.
func New(listingID, requesterID, ownerID uuid.UUID, message string, expiresAt *time.Time) *Request {
	now := time.Now().UTC()
	return &Request{
		RequestID:   uuid.New(),
		ListingID:   listingID,
		RequesterID: requesterID,
		OwnerID:     ownerID,
		Message:     message,
		ExpiresAt:   expiresAt,
		Status:      StatusIdle,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
