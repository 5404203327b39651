package listing

import (
	"time"

	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/actor"
	"github.com/market-hub/market-hub/internal/domain/fsm"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
)

// Status represents the persisted listing status.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusPendingReview    Status = "pending_review"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusInterestReceived Status = "interest_received"
	StatusInTransaction    Status = "in_transaction"
	StatusCompleted        Status = "completed"
	StatusExpired          Status = "expired"
	StatusFlagged          Status = "flagged"
	StatusArchived         Status = "archived"
	StatusRemoved          Status = "removed"
)

// Listing machine events.
const (
	EventSubmit           fsm.Event = "SUBMIT"
	EventApprove          fsm.Event = "APPROVE"
	EventReject           fsm.Event = "REJECT"
	EventReceiveInterest  fsm.Event = "RECEIVE_INTEREST"
	EventBeginTransaction fsm.Event = "BEGIN_TRANSACTION"
	EventComplete         fsm.Event = "COMPLETE"
	EventExpire           fsm.Event = "EXPIRE"
	EventFlag             fsm.Event = "FLAG"
	EventArchive          fsm.Event = "ARCHIVE"
	EventRemove           fsm.Event = "REMOVE"
)

// Machine is the sealed listing transition table. The review workflow
// (SUBMIT/APPROVE/REJECT) is the moderated core; the remaining events cover
// the administrative statuses explicitly so no status is reachable by a
// direct write outside the validated path.
var Machine = fsm.MustNewDefinition("listing", "draft", map[fsm.State]map[fsm.Event]fsm.State{
	"draft": {
		EventSubmit: "pending_review",
		EventRemove: "removed",
	},
	"pending_review": {
		EventApprove: "approved",
		EventReject:  "rejected",
	},
	"approved": {
		EventReceiveInterest: "interest_received",
		EventExpire:          "expired",
		EventFlag:            "flagged",
	},
	"interest_received": {
		EventBeginTransaction: "in_transaction",
		EventFlag:             "flagged",
	},
	"in_transaction": {
		EventComplete: "completed",
		EventFlag:     "flagged",
	},
	"completed": {
		EventArchive: "archived",
	},
	"expired": {
		EventArchive: "archived",
	},
	"rejected": {
		EventArchive: "archived",
	},
	"flagged": {
		EventRemove: "removed",
	},
})

var statusState = map[Status]fsm.State{
	StatusDraft:            "draft",
	StatusPendingReview:    "pending_review",
	StatusApproved:         "approved",
	StatusRejected:         "rejected",
	StatusInterestReceived: "interest_received",
	StatusInTransaction:    "in_transaction",
	StatusCompleted:        "completed",
	StatusExpired:          "expired",
	StatusFlagged:          "flagged",
	StatusArchived:         "archived",
	StatusRemoved:          "removed",
}

var stateStatus = invertStatusState(statusState)

func invertStatusState(m map[Status]fsm.State) map[fsm.State]Status {
	out := make(map[fsm.State]Status, len(m))
	for status, state := range m {
		if _, dup := out[state]; dup {
			panic("listing: status/state mapping is not bijective: " + state)
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

// adminEvents may only be requested by administrators.
var adminEvents = map[fsm.Event]bool{
	EventApprove: true,
	EventReject:  true,
	EventFlag:    true,
}

// ownerEvents may be requested by the listing owner.
var ownerEvents = map[fsm.Event]bool{
	EventSubmit:           true,
	EventBeginTransaction: true,
	EventComplete:         true,
	EventArchive:          true,
	EventRemove:           true,
}

// systemEvents may be requested by background maintenance.
var systemEvents = map[fsm.Event]bool{
	EventExpire:          true,
	EventReceiveInterest: true,
}

// Authorize decides whether the actor may request the event against the
// locked row. Runs before FSM validation.
func Authorize(row *lifecycle.Row, a actor.Actor, e fsm.Event) error {
	if a.IsAdmin() {
		return nil
	}
	if a.IsSystem() && systemEvents[e] {
		return nil
	}
	if a.ID == row.OwnerID && ownerEvents[e] {
		// Owners may only remove their own drafts; removal of flagged
		// listings is a moderation action.
		if e == EventRemove && Status(row.Status) != StatusDraft {
			return lifecycle.ErrForbidden
		}
		return nil
	}
	return lifecycle.ErrForbidden
}

// Listing represents a marketplace listing.
type Listing struct {
	ID          int64     `json:"id"`
	ListingID   uuid.UUID `json:"listingId"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"priceCents"`
	Category    string    `json:"category"`
	Status      Status    `json:"status"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// New creates a draft listing at version 1.
func New(ownerID uuid.UUID, title, description string, priceCents int64, category string) *Listing {
	now := time.Now().UTC()
	return &Listing{
		ListingID:   uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		PriceCents:  priceCents,
		Category:    category,
		Status:      StatusDraft,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
