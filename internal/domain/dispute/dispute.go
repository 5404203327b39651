package dispute

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/actor"
	"github.com/market-hub/market-hub/internal/domain/fsm"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
)

// Status represents the persisted dispute status.
type Status string

const (
	StatusOpen        Status = "OPEN"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusResolved    Status = "RESOLVED"
	StatusRejected    Status = "REJECTED"
	StatusEscalated   Status = "ESCALATED"
)

// Dispute machine events.
const (
	EventBeginReview fsm.Event = "BEGIN_REVIEW"
	EventResolve     fsm.Event = "RESOLVE"
	EventReject      fsm.Event = "REJECT"
	EventEscalate    fsm.Event = "ESCALATE"
)

// Machine is the sealed dispute transition table. The graph is acyclic:
// RESOLVED, REJECTED and ESCALATED are terminal and nothing leads back to
// OPEN.
var Machine = fsm.MustNewDefinition("dispute", "OPEN", map[fsm.State]map[fsm.Event]fsm.State{
	"OPEN": {
		EventBeginReview: "UNDER_REVIEW",
	},
	"UNDER_REVIEW": {
		EventResolve:  "RESOLVED",
		EventReject:   "REJECTED",
		EventEscalate: "ESCALATED",
	},
})

var statusState = map[Status]fsm.State{
	StatusOpen:        "OPEN",
	StatusUnderReview: "UNDER_REVIEW",
	StatusResolved:    "RESOLVED",
	StatusRejected:    "REJECTED",
	StatusEscalated:   "ESCALATED",
}

var stateStatus = invertStatusState(statusState)

func invertStatusState(m map[Status]fsm.State) map[fsm.State]Status {
	out := make(map[fsm.State]Status, len(m))
	for status, state := range m {
		if _, dup := out[state]; dup {
			panic("dispute: status/state mapping is not bijective: " + state)
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

// Authorize restricts all dispute events to moderators.
func Authorize(_ *lifecycle.Row, a actor.Actor, _ fsm.Event) error {
	if a.IsAdmin() {
		return nil
	}
	return lifecycle.ErrForbidden
}

// Dispute represents a dispute raised against a completed exchange.
type Dispute struct {
	ID           int64           `json:"id"`
	DisputeID    uuid.UUID       `json:"disputeId"`
	RequestID    uuid.UUID       `json:"requestId"`
	OpenedBy     uuid.UUID       `json:"openedBy"`
	RespondentID uuid.UUID       `json:"respondentId"`
	Reason       string          `json:"reason"`
	Evidence     json.RawMessage `json:"evidence,omitempty"`
	Resolution   *string         `json:"resolution,omitempty"`
	Status       Status          `json:"status"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// New opens a dispute at OPEN, version 1.
func New(requestID, openedBy, respondentID uuid.UUID, reason string, evidence json.RawMessage) *Dispute {
	now := time.Now().UTC()
	return &Dispute{
		DisputeID:    uuid.New(),
		RequestID:    requestID,
		OpenedBy:     openedBy,
		RespondentID: respondentID,
		Reason:       reason,
		Evidence:     evidence,
		Status:       StatusOpen,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
