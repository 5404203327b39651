package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action classifies what an audit entry records.
type Action string

const (
	// ActionTransition is emitted exactly once per committed state
	// transition.
	ActionTransition Action = "TRANSITION"
	// ActionReviewRaised is emitted when fraud heuristics or a watch rule
	// flag an account for human review.
	ActionReviewRaised Action = "REVIEW_RAISED"
)

// Entry is an immutable audit record. For transitions it captures the full
// before/after of the status change; for review records FromStatus and
// ToStatus are empty and Detail carries the flags.
type Entry struct {
	ID         int64     `json:"id"`
	AuditID    uuid.UUID `json:"auditId"`
	EntityType string    `json:"entityType"`
	EntityID   uuid.UUID `json:"entityId"`
	ActorID    uuid.UUID `json:"actorId"`
	Action     Action    `json:"action"`
	Event      string    `json:"event,omitempty"`
	FromStatus string    `json:"fromStatus,omitempty"`
	ToStatus   string    `json:"toStatus,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Signature  []byte    `json:"signature,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewTransitionEntry builds the audit record for one committed transition.
func NewTransitionEntry(entityType string, entityID, actorID uuid.UUID, event, fromStatus, toStatus string) *Entry {
	return &Entry{
		AuditID:    uuid.New(),
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Action:     ActionTransition,
		Event:      event,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewReviewEntry builds a review record for a flagged account.
func NewReviewEntry(userID uuid.UUID, detail string) *Entry {
	return &Entry{
		AuditID:    uuid.New(),
		EntityType: "user",
		EntityID:   userID,
		ActorID:    uuid.Nil,
		Action:     ActionReviewRaised,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}
}
