package actor

import (
	"fmt"

	"github.com/google/uuid"
)

// Role classifies who is requesting an operation.
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleSystem Role = "system"
)

// ParseRole parses a string to Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleSystem:
		return Role(s), nil
	default:
		return "", fmt.Errorf("invalid actor role: %s", s)
	}
}

// Actor is an authenticated caller, supplied by the upstream gateway.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a Actor) IsSystem() bool { return a.Role == RoleSystem }

// System returns the actor used by background maintenance transitions.
func System() Actor {
	return Actor{ID: uuid.Nil, Role: RoleSystem}
}
