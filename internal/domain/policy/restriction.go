package policy

import (
	"errors"
	"fmt"
)

// ErrRestricted means the user is currently blocked from the action.
var ErrRestricted = errors.New("user is restricted")

// BlockedAction names a user action the restriction engine can block.
// Restriction is binary per user: either everything here is blocked or
// nothing is.
type BlockedAction string

const (
	ActionCreateListing   BlockedAction = "create_listing"
	ActionRequestExchange BlockedAction = "request_exchange"
	ActionRequestContact  BlockedAction = "request_contact"
)

// AllBlockedActions returns the fixed blocked-action enumeration.
func AllBlockedActions() []BlockedAction {
	return []BlockedAction{ActionCreateListing, ActionRequestExchange, ActionRequestContact}
}

// RestrictionInput feeds ComputeRestriction.
type RestrictionInput struct {
	TrustStatus    TrustStatus `json:"trustStatus"`
	ActiveDisputes float64     `json:"activeDisputes"`
	AdminOverride  bool        `json:"adminOverride"`
}

// RestrictionResult is the verdict of ComputeRestriction.
type RestrictionResult struct {
	IsRestricted   bool            `json:"isRestricted"`
	BlockedActions []BlockedAction `json:"blockedActions"`
	Reasons        []string        `json:"reasons"`
}

// RestrictionConfig holds the restriction engine thresholds.
type RestrictionConfig struct {
	DisputeThreshold int
}

// DefaultRestrictionConfig returns the standard thresholds.
func DefaultRestrictionConfig() RestrictionConfig {
	return RestrictionConfig{DisputeThreshold: 2}
}

// ComputeRestriction decides whether a user is blocked from acting. Checks
// run in severity order and the first match wins.
func ComputeRestriction(cfg RestrictionConfig, in RestrictionInput) RestrictionResult {
	activeDisputes := sanitizeCounter(in.ActiveDisputes)

	restricted := func(reason string) RestrictionResult {
		return RestrictionResult{
			IsRestricted:   true,
			BlockedActions: AllBlockedActions(),
			Reasons:        []string{reason},
		}
	}

	switch {
	case in.AdminOverride:
		return restricted("administrative override")
	case in.TrustStatus == TrustRestricted:
		return restricted("trust status is RESTRICTED")
	case activeDisputes >= cfg.DisputeThreshold:
		return restricted(fmt.Sprintf("%d active disputes meet threshold %d", activeDisputes, cfg.DisputeThreshold))
	default:
		return RestrictionResult{IsRestricted: false, BlockedActions: []BlockedAction{}, Reasons: []string{}}
	}
}
