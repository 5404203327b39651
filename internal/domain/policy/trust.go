package policy

import "fmt"

// TrustStatus is a derived, non-persisted account classification.
type TrustStatus string

const (
	TrustGoodStanding   TrustStatus = "GOOD_STANDING"
	TrustReviewRequired TrustStatus = "REVIEW_REQUIRED"
	TrustRestricted     TrustStatus = "RESTRICTED"
)

// TrustCounters are behavioral counters supplied by the store. Values are
// float64 so malformed upstream aggregates (NaN, Inf, negatives, fractions)
// can be sanitized instead of rejected.
type TrustCounters struct {
	CompletedExchanges float64 `json:"completedExchanges"`
	CancelledRequests  float64 `json:"cancelledRequests"`
	Disputes           float64 `json:"disputes"`
	AdminFlags         float64 `json:"adminFlags"`
	AccountAgeDays     float64 `json:"accountAgeDays"`
}

// TrustResult is the verdict of ComputeTrust. Identical counters always
// produce an identical result.
type TrustResult struct {
	Status  TrustStatus `json:"status"`
	Reasons []string    `json:"reasons"`
}

// TrustConfig holds the trust engine thresholds, injected at startup.
type TrustConfig struct {
	DisputeLimit           int
	CancelledLimit         int
	NewAccountDays         int
	CancelRatioLimit       float64
	EstablishedAccountDays int
}

// DefaultTrustConfig returns the standard thresholds.
func DefaultTrustConfig() TrustConfig {
	return TrustConfig{
		DisputeLimit:           2,
		CancelledLimit:         5,
		NewAccountDays:         30,
		CancelRatioLimit:       0.3,
		EstablishedAccountDays: 180,
	}
}

// ComputeTrust derives a trust status from behavioral counters. An admin flag
// restricts immediately and overrides everything else; the remaining rules
// accumulate reasons and any reason demotes the account to REVIEW_REQUIRED.
func ComputeTrust(cfg TrustConfig, c TrustCounters) TrustResult {
	completed := sanitizeCounter(c.CompletedExchanges)
	cancelled := sanitizeCounter(c.CancelledRequests)
	disputes := sanitizeCounter(c.Disputes)
	adminFlags := sanitizeCounter(c.AdminFlags)
	ageDays := sanitizeCounter(c.AccountAgeDays)

	if adminFlags >= 1 {
		return TrustResult{
			Status:  TrustRestricted,
			Reasons: []string{fmt.Sprintf("account flagged by administrator (%d flags)", adminFlags)},
		}
	}

	var reasons []string
	if disputes > cfg.DisputeLimit {
		reasons = append(reasons, fmt.Sprintf("disputes %d exceed limit %d", disputes, cfg.DisputeLimit))
	}
	if cancelled > cfg.CancelledLimit {
		reasons = append(reasons, fmt.Sprintf("cancelled requests %d exceed limit %d", cancelled, cfg.CancelledLimit))
	}
	if ageDays < cfg.NewAccountDays && completed > 0 {
		ratio := float64(cancelled) / float64(completed)
		if ratio > cfg.CancelRatioLimit {
			reasons = append(reasons, fmt.Sprintf("new account cancel/complete ratio %.2f exceeds limit %.2f", ratio, cfg.CancelRatioLimit))
		}
	}

	if len(reasons) > 0 {
		return TrustResult{Status: TrustReviewRequired, Reasons: reasons}
	}

	result := TrustResult{Status: TrustGoodStanding, Reasons: []string{}}
	if ageDays >= cfg.EstablishedAccountDays {
		result.Reasons = append(result.Reasons, fmt.Sprintf("established account (%d days)", ageDays))
	}
	return result
}
