package policy

import "fmt"

// RiskLevel is a derived fraud-risk classification. HIGH only signals that a
// review record should be raised; this engine never restricts anyone.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Fraud heuristic flags.
const (
	FlagListingSpike           = "LISTING_SPIKE"
	FlagCancellationSpike      = "CANCELLATION_SPIKE"
	FlagDisputeSpike           = "DISPUTE_SPIKE"
	FlagNewAccountListingSpike = "NEW_ACCOUNT_LISTING_SPIKE"
)

// FraudCounters are recent-window behavioral counters supplied by the store.
type FraudCounters struct {
	RecentListings      float64 `json:"recentListings"`
	RecentCancellations float64 `json:"recentCancellations"`
	RecentDisputes      float64 `json:"recentDisputes"`
	AccountAgeDays      float64 `json:"accountAgeDays"`
}

// Sanitized returns a copy with each counter normalized (non-finite and
// negative values zeroed, fractions floored).
func (c FraudCounters) Sanitized() FraudCounters {
	return FraudCounters{
		RecentListings:      float64(sanitizeCounter(c.RecentListings)),
		RecentCancellations: float64(sanitizeCounter(c.RecentCancellations)),
		RecentDisputes:      float64(sanitizeCounter(c.RecentDisputes)),
		AccountAgeDays:      float64(sanitizeCounter(c.AccountAgeDays)),
	}
}

// FraudResult is the verdict of EvaluateFraudHeuristics.
type FraudResult struct {
	RiskLevel RiskLevel `json:"riskLevel"`
	Flags     []string  `json:"flags"`
}

// FraudConfig holds the fraud heuristics thresholds.
type FraudConfig struct {
	ListingSpikeLimit      int
	CancellationSpikeLimit int
	DisputeSpikeLimit      int
	NewAccountDays         int
	NewAccountListingLimit int
}

// DefaultFraudConfig returns the standard thresholds.
func DefaultFraudConfig() FraudConfig {
	return FraudConfig{
		ListingSpikeLimit:      10,
		CancellationSpikeLimit: 5,
		DisputeSpikeLimit:      2,
		NewAccountDays:         30,
		NewAccountListingLimit: 3,
	}
}

// EvaluateFraudHeuristics runs four independent spike rules and derives the
// risk level purely from the flag count: 0 LOW, 1 MEDIUM, 2+ HIGH.
func EvaluateFraudHeuristics(cfg FraudConfig, c FraudCounters) FraudResult {
	listings := sanitizeCounter(c.RecentListings)
	cancellations := sanitizeCounter(c.RecentCancellations)
	disputes := sanitizeCounter(c.RecentDisputes)
	ageDays := sanitizeCounter(c.AccountAgeDays)

	flags := []string{}
	if listings > cfg.ListingSpikeLimit {
		flags = append(flags, fmt.Sprintf("%s: %d listings exceed limit %d", FlagListingSpike, listings, cfg.ListingSpikeLimit))
	}
	if cancellations > cfg.CancellationSpikeLimit {
		flags = append(flags, fmt.Sprintf("%s: %d cancellations exceed limit %d", FlagCancellationSpike, cancellations, cfg.CancellationSpikeLimit))
	}
	if disputes > cfg.DisputeSpikeLimit {
		flags = append(flags, fmt.Sprintf("%s: %d disputes exceed limit %d", FlagDisputeSpike, disputes, cfg.DisputeSpikeLimit))
	}
	if ageDays < cfg.NewAccountDays && listings > cfg.NewAccountListingLimit {
		flags = append(flags, fmt.Sprintf("%s: %d listings exceed new-account limit %d", FlagNewAccountListingSpike, listings, cfg.NewAccountListingLimit))
	}

	level := RiskLow
	switch {
	case len(flags) >= 2:
		level = RiskHigh
	case len(flags) == 1:
		level = RiskMedium
	}
	return FraudResult{RiskLevel: level, Flags: flags}
}
