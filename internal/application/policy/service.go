// Package policy exposes the derived account classifications: trust status,
// restriction verdicts and fraud risk. Nothing here is persisted; every call
// recomputes from the current counters.
package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/market-hub/market-hub/internal/domain/audit"
	"github.com/market-hub/market-hub/internal/domain/policy"
	"github.com/market-hub/market-hub/internal/domain/watch"
	"github.com/market-hub/market-hub/internal/infrastructure/metrics"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_service.go -package=mocks . CounterStore,Raiser

// CounterStore supplies the behavioral aggregates the engines run on.
type CounterStore interface {
	TrustCounters(ctx context.Context, userID uuid.UUID) (policy.TrustCounters, error)
	FraudCounters(ctx context.Context, userID uuid.UUID) (policy.FraudCounters, error)
	RestrictionFacts(ctx context.Context, userID uuid.UUID) (activeDisputes float64, adminOverride bool, err error)
}

// Raiser raises review records without blocking the caller.
type Raiser interface {
	Raise(ctx context.Context, e *audit.Entry)
}

// Config bundles the three engine threshold sets.
type Config struct {
	Trust       policy.TrustConfig
	Restriction policy.RestrictionConfig
	Fraud       policy.FraudConfig
}

// DefaultConfig returns the standard thresholds for all three engines.
func DefaultConfig() Config {
	return Config{
		Trust:       policy.DefaultTrustConfig(),
		Restriction: policy.DefaultRestrictionConfig(),
		Fraud:       policy.DefaultFraudConfig(),
	}
}

// FraudReport is the fraud verdict plus any watch rules that matched.
type FraudReport struct {
	policy.FraudResult
	WatchMatches []watch.Match `json:"watchMatches"`
}

// Service computes policy verdicts on demand.
type Service struct {
	counters CounterStore
	rules    watch.Repository
	raiser   Raiser
	cfg      Config
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewService creates a policy service. rules may be nil to disable watch
// rules.
func NewService(counters CounterStore, rules watch.Repository, raiser Raiser, cfg Config, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		counters: counters,
		rules:    rules,
		raiser:   raiser,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.With().Str("service", "policy").Logger(),
	}
}

// Trust computes the user's trust status from current counters.
func (s *Service) Trust(ctx context.Context, userID uuid.UUID) (policy.TrustResult, error) {
	c, err := s.counters.TrustCounters(ctx, userID)
	if err != nil {
		return policy.TrustResult{}, fmt.Errorf("load trust counters: %w", err)
	}
	return policy.ComputeTrust(s.cfg.Trust, c), nil
}

// Restriction computes whether the user is blocked from acting. The trust
// status feeding the verdict is recomputed, never read from storage.
func (s *Service) Restriction(ctx context.Context, userID uuid.UUID) (policy.RestrictionResult, error) {
	trust, err := s.Trust(ctx, userID)
	if err != nil {
		return policy.RestrictionResult{}, err
	}
	activeDisputes, adminOverride, err := s.counters.RestrictionFacts(ctx, userID)
	if err != nil {
		return policy.RestrictionResult{}, fmt.Errorf("load restriction facts: %w", err)
	}
	return policy.ComputeRestriction(s.cfg.Restriction, policy.RestrictionInput{
		TrustStatus:    trust.Status,
		ActiveDisputes: activeDisputes,
		AdminOverride:  adminOverride,
	}), nil
}

// Allowed reports whether the user may perform the action right now.
func (s *Service) Allowed(ctx context.Context, userID uuid.UUID, action policy.BlockedAction) error {
	res, err := s.Restriction(ctx, userID)
	if err != nil {
		return err
	}
	for _, blocked := range res.BlockedActions {
		if blocked == action {
			return fmt.Errorf("action %s blocked: %s: %w", action, strings.Join(res.Reasons, "; "), policy.ErrRestricted)
		}
	}
	return nil
}

// Fraud runs the spike heuristics and the active watch rules. A HIGH verdict
// or any matched rule raises a review record asynchronously; the verdict
// itself never restricts anyone.
func (s *Service) Fraud(ctx context.Context, userID uuid.UUID) (*FraudReport, error) {
	c, err := s.counters.FraudCounters(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load fraud counters: %w", err)
	}
	report := &FraudReport{
		FraudResult:  policy.EvaluateFraudHeuristics(s.cfg.Fraud, c),
		WatchMatches: []watch.Match{},
	}

	if s.rules != nil {
		active, err := s.rules.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("load watch rules: %w", err)
		}
		params := watch.Params(c)
		for _, rule := range active {
			matched, err := rule.Evaluate(params)
			if err != nil {
				// A broken rule must not take the endpoint down.
				s.logger.Warn().Err(err).Str("ruleId", rule.RuleID.String()).Msg("watch rule evaluation failed")
				continue
			}
			if matched {
				report.WatchMatches = append(report.WatchMatches, watch.Match{
					RuleID:   rule.RuleID,
					Name:     rule.Name,
					Severity: rule.Severity,
				})
			}
		}
	}

	if report.RiskLevel == policy.RiskHigh || len(report.WatchMatches) > 0 {
		s.raiseReview(ctx, userID, report)
	}
	return report, nil
}

func (s *Service) raiseReview(ctx context.Context, userID uuid.UUID, report *FraudReport) {
	detail := make([]string, 0, len(report.Flags)+len(report.WatchMatches)+1)
	detail = append(detail, fmt.Sprintf("risk=%s", report.RiskLevel))
	detail = append(detail, report.Flags...)
	for _, m := range report.WatchMatches {
		detail = append(detail, fmt.Sprintf("watch rule %q matched (severity %s)", m.Name, m.Severity))
	}
	s.raiser.Raise(ctx, audit.NewReviewEntry(userID, strings.Join(detail, "; ")))
	s.metrics.ReviewsRaised.Inc()
	s.logger.Info().
		Str("userId", userID.String()).
		Str("riskLevel", string(report.RiskLevel)).
		Int("watchMatches", len(report.WatchMatches)).
		Msg("review record raised")
}
