// Package watch holds admin-defined watch rules: boolean expressions over the
// fraud counters that raise review records when they match. Watch rules
// supplement the fixed fraud heuristics; they never change the derived risk
// level.
package watch

import (
	"errors"
	"fmt"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/policy"
)

// Status represents the status of a watch rule.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Severity of a matched rule, carried into the review record.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

var ErrEmptyExpression = errors.New("watch rule expression is empty")

// Rule is a versionless admin-defined expression over the counter parameters
// recentListings, recentCancellations, recentDisputes and accountAgeDays.
type Rule struct {
	ID         int64     `json:"id"`
	RuleID     uuid.UUID `json:"ruleId"`
	Name       string    `json:"name"`
	Expression string    `json:"expression"`
	Severity   Severity  `json:"severity"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewRule creates an active rule, validating that the expression parses.
func NewRule(name, expression string, severity Severity) (*Rule, error) {
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	if _, err := govaluate.NewEvaluableExpression(expression); err != nil {
		return nil, fmt.Errorf("invalid watch rule expression: %w", err)
	}
	now := time.Now().UTC()
	return &Rule{
		RuleID:     uuid.New(),
		Name:       name,
		Expression: expression,
		Severity:   severity,
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Match records a rule that fired for a user.
type Match struct {
	RuleID   uuid.UUID `json:"ruleId"`
	Name     string    `json:"name"`
	Severity Severity  `json:"severity"`
}

// Params builds the expression parameter set from fraud counters, sanitized
// the same way the heuristics engine sanitizes them.
func Params(c policy.FraudCounters) map[string]interface{} {
	sanitized := c.Sanitized()
	return map[string]interface{}{
		"recentListings":      sanitized.RecentListings,
		"recentCancellations": sanitized.RecentCancellations,
		"recentDisputes":      sanitized.RecentDisputes,
		"accountAgeDays":      sanitized.AccountAgeDays,
	}
}

// Evaluate runs the rule expression against the parameters. Non-boolean
// results are an error, matching nothing.
func (r *Rule) Evaluate(params map[string]interface{}) (bool, error) {
	expr, err := govaluate.NewEvaluableExpression(r.Expression)
	if err != nil {
		return false, err
	}
	result, err := expr.Evaluate(params)
	if err != nil {
		return false, err
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("watch rule %s did not evaluate to boolean", r.RuleID)
	}
	return matched, nil
}
