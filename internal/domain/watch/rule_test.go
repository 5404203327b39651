package watch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-hub/market-hub/internal/domain/policy"
)

func TestNewRuleValidatesExpression(t *testing.T) {
	r, err := NewRule("listing burst", "recentListings > 20 && accountAgeDays < 7", SeverityHigh)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, r.Status)
	assert.NotEmpty(t, r.RuleID)

	_, err = NewRule("bad", "recentListings >>> 3", SeverityLow)
	assert.Error(t, err)

	_, err = NewRule("empty", "", SeverityLow)
	assert.ErrorIs(t, err, ErrEmptyExpression)
}

func TestRuleEvaluate(t *testing.T) {
	r, err := NewRule("dispute ratio", "recentDisputes >= 2 && recentCancellations > 3", SeverityMedium)
	require.NoError(t, err)

	matched, err := r.Evaluate(Params(policy.FraudCounters{RecentDisputes: 2, RecentCancellations: 4}))
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = r.Evaluate(Params(policy.FraudCounters{RecentDisputes: 1, RecentCancellations: 9}))
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestRuleEvaluateNonBoolean(t *testing.T) {
	r := &Rule{Expression: "recentListings + 1"}
	_, err := r.Evaluate(Params(policy.FraudCounters{}))
	assert.Error(t, err)
}

func TestParamsSanitizeCounters(t *testing.T) {
	params := Params(policy.FraudCounters{
		RecentListings:      math.NaN(),
		RecentCancellations: -4,
		RecentDisputes:      2.9,
		AccountAgeDays:      math.Inf(1),
	})
	assert.Equal(t, float64(0), params["recentListings"])
	assert.Equal(t, float64(0), params["recentCancellations"])
	assert.Equal(t, float64(2), params["recentDisputes"])
	assert.Equal(t, float64(0), params["accountAgeDays"])
}
