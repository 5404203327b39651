package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-hub/market-hub/internal/domain/policy"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddr)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, policy.DefaultTrustConfig(), cfg.Trust)
	assert.Equal(t, policy.DefaultRestrictionConfig(), cfg.Restriction)
	assert.Equal(t, policy.DefaultFraudConfig(), cfg.Fraud)
}

func TestLoadPolicyThresholdOverrides(t *testing.T) {
	t.Setenv("TRUST_DISPUTE_LIMIT", "4")
	t.Setenv("TRUST_CANCEL_RATIO_LIMIT", "0.5")
	t.Setenv("RESTRICTION_DISPUTE_THRESHOLD", "3")
	t.Setenv("FRAUD_LISTING_SPIKE_LIMIT", "20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Trust.DisputeLimit)
	assert.Equal(t, 0.5, cfg.Trust.CancelRatioLimit)
	assert.Equal(t, 3, cfg.Restriction.DisputeThreshold)
	assert.Equal(t, 20, cfg.Fraud.ListingSpikeLimit)
	// untouched thresholds keep their defaults
	assert.Equal(t, policy.DefaultTrustConfig().CancelledLimit, cfg.Trust.CancelledLimit)
	assert.Equal(t, policy.DefaultFraudConfig().DisputeSpikeLimit, cfg.Fraud.DisputeSpikeLimit)
}

func TestLoadIgnoresMalformedThreshold(t *testing.T) {
	t.Setenv("TRUST_DISPUTE_LIMIT", "many")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, policy.DefaultTrustConfig().DisputeLimit, cfg.Trust.DisputeLimit)
}
