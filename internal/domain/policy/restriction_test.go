package policy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRestrictionSeverityOrder(t *testing.T) {
	cfg := DefaultRestrictionConfig()

	tests := []struct {
		name       string
		in         RestrictionInput
		restricted bool
		reason     string
	}{
		{
			name:       "admin override wins",
			in:         RestrictionInput{TrustStatus: TrustGoodStanding, AdminOverride: true},
			restricted: true,
			reason:     "administrative override",
		},
		{
			name:       "restricted trust",
			in:         RestrictionInput{TrustStatus: TrustRestricted},
			restricted: true,
			reason:     "trust status is RESTRICTED",
		},
		{
			name:       "active disputes at threshold",
			in:         RestrictionInput{TrustStatus: TrustGoodStanding, ActiveDisputes: 2},
			restricted: true,
			reason:     "active disputes",
		},
		{
			name:       "review required alone does not restrict",
			in:         RestrictionInput{TrustStatus: TrustReviewRequired, ActiveDisputes: 1},
			restricted: false,
		},
		{
			name:       "clean account",
			in:         RestrictionInput{TrustStatus: TrustGoodStanding},
			restricted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ComputeRestriction(cfg, tt.in)
			assert.Equal(t, tt.restricted, res.IsRestricted)
			if tt.restricted {
				assert.Equal(t, AllBlockedActions(), res.BlockedActions)
				require.Len(t, res.Reasons, 1)
				assert.Contains(t, res.Reasons[0], tt.reason)
			} else {
				assert.Empty(t, res.BlockedActions)
				assert.Empty(t, res.Reasons)
			}
		})
	}
}

func TestComputeRestrictionSanitizesDisputes(t *testing.T) {
	cfg := DefaultRestrictionConfig()
	for _, v := range []float64{math.NaN(), math.Inf(1), -3} {
		res := ComputeRestriction(cfg, RestrictionInput{TrustStatus: TrustGoodStanding, ActiveDisputes: v})
		assert.False(t, res.IsRestricted, "disputes=%v", v)
	}
}

func TestComputeRestrictionDeterminism(t *testing.T) {
	cfg := DefaultRestrictionConfig()
	in := RestrictionInput{TrustStatus: TrustRestricted, ActiveDisputes: 1}
	first := ComputeRestriction(cfg, in)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, ComputeRestriction(cfg, in))
	}
}
