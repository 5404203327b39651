package listing

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditsvc "github.com/market-hub/market-hub/internal/application/audit"
	"github.com/market-hub/market-hub/internal/application/transition"
	"github.com/market-hub/market-hub/internal/domain/actor"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/listing"
	"github.com/market-hub/market-hub/internal/domain/policy"
	"github.com/market-hub/market-hub/internal/infrastructure/memory"
	"github.com/market-hub/market-hub/internal/infrastructure/metrics"
)

type stubGate struct {
	blocked map[uuid.UUID]bool
}

func (g *stubGate) Allowed(_ context.Context, userID uuid.UUID, action policy.BlockedAction) error {
	if g.blocked[userID] {
		return policy.ErrRestricted
	}
	return nil
}

func newService(t *testing.T) (*Service, *stubGate, *memory.ListingStore) {
	t.Helper()
	store := memory.NewListingStore()
	runner := memory.NewRunner()
	recorder := auditsvc.NewService(memory.NewAuditStore(), zerolog.Nop(), nil)
	coordinator := transition.NewCoordinator(transition.Config{
		EntityType: "listing",
		Definition: listing.Machine,
		StateFor:   listing.StateFor,
		StatusFor:  listing.StatusFor,
		Authorize:  listing.Authorize,
	}, store, runner, recorder, metrics.NewNop(), zerolog.Nop())
	gate := &stubGate{blocked: map[uuid.UUID]bool{}}
	return NewService(store, coordinator, gate, zerolog.Nop()), gate, store
}

func TestCreateListing(t *testing.T) {
	svc, _, _ := newService(t)
	owner := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}

	l, err := svc.Create(context.Background(), owner, CreateInput{
		Title:      "city bike",
		PriceCents: 12000,
		Category:   "sports",
	})
	require.NoError(t, err)
	assert.Equal(t, listing.StatusDraft, l.Status)
	assert.Equal(t, int64(1), l.Version)
	assert.Equal(t, owner.ID, l.OwnerID)
}

func TestCreateListingValidation(t *testing.T) {
	svc, _, _ := newService(t)
	owner := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"empty title", CreateInput{Category: "sports"}},
		{"whitespace title", CreateInput{Title: "   ", Category: "sports"}},
		{"title too long", CreateInput{Title: strings.Repeat("x", maxTitleLength+1), Category: "sports"}},
		{"negative price", CreateInput{Title: "bike", PriceCents: -1, Category: "sports"}},
		{"missing category", CreateInput{Title: "bike"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), owner, tc.in)
			assert.ErrorIs(t, err, lifecycle.ErrValidation)
		})
	}
}

func TestCreateListingRestricted(t *testing.T) {
	svc, gate, _ := newService(t)
	owner := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	gate.blocked[owner.ID] = true

	_, err := svc.Create(context.Background(), owner, CreateInput{Title: "bike", Category: "sports"})
	assert.ErrorIs(t, err, policy.ErrRestricted)
}

func TestGetNotFound(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)
}

func TestApplySubmit(t *testing.T) {
	svc, _, _ := newService(t)
	owner := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	l, err := svc.Create(context.Background(), owner, CreateInput{Title: "bike", Category: "sports"})
	require.NoError(t, err)

	res, err := svc.Apply(context.Background(), l.ListingID, listing.EventSubmit, owner)
	require.NoError(t, err)
	assert.Equal(t, string(listing.StatusPendingReview), res.ToStatus)

	got, err := svc.Get(context.Background(), l.ListingID)
	require.NoError(t, err)
	assert.Equal(t, listing.StatusPendingReview, got.Status)
}

func TestListFiltersByStatus(t *testing.T) {
	svc, _, _ := newService(t)
	owner := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	first, err := svc.Create(context.Background(), owner, CreateInput{Title: "bike", Category: "sports"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), owner, CreateInput{Title: "kayak", Category: "sports"})
	require.NoError(t, err)
	_, err = svc.Apply(context.Background(), first.ListingID, listing.EventSubmit, owner)
	require.NoError(t, err)

	pending := listing.StatusPendingReview
	got, err := svc.List(context.Background(), &pending, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.ListingID, got[0].ListingID)
}
