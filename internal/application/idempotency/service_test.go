package idempotency

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/market-hub/market-hub/internal/domain/idempotency"
	"github.com/market-hub/market-hub/internal/infrastructure/memory"
	"github.com/market-hub/market-hub/internal/infrastructure/metrics"
)

func newService(t *testing.T) (*Service, *memory.IdempotencyStore) {
	t.Helper()
	store := memory.NewIdempotencyStore()
	return NewService(store, metrics.NewNop(), zerolog.Nop()), store
}

func TestClaimFreshKey(t *testing.T) {
	svc, _ := newService(t)
	actor := uuid.New()

	key, res, err := svc.Claim(context.Background(), actor, "k1", http.MethodPost, "/listings", []byte(`{"title":"bike"}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeClaimed, res.Outcome)
	assert.Equal(t, actor.String()+":k1", key)
}

func TestClaimReplaysCompletedRecord(t *testing.T) {
	svc, _ := newService(t)
	actor := uuid.New()
	body := []byte(`{"title":"bike"}`)

	key, res, err := svc.Claim(context.Background(), actor, "k1", http.MethodPost, "/listings", body)
	require.NoError(t, err)
	require.Equal(t, OutcomeClaimed, res.Outcome)
	require.NoError(t, svc.Complete(context.Background(), key, http.StatusCreated, []byte(`{"listingId":"x"}`)))

	_, res, err = svc.Claim(context.Background(), actor, "k1", http.MethodPost, "/listings", body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplayed, res.Outcome)
	assert.Equal(t, http.StatusCreated, res.Status)
	assert.JSONEq(t, `{"listingId":"x"}`, string(res.Body))
}

func TestClaimInProgress(t *testing.T) {
	svc, _ := newService(t)
	actor := uuid.New()
	body := []byte(`{}`)

	_, _, err := svc.Claim(context.Background(), actor, "k1", http.MethodPost, "/listings", body)
	require.NoError(t, err)

	_, _, err = svc.Claim(context.Background(), actor, "k1", http.MethodPost, "/listings", body)
	assert.ErrorIs(t, err, domain.ErrInProgress)
}

func TestClaimFingerprintMismatch(t *testing.T) {
	svc, _ := newService(t)
	actor := uuid.New()

	key, _, err := svc.Claim(context.Background(), actor, "k1", http.MethodPost, "/listings", []byte(`{"title":"bike"}`))
	require.NoError(t, err)
	require.NoError(t, svc.Complete(context.Background(), key, http.StatusCreated, nil))

	_, _, err = svc.Claim(context.Background(), actor, "k1", http.MethodPost, "/listings", []byte(`{"title":"kayak"}`))
	assert.ErrorIs(t, err, domain.ErrFingerprintMismatch)
}

func TestClaimKeyTooLong(t *testing.T) {
	svc, _ := newService(t)
	long := make([]byte, domain.MaxKeyLength+1)
	for i := range long {
		long[i] = 'a'
	}

	_, _, err := svc.Claim(context.Background(), uuid.New(), string(long), http.MethodPost, "/listings", nil)
	assert.ErrorIs(t, err, domain.ErrKeyTooLong)
}

func TestKeysAreActorScoped(t *testing.T) {
	svc, _ := newService(t)
	body := []byte(`{}`)

	_, res1, err := svc.Claim(context.Background(), uuid.New(), "shared", http.MethodPost, "/listings", body)
	require.NoError(t, err)
	_, res2, err := svc.Claim(context.Background(), uuid.New(), "shared", http.MethodPost, "/listings", body)
	require.NoError(t, err)

	assert.Equal(t, OutcomeClaimed, res1.Outcome)
	assert.Equal(t, OutcomeClaimed, res2.Outcome)
}

func TestCompleteServerFaultNotCached(t *testing.T) {
	svc, store := newService(t)
	actor := uuid.New()
	body := []byte(`{}`)

	key, _, err := svc.Claim(context.Background(), actor, "k1", http.MethodPost, "/listings", body)
	require.NoError(t, err)
	require.NoError(t, svc.Complete(context.Background(), key, http.StatusInternalServerError, []byte("boom")))
	assert.Equal(t, 0, store.Len())

	_, res, err := svc.Claim(context.Background(), actor, "k1", http.MethodPost, "/listings", body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeClaimed, res.Outcome)
}

func TestClaimEvictsExpiredRecord(t *testing.T) {
	svc, _ := newService(t)
	actor := uuid.New()
	body := []byte(`{}`)

	key, _, err := svc.Claim(context.Background(), actor, "k1", http.MethodPost, "/listings", body)
	require.NoError(t, err)
	require.NoError(t, svc.Complete(context.Background(), key, http.StatusCreated, nil))

	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	_, res, err := svc.Claim(context.Background(), actor, "k1", http.MethodPost, "/listings", body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeClaimed, res.Outcome)
}

func TestSweepRemovesExpired(t *testing.T) {
	svc, store := newService(t)
	actor := uuid.New()

	key, _, err := svc.Claim(context.Background(), actor, "k1", http.MethodPost, "/listings", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Complete(context.Background(), key, http.StatusCreated, nil))
	_, _, err = svc.Claim(context.Background(), actor, "k2", http.MethodPost, "/listings", nil)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	removed, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, 0, store.Len())
}
