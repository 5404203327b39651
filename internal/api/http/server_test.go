package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appAudit "github.com/market-hub/market-hub/internal/application/audit"
	appDispute "github.com/market-hub/market-hub/internal/application/dispute"
	appIdem "github.com/market-hub/market-hub/internal/application/idempotency"
	appListing "github.com/market-hub/market-hub/internal/application/listing"
	appPolicy "github.com/market-hub/market-hub/internal/application/policy"
	appRequest "github.com/market-hub/market-hub/internal/application/request"
	"github.com/market-hub/market-hub/internal/application/transition"
	appUser "github.com/market-hub/market-hub/internal/application/user"
	"github.com/market-hub/market-hub/internal/domain/actor"
	"github.com/market-hub/market-hub/internal/domain/dispute"
	"github.com/market-hub/market-hub/internal/domain/fsm"
	domainIdem "github.com/market-hub/market-hub/internal/domain/idempotency"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/listing"
	"github.com/market-hub/market-hub/internal/domain/policy"
	"github.com/market-hub/market-hub/internal/domain/request"
	"github.com/market-hub/market-hub/internal/infrastructure/memory"
	"github.com/market-hub/market-hub/internal/infrastructure/metrics"
)

type env struct {
	server   *httptest.Server
	counters *memory.CounterStore
	listings *memory.ListingStore
	requests *memory.RequestStore
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zerolog.Nop()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	listings := memory.NewListingStore()
	requests := memory.NewRequestStore()
	disputes := memory.NewDisputeStore()
	audits := memory.NewAuditStore()
	idemStore := memory.NewIdempotencyStore()
	counters := memory.NewCounterStore()
	watchRules := memory.NewWatchStore()
	runner := memory.NewRunner()

	auditSvc := appAudit.NewService(audits, logger, []byte("test-sign-key"))
	listingCoord := transition.NewCoordinator(transition.Config{
		EntityType: "listing",
		Definition: listing.Machine,
		StateFor:   listing.StateFor,
		StatusFor:  listing.StatusFor,
		Authorize:  listing.Authorize,
	}, listings, runner, auditSvc, m, logger)
	requestCoord := transition.NewCoordinator(transition.Config{
		EntityType: "request",
		Definition: request.Machine,
		StateFor:   request.StateFor,
		StatusFor:  request.StatusFor,
		Authorize:  request.Authorize,
	}, requests, runner, auditSvc, m, logger)
	disputeCoord := transition.NewCoordinator(transition.Config{
		EntityType: "dispute",
		Definition: dispute.Machine,
		StateFor:   dispute.StateFor,
		StatusFor:  dispute.StatusFor,
		Authorize:  dispute.Authorize,
	}, disputes, runner, auditSvc, m, logger)

	policySvc := appPolicy.NewService(counters, watchRules, auditSvc, appPolicy.DefaultConfig(), m, logger)
	userSvc := appUser.NewService(memory.NewUserStore(), logger)
	listingSvc := appListing.NewService(listings, listingCoord, policySvc, logger)
	requestSvc := appRequest.NewService(requests, listings, requestCoord, runner, policySvc, logger)
	disputeSvc := appDispute.NewService(disputes, requests, disputeCoord, requestCoord, runner, logger)
	idemSvc := appIdem.NewService(idemStore, m, logger)

	srv := NewServer(listingSvc, requestSvc, disputeSvc, policySvc, userSvc, auditSvc, idemSvc, watchRules, registry)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &env{server: ts, counters: counters, listings: listings, requests: requests}
}

func (e *env) do(t *testing.T, method, path string, act actor.Actor, body interface{}, headers map[string]string) *http.Response {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req, err := http.NewRequest(method, e.server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set(headerActorID, act.ID.String())
	req.Header.Set(headerActorRole, string(act.Role))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestMissingActorHeaderUnauthorized(t *testing.T) {
	e := newEnv(t)
	req, err := http.NewRequest(http.MethodGet, e.server.URL+"/v1/listings/", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateAndSubmitListing(t *testing.T) {
	e := newEnv(t)
	owner := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}

	resp := e.do(t, http.MethodPost, "/v1/listings/", owner,
		map[string]interface{}{"title": "city bike", "priceCents": 12000, "category": "sports"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created listing.Listing
	decode(t, resp, &created)
	assert.Equal(t, listing.StatusDraft, created.Status)

	resp = e.do(t, http.MethodPost, fmt.Sprintf("/v1/listings/%s/events/submit", created.ListingID), owner, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res transition.Result
	decode(t, resp, &res)
	assert.Equal(t, "pending_review", res.ToStatus)
	assert.Equal(t, int64(2), res.Version)
}

func TestApplyEventForbiddenForStranger(t *testing.T) {
	e := newEnv(t)
	owner := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	resp := e.do(t, http.MethodPost, "/v1/listings/", owner,
		map[string]interface{}{"title": "bike", "category": "sports"}, nil)
	var created listing.Listing
	decode(t, resp, &created)

	stranger := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	resp = e.do(t, http.MethodPost, fmt.Sprintf("/v1/listings/%s/events/submit", created.ListingID), stranger, nil, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestApplyInvalidEventUnprocessable(t *testing.T) {
	e := newEnv(t)
	owner := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	resp := e.do(t, http.MethodPost, "/v1/listings/", owner,
		map[string]interface{}{"title": "bike", "category": "sports"}, nil)
	var created listing.Listing
	decode(t, resp, &created)

	resp = e.do(t, http.MethodPost, fmt.Sprintf("/v1/listings/%s/events/complete", created.ListingID), owner, nil, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestEventOnMissingEntityNotFound(t *testing.T) {
	e := newEnv(t)
	admin := actor.Actor{ID: uuid.New(), Role: actor.RoleAdmin}
	resp := e.do(t, http.MethodPost, fmt.Sprintf("/v1/listings/%s/events/submit", uuid.New()), admin, nil, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIdempotentCreateReplays(t *testing.T) {
	e := newEnv(t)
	owner := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	body := map[string]interface{}{"title": "bike", "category": "sports"}
	headers := map[string]string{headerIdempotencyKey: "create-1"}

	resp := e.do(t, http.MethodPost, "/v1/listings/", owner, body, headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(headerReplay))
	var first listing.Listing
	decode(t, resp, &first)

	resp = e.do(t, http.MethodPost, "/v1/listings/", owner, body, headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get(headerReplay))
	var second listing.Listing
	decode(t, resp, &second)
	assert.Equal(t, first.ListingID, second.ListingID)
}

func TestIdempotencyKeyReuseRejected(t *testing.T) {
	e := newEnv(t)
	owner := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	headers := map[string]string{headerIdempotencyKey: "create-1"}

	resp := e.do(t, http.MethodPost, "/v1/listings/", owner,
		map[string]interface{}{"title": "bike", "category": "sports"}, headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, "/v1/listings/", owner,
		map[string]interface{}{"title": "kayak", "category": "sports"}, headers)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestValidationBadRequest(t *testing.T) {
	e := newEnv(t)
	owner := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	resp := e.do(t, http.MethodPost, "/v1/listings/", owner,
		map[string]interface{}{"title": "", "category": "sports"}, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDomainErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", lifecycle.ErrNotFound, http.StatusNotFound},
		{"forbidden", lifecycle.ErrForbidden, http.StatusForbidden},
		{"restricted", policy.ErrRestricted, http.StatusForbidden},
		{"validation", fmt.Errorf("title is required: %w", lifecycle.ErrValidation), http.StatusBadRequest},
		{"key too long", domainIdem.ErrKeyTooLong, http.StatusBadRequest},
		{"invalid transition", &fsm.InvalidTransitionError{Machine: "listing", From: "draft", Event: "COMPLETE"}, http.StatusUnprocessableEntity},
		{"fingerprint mismatch", domainIdem.ErrFingerprintMismatch, http.StatusUnprocessableEntity},
		{"version conflict", lifecycle.ErrVersionConflict, http.StatusConflict},
		{"lock timeout", lifecycle.ErrLockTimeout, http.StatusConflict},
		{"in progress", domainIdem.ErrInProgress, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondDomainError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRestrictedUserForbidden(t *testing.T) {
	e := newEnv(t)
	owner := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	e.counters.SeedRestriction(owner.ID, 3, false)

	resp := e.do(t, http.MethodPost, "/v1/listings/", owner,
		map[string]interface{}{"title": "bike", "category": "sports"}, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTrustEndpoint(t *testing.T) {
	e := newEnv(t)
	caller := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	subject := uuid.New()
	e.counters.SeedTrust(subject, policy.TrustCounters{CompletedExchanges: 10, CancelledRequests: 4, AccountAgeDays: 10})

	resp := e.do(t, http.MethodGet, fmt.Sprintf("/v1/users/%s/trust", subject), caller, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res policy.TrustResult
	decode(t, resp, &res)
	assert.Equal(t, policy.TrustReviewRequired, res.Status)
}

func TestWatchRulesAdminOnly(t *testing.T) {
	e := newEnv(t)
	user := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	resp := e.do(t, http.MethodPost, "/v1/watch-rules/", user,
		map[string]interface{}{"name": "x", "expression": "recentDisputes > 1", "severity": "LOW"}, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin := actor.Actor{ID: uuid.New(), Role: actor.RoleAdmin}
	resp = e.do(t, http.MethodPost, "/v1/watch-rules/", admin,
		map[string]interface{}{"name": "x", "expression": "recentDisputes > 1", "severity": "LOW"}, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestDisputeFlow(t *testing.T) {
	e := newEnv(t)
	owner := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	requester := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	admin := actor.Actor{ID: uuid.New(), Role: actor.RoleAdmin}

	r := request.New(uuid.New(), requester.ID, owner.ID, "trade?", nil)
	r.Status = request.StatusCompleted
	require.NoError(t, e.requests.Create(t.Context(), r))

	resp := e.do(t, http.MethodPost, "/v1/disputes/", requester,
		map[string]interface{}{"requestId": r.RequestID, "reason": "item never arrived"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var d dispute.Dispute
	decode(t, resp, &d)

	resp = e.do(t, http.MethodPost, fmt.Sprintf("/v1/disputes/%s/events/begin_review", d.DisputeID), admin, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, fmt.Sprintf("/v1/disputes/%s/close", d.DisputeID), admin,
		map[string]interface{}{"event": "RESOLVE", "resolution": "refund issued"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res transition.Result
	decode(t, resp, &res)
	assert.Equal(t, "RESOLVED", res.ToStatus)

	resp = e.do(t, http.MethodGet, fmt.Sprintf("/v1/requests/%s", r.RequestID), requester, nil, nil)
	var got request.Request
	decode(t, resp, &got)
	assert.Equal(t, request.StatusDisputed, got.Status)
}

func TestAuditTrailEndpoint(t *testing.T) {
	e := newEnv(t)
	owner := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}
	resp := e.do(t, http.MethodPost, "/v1/listings/", owner,
		map[string]interface{}{"title": "bike", "category": "sports"}, nil)
	var created listing.Listing
	decode(t, resp, &created)
	resp = e.do(t, http.MethodPost, fmt.Sprintf("/v1/listings/%s/events/submit", created.ListingID), owner, nil, nil)
	resp.Body.Close()

	resp = e.do(t, http.MethodGet, fmt.Sprintf("/v1/listings/%s/audit", created.ListingID), owner, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Entries []json.RawMessage `json:"entries"`
	}
	decode(t, resp, &out)
	assert.Len(t, out.Entries, 1)
}

func TestUserRegistrationAndOverride(t *testing.T) {
	e := newEnv(t)
	caller := actor.Actor{ID: uuid.New(), Role: actor.RoleUser}

	resp := e.do(t, http.MethodPost, "/v1/users/", caller,
		map[string]interface{}{"displayName": "Jordan"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		UserID uuid.UUID `json:"userId"`
	}
	decode(t, resp, &created)

	resp = e.do(t, http.MethodPost, fmt.Sprintf("/v1/users/%s/override", created.UserID), caller,
		map[string]interface{}{"restricted": true}, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin := actor.Actor{ID: uuid.New(), Role: actor.RoleAdmin}
	resp = e.do(t, http.MethodPost, fmt.Sprintf("/v1/users/%s/override", created.UserID), admin,
		map[string]interface{}{"restricted": true}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodGet, fmt.Sprintf("/v1/users/%s", created.UserID), caller, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		RestrictedOverride bool `json:"restrictedOverride"`
	}
	decode(t, resp, &got)
	assert.True(t, got.RestrictedOverride)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Get(e.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsExposed(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Get(e.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
