// Package httpapi exposes the REST surface: listings, exchange requests,
// disputes, policy verdicts, watch rules and the audit log. Transition
// endpoints are one POST per machine event; mutations honor Idempotency-Key.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appAudit "github.com/market-hub/market-hub/internal/application/audit"
	appDispute "github.com/market-hub/market-hub/internal/application/dispute"
	appIdem "github.com/market-hub/market-hub/internal/application/idempotency"
	appListing "github.com/market-hub/market-hub/internal/application/listing"
	appPolicy "github.com/market-hub/market-hub/internal/application/policy"
	appRequest "github.com/market-hub/market-hub/internal/application/request"
	appUser "github.com/market-hub/market-hub/internal/application/user"
	"github.com/market-hub/market-hub/internal/domain/fsm"
	domainIdem "github.com/market-hub/market-hub/internal/domain/idempotency"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/policy"
	"github.com/market-hub/market-hub/internal/domain/watch"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	listingSvc *appListing.Service
	requestSvc *appRequest.Service
	disputeSvc *appDispute.Service
	policySvc  *appPolicy.Service
	userSvc    *appUser.Service
	auditSvc   *appAudit.Service
	idemSvc    *appIdem.Service
	watchRepo  watch.Repository
	registry   *prometheus.Registry
}

func NewServer(
	listingSvc *appListing.Service,
	requestSvc *appRequest.Service,
	disputeSvc *appDispute.Service,
	policySvc *appPolicy.Service,
	userSvc *appUser.Service,
	auditSvc *appAudit.Service,
	idemSvc *appIdem.Service,
	watchRepo watch.Repository,
	registry *prometheus.Registry,
) *Server {
	return &Server{
		listingSvc: listingSvc,
		requestSvc: requestSvc,
		disputeSvc: disputeSvc,
		policySvc:  policySvc,
		userSvc:    userSvc,
		auditSvc:   auditSvc,
		idemSvc:    idemSvc,
		watchRepo:  watchRepo,
		registry:   registry,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.healthz)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requireActor)
			r.Use(s.idempotency)

			r.Route("/listings", func(r chi.Router) {
				r.Post("/", s.createListing)
				r.Get("/", s.listListings)
				r.Get("/{listingId}", s.getListing)
				r.Post("/{listingId}/events/{event}", s.applyListingEvent)
				r.Get("/{listingId}/audit", s.listListingAudit)
			})

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", s.createRequest)
				r.Get("/", s.listRequests)
				r.Get("/{requestId}", s.getRequest)
				r.Post("/{requestId}/events/{event}", s.applyRequestEvent)
				r.Post("/{requestId}/schedule", s.scheduleRequest)
				r.Get("/{requestId}/audit", s.listRequestAudit)
			})

			r.Route("/disputes", func(r chi.Router) {
				r.Post("/", s.openDispute)
				r.Get("/", s.listDisputes)
				r.Get("/{disputeId}", s.getDispute)
				r.Post("/{disputeId}/events/{event}", s.applyDisputeEvent)
				r.Post("/{disputeId}/close", s.closeDispute)
				r.Get("/{disputeId}/audit", s.listDisputeAudit)
			})

			r.Route("/users", func(r chi.Router) {
				r.Post("/", s.createUser)
				r.Get("/", s.listUsers)
				r.Route("/{userId}", func(r chi.Router) {
					r.Get("/", s.getUser)
					r.Get("/trust", s.getTrust)
					r.Get("/restriction", s.getRestriction)
					r.Get("/fraud", s.getFraud)
					r.With(s.requireAdmin).Post("/override", s.setRestrictedOverride)
					r.With(s.requireAdmin).Post("/admin-flags", s.setAdminFlags)
				})
			})

			r.Route("/watch-rules", func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Post("/", s.createWatchRule)
				r.Get("/", s.listWatchRules)
				r.Post("/{ruleId}/activate", s.activateWatchRule)
				r.Post("/{ruleId}/deactivate", s.deactivateWatchRule)
			})
		})
	})

	return r
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondDomainError maps domain errors onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	var invalid *fsm.InvalidTransitionError
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, lifecycle.ErrForbidden), errors.Is(err, policy.ErrRestricted):
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.As(err, &invalid):
		respondError(w, http.StatusUnprocessableEntity, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, lifecycle.ErrVersionConflict), errors.Is(err, lifecycle.ErrLockTimeout), errors.Is(err, domainIdem.ErrInProgress):
		respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domainIdem.ErrFingerprintMismatch):
		respondError(w, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED", err.Error())
	case errors.Is(err, lifecycle.ErrValidation), errors.Is(err, domainIdem.ErrKeyTooLong):
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

// eventParam reads the event URL segment, accepting kebab or snake case.
func eventParam(r *http.Request) fsm.Event {
	raw := strings.ReplaceAll(chi.URLParam(r, "event"), "-", "_")
	return fsm.Event(strings.ToUpper(raw))
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
