// Package metrics exposes Prometheus instrumentation for the lifecycle hub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transition outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeNotFound  = "not_found"
	OutcomeForbidden = "forbidden"
	OutcomeInvalid   = "invalid_transition"
	OutcomeConflict  = "conflict"
	OutcomeError     = "error"
)

// Idempotency outcomes.
const (
	IdemClaimed    = "claimed"
	IdemReplayed   = "replayed"
	IdemProcessing = "processing"
	IdemMismatch   = "mismatch"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	Transitions   *prometheus.CounterVec
	Idempotency   *prometheus.CounterVec
	SweepDuration *prometheus.HistogramVec
	SweepSkipped  *prometheus.CounterVec
	ReviewsRaised prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "markethub_transitions_total",
			Help: "Entity state transition attempts by entity type, event and outcome.",
		}, []string{"entity", "event", "outcome"}),
		Idempotency: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "markethub_idempotency_claims_total",
			Help: "Idempotency claim outcomes.",
		}, []string{"outcome"}),
		SweepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "markethub_sweep_duration_seconds",
			Help:    "Duration of maintenance sweep runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"sweep"}),
		SweepSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "markethub_sweep_skipped_total",
			Help: "Sweep ticks skipped because a previous run was still in flight.",
		}, []string{"sweep"}),
		ReviewsRaised: factory.NewCounter(prometheus.CounterOpts{
			Name: "markethub_reviews_raised_total",
			Help: "Review records raised for human reviewers.",
		}),
	}
}

// NewNop returns metrics bound to a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
