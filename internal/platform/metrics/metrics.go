package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the access core. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RoleLookupDuration *prometheus.HistogramVec
	AccessDecisions    *prometheus.CounterVec
	SessionTransitions *prometheus.CounterVec
	SanitizerRejects   prometheus.Counter
}

// New creates and registers all collectors on reg. Pass prometheus.DefaultRegisterer
// in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RoleLookupDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clubportal_role_lookup_duration_ms",
			Help:    "Latency of role authority lookups in milliseconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		}, []string{"outcome"}),
		AccessDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubportal_access_decisions_total",
			Help: "Terminal route guard decisions by surface and required role",
		}, []string{"surface", "min_role", "decision"}),
		SessionTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubportal_session_transitions_total",
			Help: "Session store state transitions by resulting status",
		}, []string{"status"}),
		SanitizerRejects: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubportal_text_input_rejected_total",
			Help: "Free-text submissions rejected after sanitization",
		}),
	}
}

// ObserveRoleLookup records one authority round trip.
func (m *Metrics) ObserveRoleLookup(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RoleLookupDuration.WithLabelValues(outcome).Observe(float64(d.Microseconds()) / 1000.0)
}

// IncrementAccessDecision counts a terminal guard decision.
func (m *Metrics) IncrementAccessDecision(surface, minRole, decision string) {
	if m == nil {
		return
	}
	m.AccessDecisions.WithLabelValues(surface, minRole, decision).Inc()
}

// IncrementSessionTransition counts a session store transition.
func (m *Metrics) IncrementSessionTransition(status string) {
	if m == nil {
		return
	}
	m.SessionTransitions.WithLabelValues(status).Inc()
}

// IncrementSanitizerRejects counts a rejected free-text submission.
func (m *Metrics) IncrementSanitizerRejects() {
	if m == nil {
		return
	}
	m.SanitizerRejects.Inc()
}
