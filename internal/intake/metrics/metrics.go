// Package metrics provides Prometheus metrics for submission intake.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"kickoff/pkg/platform/circuit"
)

// Metrics holds intake counters and histograms. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	SubmissionsTotal      *prometheus.CounterVec // by outcome
	StoreDurationSeconds  prometheus.Histogram
	NotificationsTotal    *prometheus.CounterVec // by sent=true|false
	UnmappedRefsTotal     prometheus.Counter
	SignatureBypassTotal  prometheus.Counter
	EventPublishFailTotal prometheus.Counter
	StoreCircuitOpen      *prometheus.GaugeVec // 1 while the named breaker is open
}

// New registers the metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubmissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kickoff_submissions_total",
			Help: "Webhook submissions processed, by outcome",
		}, []string{"outcome"}),

		StoreDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kickoff_store_duration_seconds",
			Help:    "Duration of record store writes",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kickoff_notifications_total",
			Help: "Thank-you notifications attempted, by whether they were sent",
		}, []string{"sent"}),

		UnmappedRefsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kickoff_unmapped_refs_total",
			Help: "Answers received for field refs missing from the mapping table",
		}),

		SignatureBypassTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kickoff_signature_bypass_total",
			Help: "Webhooks accepted without signature verification because no secret is configured",
		}),

		EventPublishFailTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "kickoff_event_publish_failures_total",
			Help: "Submission events that could not be published",
		}),

		StoreCircuitOpen: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kickoff_store_circuit_open",
			Help: "Whether the record store circuit breaker is open",
		}, []string{"breaker"}),
	}
}

func (m *Metrics) IncSubmission(outcome string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveStoreDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.StoreDurationSeconds.Observe(d.Seconds())
}

func (m *Metrics) IncNotification(sent bool) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(strconv.FormatBool(sent)).Inc()
}

func (m *Metrics) AddUnmappedRefs(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.UnmappedRefsTotal.Add(float64(n))
}

func (m *Metrics) IncSignatureBypass() {
	if m == nil {
		return
	}
	m.SignatureBypassTotal.Inc()
}

func (m *Metrics) IncEventPublishFailure() {
	if m == nil {
		return
	}
	m.EventPublishFailTotal.Inc()
}

// SetCircuitState matches circuit.WithStateHook.
func (m *Metrics) SetCircuitState(name string, to circuit.State) {
	if m == nil {
		return
	}
	v := 0.0
	if to == circuit.StateOpen {
		v = 1
	}
	m.StoreCircuitOpen.WithLabelValues(name).Set(v)
}
