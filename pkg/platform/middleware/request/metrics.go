package request

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP latency histogram. A nil *Metrics records nothing.
type Metrics struct {
	EndpointLatency *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer registers on reg, so tests can use a private registry.
func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		EndpointLatency: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kickoff_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route pattern, method and status",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}, []string{"route", "method", "status"}),
	}
}

func (m *Metrics) observe(route, method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.EndpointLatency.WithLabelValues(route, method, strconv.Itoa(status)).Observe(seconds)
}
