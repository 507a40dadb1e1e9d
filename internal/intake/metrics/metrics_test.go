package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"kickoff/pkg/platform/circuit"
)

func TestMetrics(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncSubmission("accepted")
	m.IncSubmission("accepted")
	m.IncSubmission("invalid_signature")
	m.IncNotification(true)
	m.IncNotification(false)
	m.AddUnmappedRefs(3)
	m.AddUnmappedRefs(0)
	m.IncSignatureBypass()
	m.IncEventPublishFailure()
	m.ObserveStoreDuration(120 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("invalid_signature")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("false")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.UnmappedRefsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignatureBypassTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventPublishFailTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StoreDurationSeconds))

	m.SetCircuitState("sharepoint", circuit.StateOpen)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreCircuitOpen.WithLabelValues("sharepoint")))
	m.SetCircuitState("sharepoint", circuit.StateClosed)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StoreCircuitOpen.WithLabelValues("sharepoint")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncSubmission("accepted")
		m.IncNotification(true)
		m.AddUnmappedRefs(1)
		m.IncSignatureBypass()
		m.IncEventPublishFailure()
		m.ObserveStoreDuration(time.Second)
		m.SetCircuitState("sharepoint", circuit.StateOpen)
	})
}
