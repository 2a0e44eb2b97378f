package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.BookingCreated()
	m.BookingCreated()
	m.BookingConflict()
	m.PaymentEvent("paid")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingConflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentEvents.WithLabelValues("paid")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.paymentEvents.WithLabelValues("refunded")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.BookingCreated()
		m.BookingConflict()
		m.PaymentEvent("paid")
		m.ObserveRequest("GET", "/health", "200", 0.01)
	})
}
