package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRealtimeEvent("slot-booked", "applied")
	m.ObserveRealtimeEvent("slot-booked", "applied")
	m.ObserveRealtimeEvent("slot-booked", "noop")
	m.ObserveAcknowledgment()
	m.ObserveStatusTransition("pending", "confirmed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.realtimeEvents.WithLabelValues("slot-booked", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.realtimeEvents.WithLabelValues("slot-booked", "noop")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.acknowledgments))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusTransitions.WithLabelValues("pending", "confirmed")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodGet, "/experts/:id", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRealtimeEvent("slot-booked", "applied")
	m.ObserveAcknowledgment()
	m.ObserveStatusTransition("pending", "cancelled")
	m.ObserveRelay("booking_created", "published")
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	assert.Nil(t, m.Registry())
}
