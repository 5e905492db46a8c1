package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus collectors of the booking services. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	handler           http.Handler
	realtimeEvents    *prometheus.CounterVec
	acknowledgments   prometheus.Counter
	statusTransitions *prometheus.CounterVec
	relayedEvents     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	realtimeEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "availability_realtime_events_total",
		Help: "Realtime slot events received by calendar views, by kind and outcome",
	}, []string{"kind", "outcome"})

	acknowledgments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_acknowledgments_total",
		Help: "Acknowledgment markers raised for a viewer's own booking",
	})

	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_status_transitions_total",
		Help: "Booking status transitions committed",
	}, []string{"from", "to"})

	relayedEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_events_total",
		Help: "Booking events relayed to expert topics, by result",
	}, []string{"type", "result"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	registry.MustRegister(
		realtimeEvents,
		acknowledgments,
		statusTransitions,
		relayedEvents,
		requestDuration,
		requestTotal,
		prometheus.NewGoCollector(),
	)

	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		realtimeEvents:    realtimeEvents,
		acknowledgments:   acknowledgments,
		statusTransitions: statusTransitions,
		relayedEvents:     relayedEvents,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRealtimeEvent(kind, outcome string) {
	if m == nil {
		return
	}
	m.realtimeEvents.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveAcknowledgment() {
	if m == nil {
		return
	}
	m.acknowledgments.Inc()
}

func (m *Metrics) ObserveStatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveRelay(eventType, result string) {
	if m == nil {
		return
	}
	m.relayedEvents.WithLabelValues(eventType, result).Inc()
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
}
