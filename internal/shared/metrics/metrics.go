package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Guard decisions.
const (
	DecisionAllowed    = "allowed"
	DecisionRedirected = "redirected"
)

// Metrics holds the Prometheus collectors of the portal.
type Metrics struct {
	GuardDecisions   *prometheus.CounterVec
	ProfileFetches   *prometheus.CounterVec
	ProfileShared    prometheus.Counter
	RoleResolutions  *prometheus.CounterVec
	AuthOperations   *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	Predictions      *prometheus.CounterVec
	BookingsCreated  prometheus.Counter
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	SessionFeedConns prometheus.Gauge
}

// NewMetrics registers every collector on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		GuardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "afi_portal_guard_decisions_total",
				Help: "Access guard decisions on protected views",
			},
			[]string{"decision"},
		),
		ProfileFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "afi_portal_profile_fetches_total",
				Help: "Profile fetches against the identity API by outcome",
			},
			[]string{"outcome"},
		),
		ProfileShared: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "afi_portal_profile_fetches_shared_total",
				Help: "Profile lookups served by an in-flight fetch of another caller",
			},
		),
		RoleResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "afi_portal_role_resolutions_total",
				Help: "Role resolver terminal states",
			},
			[]string{"state", "role"},
		),
		AuthOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "afi_portal_auth_operations_total",
				Help: "Login, register and logout operations",
			},
			[]string{"operation", "success"},
		),
		UpstreamLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "afi_portal_upstream_latency_seconds",
				Help:    "Clinical API call latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		Predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "afi_portal_predictions_total",
				Help: "Image predictions by outcome",
			},
			[]string{"outcome"},
		),
		BookingsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "afi_portal_bookings_created_total",
				Help: "Appointments confirmed through the booking wizard",
			},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "afi_portal_http_requests_total",
				Help: "HTTP requests served",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "afi_portal_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		SessionFeedConns: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "afi_portal_session_feed_connections",
				Help: "Open session feed websocket connections",
			},
		),
	}
}

// NewNop returns metrics bound to a throwaway registry.
func NewNop() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// RecordGuard counts one guard decision.
func (m *Metrics) RecordGuard(decision string) {
	m.GuardDecisions.WithLabelValues(decision).Inc()
}

// RecordProfileFetch counts one profile fetch outcome.
func (m *Metrics) RecordProfileFetch(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.ProfileFetches.WithLabelValues(outcome).Inc()
}

// RecordRole counts a role resolver terminal state.
func (m *Metrics) RecordRole(state, role string) {
	if role == "" {
		role = "none"
	}
	m.RoleResolutions.WithLabelValues(state, role).Inc()
}

// RecordAuth counts an identity operation.
func (m *Metrics) RecordAuth(operation string, success bool) {
	m.AuthOperations.WithLabelValues(operation, strconv.FormatBool(success)).Inc()
}

// ObserveUpstream records the latency of one clinical API call.
func (m *Metrics) ObserveUpstream(endpoint string, started time.Time) {
	m.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
}

// RecordPrediction counts one prediction outcome.
func (m *Metrics) RecordPrediction(outcome string) {
	m.Predictions.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
