package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	dashboardCacheTotal *prometheus.CounterVec
	activityXPTotal     *prometheus.CounterVec
	realtimeConnections prometheus.Gauge
	realtimeEventsTotal *prometheus.CounterVec
	sessionsSweptTotal  prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors of the activity API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_api_requests_total",
			Help: "Total number of activity API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "activity_api_latency_seconds",
			Help:    "Latency distribution for activity API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_api_errors_total",
			Help: "Total number of error responses returned by the activity API.",
		}, []string{"method", "route", "status"})

		dashboardCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_dashboard_cache_total",
			Help: "Dashboard stats cache lookups by result.",
		}, []string{"result"})

		activityXPTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_xp_awarded_total",
			Help: "Experience points awarded by activity type.",
		}, []string{"activity_type"})

		realtimeConnections = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "activity_realtime_connections",
			Help: "Open realtime websocket connections.",
		})

		realtimeEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_realtime_events_total",
			Help: "Realtime events by name and direction.",
		}, []string{"event", "direction"})

		sessionsSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "activity_sessions_swept_total",
			Help: "Orphaned live sessions closed by the sweeper.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			dashboardCacheTotal,
			activityXPTotal,
			realtimeConnections,
			realtimeEventsTotal,
			sessionsSweptTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// DashboardCache exposes the dashboard cache lookup counter.
func DashboardCache() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardCacheTotal
}

// ActivityXP exposes the awarded XP counter.
func ActivityXP() *prometheus.CounterVec {
	RegisterMetrics()
	return activityXPTotal
}

// RealtimeConnections exposes the open connection gauge.
func RealtimeConnections() prometheus.Gauge {
	RegisterMetrics()
	return realtimeConnections
}

// RealtimeEvents exposes the realtime event counter.
func RealtimeEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return realtimeEventsTotal
}

// SessionsSwept exposes the sweeper counter.
func SessionsSwept() prometheus.Counter {
	RegisterMetrics()
	return sessionsSweptTotal
}
