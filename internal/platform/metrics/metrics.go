package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, route pattern, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// EngineEvents counts engine events by name.
	EngineEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "engine_events_total", Help: "Route engine events by name."},
		[]string{"event"},
	)
	// RiskAssessments counts return-load risk outcomes by level.
	RiskAssessments = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "return_load_risk_assessments_total", Help: "Return-load risk assessments by level."},
		[]string{"level"},
	)
	// RoutePricePerKm observes the aggregate price-per-km of built routes.
	RoutePricePerKm = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "route_price_per_km", Help: "Aggregate price per km of proposed routes.", Buckets: []float64{0.5, 1, 1.5, 2, 2.5, 3, 4, 5}},
		[]string{"kind"},
	)
	// StoreOps records adapter operation latency in seconds.
	StoreOps = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "store_operation_duration_seconds", Help: "Offer store and cache operation latency.", Buckets: prometheus.DefBuckets},
		[]string{"op", "outcome"},
	)
)

// RegisterDefault registers collectors to Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(EngineEvents)
		Registry.MustRegister(RiskAssessments)
		Registry.MustRegister(RoutePricePerKm)
		Registry.MustRegister(StoreOps)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
