package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases, SLO breaches.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Blog page retrievals. Watch for: error ratio = unreachable or misbehaving sources.
	BlogFetchesTotal *prometheus.CounterVec

	// Blog fetch latency. Watch for: p95 near the fetch timeout (slow publishers).
	BlogFetchDuration *prometheus.HistogramVec

	// Model-provider calls. Watch for: error vs success ratio.
	ExtractorCallsTotal *prometheus.CounterVec

	// Model-provider latency per call. Watch for: p99 near the extract timeout.
	ExtractorDuration *prometheus.HistogramVec

	// Model responses that failed strict Forecast decoding. Watch for: prompt drift.
	SchemaMismatchesTotal prometheus.Counter

	// Store queries by entity (shipment, booking, purchase_order).
	StoreQueriesTotal *prometheus.CounterVec

	// Store query latency by entity.
	StoreQueryDuration *prometheus.HistogramVec

	// Contact-chain resolution depth per shipment (shipment_only, booking_only, full_chain).
	// Watch for: rising shipment_only = booking data gaps upstream.
	ContactChainOutcomesTotal *prometheus.CounterVec

	// ERP relay calls. Watch for: error ratio before hardening the relay with retries.
	RelayCallsTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Circuit breaker transitions for the model-provider call.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec

	// Circuit breaker state (0=closed, 1=open, 2=half_open).
	CircuitBreakerState *prometheus.GaugeVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	BlogFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogFetchesTotal",
			Help: "Total number of blog page retrievals",
		},
		[]string{"status"},
	)
	BlogFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blogFetchDurationSeconds",
			Help:    "Blog page retrieval latency in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	ExtractorCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractorCallsTotal",
			Help: "Total number of model-provider extraction calls",
		},
		[]string{"status"},
	)
	ExtractorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extractorDurationSeconds",
			Help:    "Model-provider extraction latency in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"status"},
	)
	SchemaMismatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schemaMismatchesTotal",
			Help: "Model responses rejected by strict Forecast schema validation",
		},
	)
	StoreQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeQueriesTotal",
			Help: "Total number of operational-store queries",
		},
		[]string{"entity", "status"},
	)
	StoreQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storeQueryDurationSeconds",
			Help:    "Operational-store query latency in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"entity"},
	)
	ContactChainOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactChainOutcomesTotal",
			Help: "Contact records by resolution depth (shipment_only, booking_only, full_chain)",
		},
		[]string{"depth"},
	)
	RelayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayCallsTotal",
			Help: "Total number of ERP relay calls",
		},
		[]string{"status"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions",
		},
		[]string{"component", "from", "to"},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half_open)",
		},
		[]string{"component"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		BlogFetchesTotal, BlogFetchDuration,
		ExtractorCallsTotal, ExtractorDuration, SchemaMismatchesTotal,
		StoreQueriesTotal, StoreQueryDuration, ContactChainOutcomesTotal,
		RelayCallsTotal, RateLimitDeniedTotal,
		CircuitBreakerTransitionsTotal, CircuitBreakerState,
	)
}

// RecordCircuitBreakerTransition records a breaker state change for metrics.
func RecordCircuitBreakerTransition(component, from, to string) {
	CircuitBreakerTransitionsTotal.WithLabelValues(component, from, to).Inc()
}

// SetCircuitBreakerStateGauge sets the current breaker state gauge.
func SetCircuitBreakerStateGauge(component string, state int) {
	CircuitBreakerState.WithLabelValues(component).Set(float64(state))
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
