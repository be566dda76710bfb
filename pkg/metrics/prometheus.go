// Package metrics provides Prometheus metrics for the recommendation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultLatencyBuckets are expressed in milliseconds.
var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000} //nolint:gochecknoglobals // immutable defaults

// Manager owns every Prometheus collector exported by the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Recommendation requests
	requests         *prometheus.CounterVec
	requestLatency   *prometheus.HistogramVec
	candidatesIn     *prometheus.CounterVec
	candidatesRanked *prometheus.CounterVec
	weightsAdjusted  prometheus.Counter

	// Criterion scoring
	criterionFallbacks *prometheus.CounterVec

	// Collaborators
	collaboratorCalls   *prometheus.CounterVec
	collaboratorLatency *prometheus.HistogramVec
	breakerState        *prometheus.GaugeVec
	breakerTransitions  *prometheus.CounterVec

	// Feedback forwarding
	interactions *prometheus.CounterVec

	// Ops HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "eventrec",
		subsystem:        "engine",
		histogramBuckets: defaultLatencyBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.requests = m.counterVec("recommendation_requests_total",
		"Recommendation requests by variant and outcome", "variant", "outcome")
	m.requestLatency = m.histogramVec("recommendation_latency_milliseconds",
		"End-to-end latency of a recommendation request", "variant")
	m.candidatesIn = m.counterVec("candidates_received_total",
		"Candidate events received per variant", "variant")
	m.candidatesRanked = m.counterVec("candidates_ranked_total",
		"Candidate events that survived filtering and were ranked", "variant")
	m.weightsAdjusted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "weights_adjusted_total",
		Help:        "Scoring weight sets that had to be clamped or renormalized",
		ConstLabels: m.constLabels,
	})

	m.criterionFallbacks = m.counterVec("criterion_fallbacks_total",
		"Criterion scores replaced by the neutral default after a collaborator failure", "criterion")

	m.collaboratorCalls = m.counterVec("collaborator_calls_total",
		"Collaborator calls by collaborator, method and outcome", "collaborator", "method", "outcome")
	m.collaboratorLatency = m.histogramVec("collaborator_latency_milliseconds",
		"Collaborator call latency", "collaborator")
	m.breakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "circuit_breaker_state",
		Help:        "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		ConstLabels: m.constLabels,
	}, []string{"name"})
	m.breakerTransitions = m.counterVec("circuit_breaker_transitions_total",
		"Circuit breaker state transitions", "name", "from", "to")

	m.interactions = m.counterVec("interactions_total",
		"User interactions by forwarding outcome", "outcome")

	m.httpRequests = m.counterVec("http_requests_total",
		"Ops HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"Ops HTTP request duration", "endpoint", "method", "status_code")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordRecommendationRequest counts a finished request (outcome: ok, cancelled, error).
func RecordRecommendationRequest(variant, outcome string) {
	globalManager.requests.WithLabelValues(variant, outcome).Inc()
}

// RecordRecommendationLatency records request latency in milliseconds.
func RecordRecommendationLatency(variant string, latencyMs float64) {
	globalManager.requestLatency.WithLabelValues(variant).Observe(latencyMs)
}

// RecordCandidates records how many candidates came in and how many were ranked.
func RecordCandidates(variant string, received, ranked int) {
	globalManager.candidatesIn.WithLabelValues(variant).Add(float64(received))
	globalManager.candidatesRanked.WithLabelValues(variant).Add(float64(ranked))
}

// RecordWeightsAdjusted counts a weight set rewritten by the weights guard.
func RecordWeightsAdjusted() {
	globalManager.weightsAdjusted.Inc()
}

// RecordCriterionFallback counts a neutral fallback for the given criterion.
func RecordCriterionFallback(criterion string) {
	globalManager.criterionFallbacks.WithLabelValues(criterion).Inc()
}

// RecordCollaboratorCall counts a collaborator call (outcome: success, failure, rejected, timeout).
func RecordCollaboratorCall(collaborator, method, outcome string) {
	globalManager.collaboratorCalls.WithLabelValues(collaborator, method, outcome).Inc()
}

// RecordCollaboratorLatency records collaborator latency in milliseconds.
func RecordCollaboratorLatency(collaborator string, latencyMs float64) {
	globalManager.collaboratorLatency.WithLabelValues(collaborator).Observe(latencyMs)
}

// UpdateBreakerState sets the numeric state of a circuit breaker.
func UpdateBreakerState(name string, state float64) {
	globalManager.breakerState.WithLabelValues(name).Set(state)
}

// RecordBreakerTransition counts a circuit breaker transition.
func RecordBreakerTransition(name, from, to string) {
	globalManager.breakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordInteractionForwarded counts an interaction (outcome: forwarded, duplicate, failed).
func RecordInteractionForwarded(outcome string) {
	globalManager.interactions.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records an ops HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records ops HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
