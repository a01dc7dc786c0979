// Package metrics provides the fabric's Prometheus metrics collector.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 Fabric metrics collector
// =============================================================================

// Collector holds the fabric's Prometheus instruments: one set of
// vectors per concern (breaker, retry, degraded mode, proxy), labeled by
// RPC family/service so a single Collector instance covers every
// resilient proxy and authenticated broker client in a process.
type Collector struct {
	registry *prometheus.Registry

	breakerState            *prometheus.GaugeVec
	breakerConsecutiveFails *prometheus.GaugeVec
	breakerTransitionsTotal *prometheus.CounterVec

	retryAttemptsTotal *prometheus.CounterVec
	retrySleepSeconds  *prometheus.HistogramVec
	retryOutcomesTotal *prometheus.CounterVec

	degradedModeActivationsTotal *prometheus.CounterVec

	proxyCallDurationSeconds *prometheus.HistogramVec
	proxyHealthyGauge        *prometheus.GaugeVec

	brokerPublishTotal *prometheus.CounterVec
	brokerReceiveTotal *prometheus.CounterVec

	logger *zap.Logger
}

// Registry returns the private Prometheus registry this Collector's
// instruments were registered against. Every Collector owns its own
// registry rather than registering into prometheus.DefaultRegisterer, so
// constructing more than one Collector (e.g. one per test) never panics
// with a duplicate-registration error. Callers expose it via
// promhttp.HandlerFor rather than promhttp.Handler.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// NewCollector builds a Collector registering every fabric instrument under
// namespace (SPEC_FULL.md's DOMAIN STACK names "intellirouter_fabric") onto
// a fresh private registry.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()
	c := &Collector{registry: registry, logger: logger.With(zap.String("component", "metrics"))}
	factory := promauto.With(registry)

	c.breakerState = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "breaker",
			Name:      "state",
			Help:      "Circuit breaker state (0=Closed, 1=Open, 2=HalfOpen) by service.",
		},
		[]string{"service"},
	)

	c.breakerConsecutiveFails = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "breaker",
			Name:      "consecutive_failures",
			Help:      "Current consecutive-failure streak by service.",
		},
		[]string{"service"},
	)

	c.breakerTransitionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "breaker",
			Name:      "transitions_total",
			Help:      "Total circuit breaker state transitions by service and target state.",
		},
		[]string{"service", "to_state"},
	)

	c.retryAttemptsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retry",
			Name:      "attempts_total",
			Help:      "Total retry attempts issued by the orchestrator, by service.",
		},
		[]string{"service"},
	)

	c.retrySleepSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retry",
			Name:      "sleep_seconds",
			Help:      "Computed inter-attempt sleep duration, by service.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"service"},
	)

	c.retryOutcomesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retry",
			Name:      "outcomes_total",
			Help:      "Final orchestrator outcomes by service and result (success, failure, circuit_open).",
		},
		[]string{"service", "outcome"},
	)

	c.degradedModeActivationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "degraded",
			Name:      "activations_total",
			Help:      "Degraded-mode handler activations by service and strategy.",
		},
		[]string{"service", "strategy"},
	)

	c.proxyCallDurationSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "call_duration_seconds",
			Help:      "RPC proxy call duration by family and operation.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"family", "operation"},
	)

	c.proxyHealthyGauge = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "healthy",
			Help:      "1 if the proxy's last liveness signal was healthy, else 0, by family.",
		},
		[]string{"family"},
	)

	c.brokerPublishTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "publish_total",
			Help:      "Authenticated broker publishes by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	c.brokerReceiveTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "receive_total",
			Help:      "Authenticated broker receives by outcome (ok, auth_error, decode_error).",
		},
		[]string{"outcome"},
	)

	c.logger.Info("fabric metrics collector initialized", zap.String("namespace", namespace))
	return c
}

// =============================================================================
// 🔴 Breaker instrumentation
// =============================================================================

// RecordBreakerState sets the current breaker state gauge for service.
// state is 0=Closed, 1=Open, 2=HalfOpen (resilience.State's int value).
func (c *Collector) RecordBreakerState(service string, state int) {
	c.breakerState.WithLabelValues(service).Set(float64(state))
}

// RecordBreakerConsecutiveFailures sets the consecutive-failure gauge.
func (c *Collector) RecordBreakerConsecutiveFailures(service string, failures int64) {
	c.breakerConsecutiveFails.WithLabelValues(service).Set(float64(failures))
}

// RecordBreakerTransition increments the transition counter toward toState
// (e.g. "open", "half_open", "closed").
func (c *Collector) RecordBreakerTransition(service, toState string) {
	c.breakerTransitionsTotal.WithLabelValues(service, toState).Inc()
}

// =============================================================================
// 🔁 Retry instrumentation
// =============================================================================

// RecordRetryAttempt increments the attempt counter for service.
func (c *Collector) RecordRetryAttempt(service string) {
	c.retryAttemptsTotal.WithLabelValues(service).Inc()
}

// RecordRetrySleep observes a computed inter-attempt sleep duration in
// seconds.
func (c *Collector) RecordRetrySleep(service string, seconds float64) {
	c.retrySleepSeconds.WithLabelValues(service).Observe(seconds)
}

// RecordRetryOutcome increments the outcome counter ("success", "failure",
// or "circuit_open").
func (c *Collector) RecordRetryOutcome(service, outcome string) {
	c.retryOutcomesTotal.WithLabelValues(service, outcome).Inc()
}

// =============================================================================
// 🛟 Degraded mode instrumentation
// =============================================================================

// RecordDegradedActivation increments the degraded-mode activation counter
// for service under the given strategy ("fail_fast", "static_response", or
// "default_upstream").
func (c *Collector) RecordDegradedActivation(service, strategy string) {
	c.degradedModeActivationsTotal.WithLabelValues(service, strategy).Inc()
}

// =============================================================================
// 📡 Proxy instrumentation
// =============================================================================

// RecordProxyCall observes a proxy call's duration in seconds for
// (family, operation), e.g. operation ∈ {"execute", "status", "cancel",
// "stream"}.
func (c *Collector) RecordProxyCall(family, operation string, seconds float64) {
	c.proxyCallDurationSeconds.WithLabelValues(family, operation).Observe(seconds)
}

// RecordProxyHealthy sets the liveness gauge for family.
func (c *Collector) RecordProxyHealthy(family string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	c.proxyHealthyGauge.WithLabelValues(family).Set(v)
}

// =============================================================================
// 📮 Broker instrumentation
// =============================================================================

// RecordBrokerPublish increments the publish counter for channel with
// outcome "ok" or "error".
func (c *Collector) RecordBrokerPublish(channel, outcome string) {
	c.brokerPublishTotal.WithLabelValues(channel, outcome).Inc()
}

// RecordBrokerReceive increments the receive counter with outcome "ok",
// "auth_error", or "decode_error".
func (c *Collector) RecordBrokerReceive(outcome string) {
	c.brokerReceiveTotal.WithLabelValues(outcome).Inc()
}
