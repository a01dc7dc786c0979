package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.breakerState)
	assert.NotNil(t, collector.breakerConsecutiveFails)
	assert.NotNil(t, collector.breakerTransitionsTotal)
	assert.NotNil(t, collector.retryAttemptsTotal)
	assert.NotNil(t, collector.retrySleepSeconds)
	assert.NotNil(t, collector.retryOutcomesTotal)
	assert.NotNil(t, collector.degradedModeActivationsTotal)
	assert.NotNil(t, collector.proxyCallDurationSeconds)
	assert.NotNil(t, collector.proxyHealthyGauge)
	assert.NotNil(t, collector.brokerPublishTotal)
	assert.NotNil(t, collector.brokerReceiveTotal)
}

func TestNewCollector_NilLogger(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), nil)
	assert.NotNil(t, collector)
}

func TestCollector_BreakerMetrics(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordBreakerState("chain-engine", 0)
	collector.RecordBreakerState("chain-engine", 1)
	collector.RecordBreakerConsecutiveFailures("chain-engine", 3)
	collector.RecordBreakerTransition("chain-engine", "open")
	collector.RecordBreakerTransition("chain-engine", "half_open")

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.breakerState.WithLabelValues("chain-engine")))
	assert.Equal(t, float64(3), testutil.ToFloat64(collector.breakerConsecutiveFails.WithLabelValues("chain-engine")))
	assert.Greater(t, testutil.CollectAndCount(collector.breakerTransitionsTotal), 0)
}

func TestCollector_RetryMetrics(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordRetryAttempt("memory")
	collector.RecordRetryAttempt("memory")
	collector.RecordRetrySleep("memory", 0.01)
	collector.RecordRetryOutcome("memory", "success")

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.retryAttemptsTotal.WithLabelValues("memory")))
	assert.Greater(t, testutil.CollectAndCount(collector.retrySleepSeconds), 0)
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.retryOutcomesTotal.WithLabelValues("memory", "success")))
}

func TestCollector_DegradedModeMetrics(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordDegradedActivation("persona", "static_response")

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.degradedModeActivationsTotal.WithLabelValues("persona", "static_response")))
}

func TestCollector_ProxyMetrics(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordProxyCall("rag", "execute", 0.25)
	collector.RecordProxyHealthy("rag", true)
	collector.RecordProxyHealthy("model-registry", false)

	assert.Greater(t, testutil.CollectAndCount(collector.proxyCallDurationSeconds), 0)
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.proxyHealthyGauge.WithLabelValues("rag")))
	assert.Equal(t, float64(0), testutil.ToFloat64(collector.proxyHealthyGauge.WithLabelValues("model-registry")))
}

func TestCollector_BrokerMetrics(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordBrokerPublish("intellirouter:chain_engine:router_core:chain_execution_completed", "ok")
	collector.RecordBrokerReceive("ok")
	collector.RecordBrokerReceive("auth_error")

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.brokerPublishTotal.WithLabelValues(
		"intellirouter:chain_engine:router_core:chain_execution_completed", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.brokerReceiveTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.brokerReceiveTotal.WithLabelValues("auth_error")))
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			collector.RecordBreakerState("chain-engine", 0)
			collector.RecordRetryAttempt("chain-engine")
			collector.RecordProxyHealthy("chain-engine", true)
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Greater(t, testutil.CollectAndCount(collector.retryAttemptsTotal), 0)
}

func TestCollector_MetricsRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	registry.MustRegister(collector.breakerState)
	registry.MustRegister(collector.retryAttemptsTotal)

	collector.RecordBreakerState("chain-engine", 0)
	collector.RecordRetryAttempt("chain-engine")

	assert.Greater(t, testutil.CollectAndCount(collector.breakerState), 0)
}
