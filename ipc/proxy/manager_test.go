package proxy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellirouter/fabric/resilience"
)

func TestManager_HealthCheckAll_AllHealthy(t *testing.T) {
	chainEngine := newTestProxy(&fakeChainEngine{}, resilience.NoRetry())
	mgr := NewManager(chainEngine)

	results := mgr.HealthCheckAll(context.Background(), "ping")
	require.Len(t, results, 1)
	assert.Equal(t, "chain-engine", results[0].Family)
	assert.True(t, results[0].Healthy)
	assert.True(t, AllHealthy(results))
}

func TestManager_HealthCheckAll_MixedHealth(t *testing.T) {
	healthy := newTestProxy(&fakeChainEngine{}, resilience.NoRetry())
	unhealthyInner := &fakeChainEngine{executeErr: errors.New("network unreachable")}
	unhealthy := newTestProxy(unhealthyInner, resilience.NoRetry())

	mgr := NewManager(healthy, unhealthy)
	results := mgr.HealthCheckAll(context.Background(), "ping")

	require.Len(t, results, 2)
	assert.False(t, AllHealthy(results))

	var sawUnhealthy bool
	for _, r := range results {
		if !r.Healthy {
			sawUnhealthy = true
			require.Error(t, r.Err)
		}
	}
	assert.True(t, sawUnhealthy)
}

func TestManager_Register(t *testing.T) {
	mgr := NewManager()
	p := newTestProxy(&fakeChainEngine{}, resilience.NoRetry())
	mgr.Register(p)

	results := mgr.HealthCheckAll(context.Background(), "ping")
	require.Len(t, results, 1)
	assert.Equal(t, "chain-engine", results[0].Family)
}

func TestManager_HealthCheckAll_Empty(t *testing.T) {
	mgr := NewManager()
	results := mgr.HealthCheckAll(context.Background(), "ping")
	assert.Empty(t, results)
	assert.True(t, AllHealthy(results))
}
