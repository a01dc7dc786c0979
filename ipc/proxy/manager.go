package proxy

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Checkable is satisfied by every Resilient[T] specialization regardless of
// its family's capability type, since Family and HealthCheck share the same
// signature across T.
type Checkable interface {
	Family() string
	HealthCheck(ctx context.Context, req Request) (bool, error)
}

// Manager fans a liveness sweep out across every registered RPC family
// proxy. It holds no resilience state of its own: each family's breaker and
// orchestrator remain owned by its own Resilient[T].
type Manager struct {
	mu      sync.Mutex
	proxies []Checkable
}

// NewManager builds a Manager over the given family proxies.
func NewManager(proxies ...Checkable) *Manager {
	return &Manager{proxies: proxies}
}

// HealthResult is one family's liveness outcome from HealthCheckAll.
type HealthResult struct {
	Family  string
	Healthy bool
	Err     error
}

// HealthCheckAll issues req against every registered family concurrently,
// using an errgroup so one family's slow or failing check never blocks
// another's. It never returns an aggregate error itself — callers inspect
// each HealthResult, since an individual family being unhealthy is a normal
// operating condition, not a Manager-level failure.
func (m *Manager) HealthCheckAll(ctx context.Context, req Request) []HealthResult {
	m.mu.Lock()
	proxies := make([]Checkable, len(m.proxies))
	copy(proxies, m.proxies)
	m.mu.Unlock()

	results := make([]HealthResult, len(proxies))

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range proxies {
		i, p := i, p
		g.Go(func() error {
			healthy, err := p.HealthCheck(ctx, req)
			results[i] = HealthResult{Family: p.Family(), Healthy: healthy, Err: err}
			return nil
		})
	}
	// Errors from individual checks are captured per-result above; g.Wait
	// only ever returns nil because the goroutines themselves never return
	// an error, but it still blocks until every check has finished.
	_ = g.Wait()

	return results
}

// AllHealthy reports whether every family in results reported healthy.
func AllHealthy(results []HealthResult) bool {
	for _, r := range results {
		if !r.Healthy {
			return false
		}
	}
	return true
}

// Register adds a proxy to the manager under lock, for deployments that
// build family proxies after constructing the manager (e.g. lazily on
// first use). Safe for concurrent use with HealthCheckAll.
func (m *Manager) Register(p Checkable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proxies = append(m.proxies, p)
}
