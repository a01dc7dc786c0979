// Package proxy implements the fabric's resilient RPC proxy (C10): a
// generic wrapper around a pluggable RPC family client that gates every
// call through a circuit breaker and retry orchestrator and exposes
// diagnostics for operators. It does not invoke a degraded-mode handler
// itself: failures are returned to the caller.
package proxy

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/intellirouter/fabric/internal/metrics"
	"github.com/intellirouter/fabric/resilience"
)

// Request is an opaque argument to an RPC family call; concrete families
// define their own request/response shapes and satisfy Capability against
// them via a thin adapter.
type Request any

// Response is an opaque RPC family result; see Request.
type Response any

// StatusQuery identifies a previously started call for Status/Cancel.
type StatusQuery any

// StreamHandle represents a started streaming call.
type StreamHandle any

// Capability is the minimal surface every RPC family client exposes.
// Streaming is not part of it: families with a streaming mode also
// implement Streamer, and Resilient.Stream returns a KindInternal error for
// families that do not.
type Capability interface {
	Execute(ctx context.Context, req Request) (Response, error)
	Status(ctx context.Context, id StatusQuery) (Response, error)
	Cancel(ctx context.Context, id StatusQuery) error
}

// Streamer is implemented by RPC families that support a long-lived
// streaming call. It is checked for with a type assertion in Stream.
type Streamer interface {
	Stream(ctx context.Context, req Request) (StreamHandle, error)
}

// Resilient wraps an RPC family client of type T (constrained to
// Capability) with breaker-gated, retried dispatch and health
// diagnostics. T is a compile-time generic parameter so each family gets
// its own concrete proxy type without runtime interface indirection on the
// hot path.
type Resilient[T Capability] struct {
	family       string
	inner        T
	orchestrator *resilience.Orchestrator

	healthy     atomic.Bool
	lastSuccess atomic.Int64 // unix nanos
	lastFailure atomic.Int64 // unix nanos

	metrics *metrics.Collector
}

// SetMetrics attaches a metrics.Collector so this proxy's call durations,
// liveness gauge, and underlying breaker/orchestrator counters are all
// observed on the fabric's Prometheus surface. Optional; nil is a no-op.
func (r *Resilient[T]) SetMetrics(m *metrics.Collector) {
	r.metrics = m
	r.orchestrator.SetMetrics(m)
	r.orchestrator.Breaker().SetMetrics(m)
}

// NewResilient builds a Resilient proxy named family (e.g. "chain-engine")
// around inner, gated by breaker/retryPolicy/retryable.
func NewResilient[T Capability](family string, inner T, breaker *resilience.Breaker, retryPolicy resilience.Policy, retryable map[resilience.Category]bool, logger *zap.Logger) *Resilient[T] {
	r := &Resilient[T]{
		family:       family,
		inner:        inner,
		orchestrator: resilience.NewOrchestrator(family, retryPolicy, breaker, retryable, logger),
	}
	r.healthy.Store(true)
	return r
}

// Execute dispatches req through the breaker/retry orchestrator.
func (r *Resilient[T]) Execute(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := resilience.Run(ctx, r.orchestrator, func(ctx context.Context) (Response, error) {
		return r.inner.Execute(ctx, req)
	})
	r.recordOutcome(err)
	r.recordCall("execute", start)
	return resp, err
}

// Status dispatches a status lookup through the same orchestrator.
func (r *Resilient[T]) Status(ctx context.Context, id StatusQuery) (Response, error) {
	start := time.Now()
	resp, err := resilience.Run(ctx, r.orchestrator, func(ctx context.Context) (Response, error) {
		return r.inner.Status(ctx, id)
	})
	r.recordOutcome(err)
	r.recordCall("status", start)
	return resp, err
}

// Cancel is dispatched once through the breaker, never retried: retrying a
// cancellation risks canceling an unrelated later call that reused the id.
func (r *Resilient[T]) Cancel(ctx context.Context, id StatusQuery) error {
	start := time.Now()
	if !r.orchestrator.Breaker().AllowExecution() {
		return resilience.ErrCircuitOpen(r.family)
	}
	err := r.inner.Cancel(ctx, id)
	if err != nil {
		r.orchestrator.Breaker().RecordFailure()
	} else {
		r.orchestrator.Breaker().RecordSuccess()
	}
	r.recordOutcome(err)
	r.recordCall("cancel", start)
	return err
}

// Stream dispatches a streaming call through RunStream, which gates on the
// breaker but never retries — a stream cannot be safely replayed once
// partially consumed. Returns an error if the wrapped family does not
// implement Streamer.
func (r *Resilient[T]) Stream(ctx context.Context, req Request) (StreamHandle, error) {
	start := time.Now()
	streamer, ok := any(r.inner).(Streamer)
	if !ok {
		return nil, resilience.New(resilience.KindInternal, r.family, "family does not support streaming")
	}
	handle, err := resilience.RunStream(ctx, r.orchestrator, func(ctx context.Context) (StreamHandle, error) {
		return streamer.Stream(ctx, req)
	})
	r.recordOutcome(err)
	r.recordCall("stream", start)
	return handle, err
}

func (r *Resilient[T]) recordCall(operation string, start time.Time) {
	if r.metrics != nil {
		r.metrics.RecordProxyCall(r.family, operation, time.Since(start).Seconds())
	}
}

func (r *Resilient[T]) recordOutcome(err error) {
	now := time.Now().UnixNano()
	if err == nil {
		r.lastSuccess.Store(now)
		r.healthy.Store(true)
		return
	}
	category := resilience.Categorize(err)
	if category == resilience.CategoryNetwork || category == resilience.CategoryTimeout {
		r.lastFailure.Store(now)
		r.healthy.Store(false)
		return
	}
	// A well-formed application error (not-found, invalid-argument, etc.)
	// still indicates the transport is reachable and responsive.
	r.lastSuccess.Store(now)
	r.healthy.Store(true)
}

// Family returns this proxy's RPC family name.
func (r *Resilient[T]) Family() string { return r.family }

// Healthy reports the liveness-only signal described in spec: any
// transport-reachable response, success or well-formed application error,
// counts as healthy. Only Network or Timeout category failures mark the
// proxy unhealthy (a KindConnection error categorizes as Network).
func (r *Resilient[T]) Healthy() bool { return r.healthy.Load() }

// HealthCheck issues req through Execute purely to refresh the liveness
// signal and returns the resulting health bit alongside any transport
// error encountered (application errors are swallowed, matching Healthy's
// semantics).
func (r *Resilient[T]) HealthCheck(ctx context.Context, req Request) (bool, error) {
	_, err := r.Execute(ctx, req)
	if err != nil && !r.Healthy() {
		return false, err
	}
	return true, nil
}

// BreakerState reports the underlying breaker's current state.
func (r *Resilient[T]) BreakerState() resilience.State {
	return r.orchestrator.Breaker().State()
}

// RetryPolicy returns the orchestrator's configured retry policy.
func (r *Resilient[T]) RetryPolicy() resilience.Policy {
	return r.orchestrator.Policy()
}

// ConsecutiveFailures returns the breaker's current failure streak.
func (r *Resilient[T]) ConsecutiveFailures() int64 {
	return r.orchestrator.Breaker().ConsecutiveFailures()
}

// BreakerConfig returns the underlying breaker's configuration.
func (r *Resilient[T]) BreakerConfig() resilience.BreakerConfig {
	return r.orchestrator.Breaker().Config()
}

// TotalSuccesses returns the breaker's lifetime success count.
func (r *Resilient[T]) TotalSuccesses() int64 {
	return r.orchestrator.Breaker().TotalSuccesses()
}

// TotalFailures returns the breaker's lifetime failure count.
func (r *Resilient[T]) TotalFailures() int64 {
	return r.orchestrator.Breaker().TotalFailures()
}

// LastSuccessAt returns the time of the most recent successful or
// healthy-application-error outcome, or the zero time if none occurred.
func (r *Resilient[T]) LastSuccessAt() time.Time {
	ns := r.lastSuccess.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// LastFailureAt returns the time of the most recent transport-category
// failure, or the zero time if none occurred.
func (r *Resilient[T]) LastFailureAt() time.Time {
	ns := r.lastFailure.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// ResetBreaker forces the underlying breaker back to Closed, for
// operator-triggered recovery.
func (r *Resilient[T]) ResetBreaker() {
	r.orchestrator.Breaker().Reset()
}

// Shutdown marks the proxy unhealthy, so Healthy reports false until the
// next call outcome is recorded; a later Execute or HealthCheck that reaches
// the inner client sets the health bit again. It does not close the
// underlying inner client, which outlives the proxy and may be shared.
func (r *Resilient[T]) Shutdown() {
	r.healthy.Store(false)
}
