package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/intellirouter/fabric/internal/metrics"
)

// Thunk is an idempotent unit of work the orchestrator may invoke more than
// once. Callers must tolerate repeated invocation: "the underlying
// transport may receive multiple attempts."
type Thunk[T any] func(ctx context.Context) (T, error)

// Orchestrator composes a retry Policy, a Breaker, and a retryable-category
// set around a Thunk.
type Orchestrator struct {
	service   string
	policy    Policy
	breaker   *Breaker
	retryable map[Category]bool
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// SetMetrics attaches a metrics.Collector so attempt counts, inter-attempt
// sleeps, and final outcomes are observed on the fabric's Prometheus
// surface. Optional; nil is a no-op.
func (o *Orchestrator) SetMetrics(m *metrics.Collector) { o.metrics = m }

// NewOrchestrator builds an Orchestrator for a service. A nil retryable map
// uses DefaultRetryableCategories.
func NewOrchestrator(service string, policy Policy, breaker *Breaker, retryable map[Category]bool, logger *zap.Logger) *Orchestrator {
	if retryable == nil {
		retryable = DefaultRetryableCategories()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{service: service, policy: policy, breaker: breaker, retryable: retryable, logger: logger}
}

// Breaker returns the orchestrator's underlying breaker, for callers (such
// as proxy.Resilient) that need to gate a non-retried call the same way
// Run does.
func (o *Orchestrator) Breaker() *Breaker { return o.breaker }

// Policy returns the orchestrator's configured retry policy.
func (o *Orchestrator) Policy() Policy { return o.policy }

// Service returns the orchestrator's service name.
func (o *Orchestrator) Service() string { return o.service }

// Run executes thunk until success, policy exhaustion, a non-retryable
// error, or an open breaker.
//
// Cancellation: if ctx is cancelled while the thunk is in flight or during
// the inter-attempt sleep, Run returns ctx.Err() promptly and performs no
// breaker update for the cancelled attempt — cancellation is never recorded
// as a failure. Failures of earlier attempts in the same call were already
// recorded before their sleep and stay recorded.
func Run[T any](ctx context.Context, o *Orchestrator, thunk Thunk[T]) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		if o.metrics != nil {
			o.metrics.RecordRetryAttempt(o.service)
		}
		if !o.breaker.AllowExecution() {
			if o.metrics != nil {
				o.metrics.RecordRetryOutcome(o.service, "circuit_open")
			}
			return zero, ErrCircuitOpen(o.service)
		}

		result, err := thunk(ctx)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		if err == nil {
			o.breaker.RecordSuccess()
			if o.metrics != nil {
				o.metrics.RecordRetryOutcome(o.service, "success")
			}
			return result, nil
		}

		category := Categorize(err)
		if !o.retryable[category] {
			o.breaker.RecordFailure()
			if o.metrics != nil {
				o.metrics.RecordRetryOutcome(o.service, "failure")
			}
			return zero, err
		}

		maxAttempts := o.policy.MaxAttempts()
		if attempt > maxAttempts {
			o.breaker.RecordFailure()
			if o.metrics != nil {
				o.metrics.RecordRetryOutcome(o.service, "failure")
			}
			return zero, err
		}

		o.breaker.RecordFailure()

		delay := o.policy.SleepFor(attempt)
		o.logger.Debug("retrying",
			zap.String("service", o.service),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if o.metrics != nil {
			o.metrics.RecordRetrySleep(o.service, delay.Seconds())
		}
		if o.policy.Kind == PolicyNone {
			if o.metrics != nil {
				o.metrics.RecordRetryOutcome(o.service, "failure")
			}
			return zero, err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// RunStream consults the breaker only, then returns the stream handle on
// success and records success immediately: the stream's own subsequent
// errors are outside the orchestrator's view, because partial stream
// consumption cannot be replayed idempotently. Streaming calls are never
// retried by the orchestrator.
func RunStream[T any](ctx context.Context, o *Orchestrator, thunk Thunk[T]) (T, error) {
	var zero T
	if !o.breaker.AllowExecution() {
		return zero, ErrCircuitOpen(o.service)
	}
	result, err := thunk(ctx)
	if err != nil {
		o.breaker.RecordFailure()
		return zero, err
	}
	o.breaker.RecordSuccess()
	return result, nil
}
