package resilience

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/intellirouter/fabric/internal/metrics"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpen:
		return "Open"
	case StateHalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

// BreakerConfig is an immutable circuit breaker configuration.
type BreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	ResetTimeout     time.Duration
	// HalfOpenMaxCalls bounds the number of trial calls allowed through
	// while HalfOpen. Default 1.
	HalfOpenMaxCalls int
	Enabled          bool
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		ResetTimeout:     60 * time.Second,
		HalfOpenMaxCalls: 1,
		Enabled:          true,
	}
}

func (c BreakerConfig) normalized() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 1
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = 1
	}
	return c
}

// Breaker is a per-service circuit breaker. Counters are atomic; the state
// enum and last-failure timestamp are protected by a single mutex held
// across both updates (no I/O performed under the lock).
type Breaker struct {
	service string
	config  BreakerConfig
	logger  *zap.Logger
	metrics *metrics.Collector

	mu               sync.Mutex
	state            State
	lastFailureAt    time.Time
	lastSuccessAt    time.Time
	halfOpenInFlight int

	consecutiveFailures  atomic.Int64
	consecutiveSuccesses atomic.Int64
	totalSuccesses       atomic.Int64
	totalFailures        atomic.Int64
}

// NewBreaker creates a Breaker for the named service. Initial state is
// Closed.
func NewBreaker(service string, config BreakerConfig, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Breaker{
		service: service,
		config:  config.normalized(),
		logger:  logger,
		state:   StateClosed,
	}
}

// AllowExecution reports whether a call may proceed. If the breaker is
// Open and the reset timeout has elapsed, it transitions to HalfOpen and
// allows exactly one (or HalfOpenMaxCalls) trial call through. If disabled,
// it always returns true. No operation here blocks.
func (b *Breaker) AllowExecution() bool {
	if !b.config.Enabled {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.halfOpenInFlight >= b.config.HalfOpenMaxCalls {
			return false
		}
		b.halfOpenInFlight++
		return true
	case StateOpen:
		if time.Since(b.lastFailureAt) >= b.config.ResetTimeout {
			b.logger.Debug("breaker reset timeout elapsed, transitioning to half-open",
				zap.String("service", b.service))
			b.state = StateHalfOpen
			b.halfOpenInFlight = 1
			if b.metrics != nil {
				b.metrics.RecordBreakerState(b.service, int(StateHalfOpen))
				b.metrics.RecordBreakerTransition(b.service, "half_open")
			}
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess records a successful call. Degraded-mode counter
// maintenance still runs when the breaker is disabled.
func (b *Breaker) RecordSuccess() {
	b.totalSuccesses.Add(1)
	b.consecutiveFailures.Store(0)
	b.consecutiveSuccesses.Add(1)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastSuccessAt = time.Now()

	switch b.state {
	case StateHalfOpen:
		b.halfOpenInFlight--
		if b.halfOpenInFlight < 0 {
			b.halfOpenInFlight = 0
		}
		if b.consecutiveSuccesses.Load() >= int64(b.config.SuccessThreshold) {
			b.logger.Info("breaker success threshold reached, closing",
				zap.String("service", b.service))
			b.state = StateClosed
			b.consecutiveSuccesses.Store(0)
			b.halfOpenInFlight = 0
			if b.metrics != nil {
				b.metrics.RecordBreakerState(b.service, int(StateClosed))
				b.metrics.RecordBreakerTransition(b.service, "closed")
			}
		}
	case StateClosed:
		// consecutive_failures already reset above.
	}
	if b.metrics != nil {
		b.metrics.RecordBreakerConsecutiveFailures(b.service, 0)
	}
}

// RecordFailure records a failed call, transitioning Closed→Open on
// reaching FailureThreshold, and HalfOpen→Open immediately.
func (b *Breaker) RecordFailure() {
	b.totalFailures.Add(1)
	b.consecutiveSuccesses.Store(0)
	failures := b.consecutiveFailures.Add(1)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastFailureAt = time.Now()

	switch b.state {
	case StateClosed:
		if b.config.Enabled && failures >= int64(b.config.FailureThreshold) {
			b.logger.Warn("breaker failure threshold reached, opening",
				zap.String("service", b.service), zap.Int64("failures", failures))
			b.state = StateOpen
			if b.metrics != nil {
				b.metrics.RecordBreakerState(b.service, int(StateOpen))
				b.metrics.RecordBreakerTransition(b.service, "open")
			}
		}
	case StateHalfOpen:
		b.logger.Warn("breaker failed during half-open, reopening",
			zap.String("service", b.service))
		b.state = StateOpen
		b.halfOpenInFlight = 0
		if b.metrics != nil {
			b.metrics.RecordBreakerState(b.service, int(StateOpen))
			b.metrics.RecordBreakerTransition(b.service, "open")
		}
	}
	if b.metrics != nil {
		b.metrics.RecordBreakerConsecutiveFailures(b.service, failures)
	}
}

// SetMetrics attaches a metrics.Collector so state transitions and counter
// maintenance are observed on the fabric's Prometheus surface. Optional;
// a Breaker with no collector attached behaves identically, just silently.
func (b *Breaker) SetMetrics(m *metrics.Collector) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics = m
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset returns the breaker to Closed and clears both counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.halfOpenInFlight = 0
	b.consecutiveFailures.Store(0)
	b.consecutiveSuccesses.Store(0)
}

// Config returns the breaker's immutable configuration.
func (b *Breaker) Config() BreakerConfig { return b.config }

// ConsecutiveFailures returns the current consecutive-failure count.
func (b *Breaker) ConsecutiveFailures() int64 { return b.consecutiveFailures.Load() }

// TotalSuccesses returns the lifetime success count.
func (b *Breaker) TotalSuccesses() int64 { return b.totalSuccesses.Load() }

// TotalFailures returns the lifetime failure count.
func (b *Breaker) TotalFailures() int64 { return b.totalFailures.Load() }

// LastFailureAt returns the timestamp of the most recent failure, or the
// zero value if none has been recorded.
func (b *Breaker) LastFailureAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastFailureAt
}

// LastSuccessAt returns the timestamp of the most recent success, or the
// zero value if none has been recorded.
func (b *Breaker) LastSuccessAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSuccessAt
}
