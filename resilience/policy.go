package resilience

import (
	"math"
	"math/rand"
	"time"
)

// PolicyKind discriminates the retry policy variants.
type PolicyKind int

const (
	// PolicyNone never retries.
	PolicyNone PolicyKind = iota
	// PolicyFixed retries up to MaxRetries times, sleeping Interval between
	// attempts.
	PolicyFixed
	// PolicyExponential retries up to MaxRetries times with a backoff delay
	// that doubles (or Factor-multiplies) each attempt, capped at MaxDelay.
	PolicyExponential
)

// Policy is an immutable retry policy. Retry counts are attempt counts
// after the initial try, so MaxRetries=N means up to N+1 total executions.
type Policy struct {
	Kind PolicyKind

	// Fixed
	Interval time.Duration

	// Exponential
	InitialDelay time.Duration
	Factor       float64
	MaxDelay     time.Duration

	MaxRetries int

	// Jitter adds bounded (±25%) randomness to the computed exponential
	// delay. Off by default so that deterministic test scenarios can
	// assert exact sleep durations; spec §4.2 permits this as a MAY.
	Jitter bool
}

// NoRetry returns the None policy.
func NoRetry() Policy {
	return Policy{Kind: PolicyNone}
}

// Fixed returns a Fixed{interval, max_retries} policy.
func Fixed(interval time.Duration, maxRetries int) Policy {
	return Policy{Kind: PolicyFixed, Interval: interval, MaxRetries: maxRetries}
}

// ExponentialBackoff returns an ExponentialBackoff{initial, factor,
// max_retries, cap} policy.
func ExponentialBackoff(initial time.Duration, factor float64, maxRetries int, capDelay time.Duration) Policy {
	if factor < 1.0 {
		factor = 1.0
	}
	return Policy{
		Kind:         PolicyExponential,
		InitialDelay: initial,
		Factor:       factor,
		MaxDelay:     capDelay,
		MaxRetries:   maxRetries,
	}
}

// MaxAttempts returns the maximum retry count (not counting the initial
// attempt).
func (p Policy) MaxAttempts() int {
	if p.Kind == PolicyNone {
		return 0
	}
	return p.MaxRetries
}

// SleepFor computes the sleep duration before attempt+1, where attempt is
// 1-indexed (the attempt that just failed). sleep(n) = min(cap, initial *
// factor^(n-1)) for exponential backoff; Interval for fixed; zero for None.
func (p Policy) SleepFor(attempt int) time.Duration {
	switch p.Kind {
	case PolicyNone:
		return 0
	case PolicyFixed:
		return p.Interval
	case PolicyExponential:
		delay := float64(p.InitialDelay) * math.Pow(p.Factor, float64(attempt-1))
		if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
			delay = float64(p.MaxDelay)
		}
		if p.Jitter {
			jitter := delay * 0.25
			delay += (rand.Float64()*2 - 1) * jitter
			if delay < float64(p.InitialDelay) {
				delay = float64(p.InitialDelay)
			}
		}
		return time.Duration(delay)
	default:
		return 0
	}
}
