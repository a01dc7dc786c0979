package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRun_RetryToSuccess(t *testing.T) {
	policy := ExponentialBackoff(10*time.Millisecond, 2.0, 5, time.Second)
	breaker := NewBreaker("svc", DefaultBreakerConfig(), zap.NewNop())
	o := NewOrchestrator("svc", policy, breaker, nil, zap.NewNop())

	var invocations int
	var delays []time.Duration
	last := time.Now()

	_, err := Run(context.Background(), o, func(ctx context.Context) (string, error) {
		now := time.Now()
		if invocations > 0 {
			delays = append(delays, now.Sub(last))
		}
		last = now
		invocations++
		if invocations <= 3 {
			return "", errors.New("network down")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, invocations)
	require.Len(t, delays, 3)
	for i, want := range []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond} {
		assert.GreaterOrEqual(t, delays[i], want, "delay %d", i)
	}
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, int64(0), breaker.ConsecutiveFailures())
	assert.Equal(t, int64(3), breaker.TotalFailures())
	assert.Equal(t, int64(1), breaker.TotalSuccesses())
}

func TestRun_NonRetryableShortCircuits(t *testing.T) {
	policy := Fixed(10*time.Millisecond, 5)
	breaker := NewBreaker("svc", DefaultBreakerConfig(), zap.NewNop())
	o := NewOrchestrator("svc", policy, breaker, nil, zap.NewNop())

	var invocations int
	start := time.Now()
	_, err := Run(context.Background(), o, func(ctx context.Context) (string, error) {
		invocations++
		return "", errors.New("invalid request: missing field")
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, 1, invocations)
	assert.Less(t, elapsed, 5*time.Millisecond)
	var fe *Error
	assert.False(t, errors.As(err, &fe)) // the raw error is returned unmodified
	assert.Equal(t, int64(1), breaker.TotalFailures())
	assert.NotEqual(t, StateOpen, breaker.State())
}

func TestRun_BreakerOpenFailsFastWithoutInvokingThunk(t *testing.T) {
	breaker := NewBreaker("svc", BreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		ResetTimeout:     100 * time.Millisecond,
		HalfOpenMaxCalls: 1,
		Enabled:          true,
	}, zap.NewNop())
	breaker.RecordFailure()
	breaker.RecordFailure()
	require.Equal(t, StateOpen, breaker.State())

	o := NewOrchestrator("svc", Fixed(time.Millisecond, 3), breaker, nil, zap.NewNop())

	var invocations int
	_, err := Run(context.Background(), o, func(ctx context.Context) (string, error) {
		invocations++
		return "", nil
	})

	require.Error(t, err)
	assert.Equal(t, 0, invocations)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindCircuitOpen, fe.Kind)

	time.Sleep(150 * time.Millisecond)
	_, err = Run(context.Background(), o, func(ctx context.Context) (string, error) {
		invocations++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, invocations)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestRun_CancellationAbandonsSleepWithoutBreakerUpdate(t *testing.T) {
	policy := Fixed(time.Hour, 5)
	breaker := NewBreaker("svc", DefaultBreakerConfig(), zap.NewNop())
	o := NewOrchestrator("svc", policy, breaker, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	var invocations int

	done := make(chan error, 1)
	go func() {
		_, err := Run(ctx, o, func(ctx context.Context) (string, error) {
			invocations++
			return "", errors.New("network blip")
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	failuresBefore := breaker.TotalFailures()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Equal(t, 1, invocations)
	assert.Equal(t, failuresBefore, breaker.TotalFailures())
}

func TestRunStream_NeverRetriesAndRecordsImmediately(t *testing.T) {
	breaker := NewBreaker("svc", DefaultBreakerConfig(), zap.NewNop())
	o := NewOrchestrator("svc", Fixed(time.Millisecond, 5), breaker, nil, zap.NewNop())

	var invocations int
	_, err := RunStream(context.Background(), o, func(ctx context.Context) (string, error) {
		invocations++
		return "", errors.New("network down")
	})
	require.Error(t, err)
	assert.Equal(t, 1, invocations)
	assert.Equal(t, int64(1), breaker.TotalFailures())

	invocations = 0
	handle, err := RunStream(context.Background(), o, func(ctx context.Context) (string, error) {
		invocations++
		return "stream-handle", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stream-handle", handle)
	assert.Equal(t, 1, invocations)
	assert.Equal(t, int64(1), breaker.TotalSuccesses())
}
