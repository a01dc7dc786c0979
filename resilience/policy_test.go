package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_None(t *testing.T) {
	p := NoRetry()
	assert.Equal(t, 0, p.MaxAttempts())
	assert.Equal(t, time.Duration(0), p.SleepFor(1))
}

func TestPolicy_Fixed(t *testing.T) {
	p := Fixed(10*time.Millisecond, 5)
	assert.Equal(t, 5, p.MaxAttempts())
	assert.Equal(t, 10*time.Millisecond, p.SleepFor(1))
	assert.Equal(t, 10*time.Millisecond, p.SleepFor(4))
}

func TestPolicy_ExponentialBackoff(t *testing.T) {
	p := ExponentialBackoff(10*time.Millisecond, 2.0, 5, 1000*time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, p.SleepFor(1))
	assert.Equal(t, 20*time.Millisecond, p.SleepFor(2))
	assert.Equal(t, 40*time.Millisecond, p.SleepFor(3))
	assert.Equal(t, 80*time.Millisecond, p.SleepFor(4))
}

func TestPolicy_ExponentialBackoff_CapsAtMaxDelay(t *testing.T) {
	p := ExponentialBackoff(100*time.Millisecond, 10.0, 10, 500*time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, p.SleepFor(3))
}

func TestPolicy_ExponentialBackoff_JitterStaysWithinBounds(t *testing.T) {
	p := ExponentialBackoff(100*time.Millisecond, 2.0, 5, time.Second)
	p.Jitter = true
	for i := 0; i < 50; i++ {
		d := p.SleepFor(2)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 250*time.Millisecond)
	}
}

func TestPolicy_FactorBelowOneIsClamped(t *testing.T) {
	p := ExponentialBackoff(10*time.Millisecond, 0.5, 3, time.Second)
	assert.Equal(t, 1.0, p.Factor)
}
