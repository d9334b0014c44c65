package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoff_GrowsAndCaps(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
		Jitter:     0, // deterministic
	}

	assert.Equal(t, 100*time.Millisecond, eb.NextDelay(0))
	assert.Equal(t, 200*time.Millisecond, eb.NextDelay(1))
	assert.Equal(t, 400*time.Millisecond, eb.NextDelay(2))
	assert.Equal(t, 800*time.Millisecond, eb.NextDelay(3))
	// Capped from here on
	assert.Equal(t, time.Second, eb.NextDelay(4))
	assert.Equal(t, time.Second, eb.NextDelay(10))
}

func TestExponentialBackoff_NegativeAttempt(t *testing.T) {
	eb := ProviderBackoff()

	assert.Equal(t, eb.BaseDelay, eb.NextDelay(-1))
}

func TestExponentialBackoff_JitterStaysInBand(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Minute,
		Multiplier: 2.0,
		Jitter:     0.1,
	}

	for i := 0; i < 100; i++ {
		delay := eb.NextDelay(2) // nominal 400ms
		assert.GreaterOrEqual(t, delay, 360*time.Millisecond)
		assert.LessOrEqual(t, delay, 440*time.Millisecond)
	}
}

func TestFixedBackoff(t *testing.T) {
	fb := &FixedBackoff{Delay: time.Second}

	assert.Equal(t, time.Second, fb.NextDelay(0))
	assert.Equal(t, time.Second, fb.NextDelay(9))
}
