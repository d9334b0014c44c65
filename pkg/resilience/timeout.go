package resilience

import "time"

// TimeoutConfig holds the timeout hierarchy, outermost to innermost.
// Each layer must complete before its parent times out, so a slow provider
// call surfaces as a provider error instead of a dropped connection.
//
//	HTTP handler (60s)
//	  provider API call, all retries included (30s)
//	  database statement (5s, set on the pool)
type TimeoutConfig struct {
	// Server timeouts
	HTTPRead  time.Duration
	HTTPWrite time.Duration
	HTTPIdle  time.Duration

	// ProviderAPI bounds one provider client call end to end,
	// retries and response body included
	ProviderAPI time.Duration

	// ShutdownGrace is how long graceful shutdown waits for in-flight
	// work before giving up
	ShutdownGrace time.Duration
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPRead:      10 * time.Second,
		HTTPWrite:     60 * time.Second,
		HTTPIdle:      60 * time.Second,
		ProviderAPI:   30 * time.Second,
		ShutdownGrace: 15 * time.Second,
	}
}
