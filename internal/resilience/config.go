package resilience

import (
	"time"
)

// FromRetryConfig converts config values to a RetryConfig. Non-positive
// values keep the defaults, except maxRetries where a negative value
// disables retries.
func FromRetryConfig(maxRetries, initialDelayMs int, backoffFactor float64) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxRetries != 0 {
		cfg.MaxRetries = maxRetries
	}
	if initialDelayMs > 0 {
		cfg.InitialDelay = time.Duration(initialDelayMs) * time.Millisecond
	}
	if backoffFactor > 0 {
		cfg.BackoffFactor = backoffFactor
	}
	return cfg
}
