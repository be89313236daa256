package failover

import "time"

// Defaults for RetryPolicy fields left zero.
const (
	DefaultMaxCycleRetries  = 5
	DefaultBaseDelay        = 3 * time.Second
	DefaultBufferingTimeout = 10 * time.Second
	DefaultSettleDelay      = 1 * time.Second
)

// RetryPolicy holds the static retry tuning for a controller: how many full
// passes over the endpoint pool to attempt, the linear backoff step between
// passes, the silent-stall timeout while buffering, and the settle pause
// before loading the next endpoint.
type RetryPolicy struct {
	MaxCycleRetries  int
	BaseDelay        time.Duration
	BufferingTimeout time.Duration
	SettleDelay      time.Duration
}

// DefaultRetryPolicy returns the default retry tuning.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxCycleRetries:  DefaultMaxCycleRetries,
		BaseDelay:        DefaultBaseDelay,
		BufferingTimeout: DefaultBufferingTimeout,
		SettleDelay:      DefaultSettleDelay,
	}
}

// withDefaults fills zero or negative fields from the defaults.
func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxCycleRetries <= 0 {
		p.MaxCycleRetries = DefaultMaxCycleRetries
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.BufferingTimeout <= 0 {
		p.BufferingTimeout = DefaultBufferingTimeout
	}
	if p.SettleDelay <= 0 {
		p.SettleDelay = DefaultSettleDelay
	}
	return p
}

// ShouldRetry reports whether another full-cycle retry may start after
// cycleRetries completed retries.
func (p RetryPolicy) ShouldRetry(cycleRetries int) bool {
	return cycleRetries < p.MaxCycleRetries
}

// NextDelay returns the backoff before retry number retry (1-based):
// BaseDelay grows linearly, so retries wait 1x, 2x, 3x... the base.
func (p RetryPolicy) NextDelay(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	return time.Duration(retry) * p.BaseDelay
}
