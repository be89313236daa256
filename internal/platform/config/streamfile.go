package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// StreamFile is the YAML file declaring the stream's endpoint pool and retry
// tuning. Example:
//
//	stream:
//	  name: main
//	  endpoints:
//	    - https://a.example.com/live.m3u8
//	    - https://b.example.com/live.m3u8
//	retry:
//	  max_cycle_retries: 5
//	  base_delay_ms: 3000
//	  buffering_timeout_ms: 10000
//	  settle_delay_ms: 1000
type StreamFile struct {
	Stream StreamConfig `yaml:"stream"`
	Retry  RetryConfig  `yaml:"retry"`
}

// StreamConfig names the logical stream and lists its candidate endpoints in
// failover order.
type StreamConfig struct {
	Name      string   `yaml:"name"`
	Endpoints []string `yaml:"endpoints"`
}

// RetryConfig tunes the reconnection behavior. Delays are milliseconds; zero
// fields take the controller defaults.
type RetryConfig struct {
	MaxCycleRetries    int `yaml:"max_cycle_retries"`
	BaseDelayMs        int `yaml:"base_delay_ms"`
	BufferingTimeoutMs int `yaml:"buffering_timeout_ms"`
	SettleDelayMs      int `yaml:"settle_delay_ms"`
}

// BaseDelay returns the configured base backoff delay, or 0 if unset.
func (r RetryConfig) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelayMs) * time.Millisecond
}

// BufferingTimeout returns the configured buffering stall timeout, or 0 if unset.
func (r RetryConfig) BufferingTimeout() time.Duration {
	return time.Duration(r.BufferingTimeoutMs) * time.Millisecond
}

// SettleDelay returns the configured settle pause, or 0 if unset.
func (r RetryConfig) SettleDelay() time.Duration {
	return time.Duration(r.SettleDelayMs) * time.Millisecond
}

// ErrNoStreamEndpoints is returned when the stream file lists no endpoints.
var ErrNoStreamEndpoints = errors.New("stream file lists no endpoints")

// LoadStreamFile reads and validates the YAML stream file at path.
func LoadStreamFile(path string) (*StreamFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stream file: %w", err)
	}

	var sf StreamFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse stream file: %w", err)
	}
	if err := sf.Validate(); err != nil {
		return nil, err
	}
	return &sf, nil
}

// Validate checks that the stream file describes a usable endpoint pool.
func (sf *StreamFile) Validate() error {
	if len(sf.Stream.Endpoints) == 0 {
		return ErrNoStreamEndpoints
	}
	for i, ep := range sf.Stream.Endpoints {
		if ep == "" {
			return fmt.Errorf("stream file endpoint %d is empty", i)
		}
	}
	return nil
}
