package failover

import "fmt"

// Endpoint is one candidate stream address in the configured pool.
// Endpoints are immutable once configured; Index is their position 0..N-1.
type Endpoint struct {
	Index   int    `json:"index"`
	Address string `json:"address"`
}

// Phase is the last reported playback phase of the player client.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseBuffering
	PhaseReady
	PhaseEnded
	PhaseFailed
)

// String returns the lower-case name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseBuffering:
		return "buffering"
	case PhaseReady:
		return "ready"
	case PhaseEnded:
		return "ended"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText lets Phase render as its name in JSON status payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ErrorClass classifies a per-attempt player failure. All classes drive the
// same endpoint-advance path; the taxonomy only shapes status-message text.
type ErrorClass int

const (
	ErrClassNetworkFailed ErrorClass = iota
	ErrClassNetworkTimeout
	ErrClassBadStatus
	ErrClassMalformedContainer
	ErrClassMalformedManifest
	ErrClassOther
)

func (e ErrorClass) String() string {
	switch e {
	case ErrClassNetworkFailed:
		return "network-connection-failed"
	case ErrClassNetworkTimeout:
		return "network-timeout"
	case ErrClassBadStatus:
		return "bad-status"
	case ErrClassMalformedContainer:
		return "malformed-container"
	case ErrClassMalformedManifest:
		return "malformed-manifest"
	default:
		return "other"
	}
}

// StatusKind classifies a StatusEvent.
type StatusKind int

const (
	StatusConnecting StatusKind = iota
	StatusBuffering
	StatusSwitchingEndpoint
	StatusRetrying
	StatusStreamReady
	StatusStopped
	StatusPermanentFailure
)

func (k StatusKind) String() string {
	switch k {
	case StatusConnecting:
		return "connecting"
	case StatusBuffering:
		return "buffering"
	case StatusSwitchingEndpoint:
		return "switching_endpoint"
	case StatusRetrying:
		return "retrying"
	case StatusStreamReady:
		return "stream_ready"
	case StatusStopped:
		return "stopped"
	case StatusPermanentFailure:
		return "permanent_failure"
	default:
		return "unknown"
	}
}

// MarshalText lets StatusKind render as its name in JSON status payloads.
func (k StatusKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// StatusEvent is a user-facing status notification emitted by the controller.
// Endpoint/Total are set for SwitchingEndpoint, Retry/MaxRetries for Retrying;
// they are zero otherwise. Events are informational only.
type StatusEvent struct {
	Kind       StatusKind `json:"kind"`
	Endpoint   int        `json:"endpoint,omitempty"`
	Total      int        `json:"total,omitempty"`
	Retry      int        `json:"retry,omitempty"`
	MaxRetries int        `json:"max_retries,omitempty"`
	Message    string     `json:"message"`
}

func switchingEvent(endpoint, total int) StatusEvent {
	return StatusEvent{
		Kind:     StatusSwitchingEndpoint,
		Endpoint: endpoint,
		Total:    total,
		Message:  fmt.Sprintf("trying endpoint %d/%d", endpoint, total),
	}
}

func retryingEvent(retry, maxRetries int) StatusEvent {
	return StatusEvent{
		Kind:       StatusRetrying,
		Retry:      retry,
		MaxRetries: maxRetries,
		Message:    fmt.Sprintf("retrying cycle %d/%d", retry, maxRetries),
	}
}
