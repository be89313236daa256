package failover

import (
	"log/slog"
	"sync"
)

// StatusSink receives user-facing status notifications from the controller.
// Sinks are informational: the controller never depends on them for
// correctness and ignores nothing they do.
type StatusSink interface {
	OnStatus(ev StatusEvent)
}

// StatusFunc adapts a function to a StatusSink.
type StatusFunc func(ev StatusEvent)

// OnStatus implements StatusSink.
func (f StatusFunc) OnStatus(ev StatusEvent) { f(ev) }

// MultiSink fans one status event out to several sinks, in order.
type MultiSink []StatusSink

// OnStatus implements StatusSink.
func (m MultiSink) OnStatus(ev StatusEvent) {
	for _, s := range m {
		s.OnStatus(ev)
	}
}

// LogSink logs every status event through a structured logger.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink returns a sink that logs events at info level.
func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log}
}

// OnStatus implements StatusSink.
func (s *LogSink) OnStatus(ev StatusEvent) {
	attrs := []any{
		slog.String("kind", ev.Kind.String()),
		slog.String("message", ev.Message),
	}
	if ev.Kind == StatusSwitchingEndpoint {
		attrs = append(attrs, slog.Int("endpoint", ev.Endpoint), slog.Int("total", ev.Total))
	}
	if ev.Kind == StatusRetrying {
		attrs = append(attrs, slog.Int("retry", ev.Retry), slog.Int("max_retries", ev.MaxRetries))
	}
	s.log.Info("playback status", attrs...)
}

// DefaultStatusHistory is how many recent events a MemorySink keeps when
// constructed with a non-positive capacity.
const DefaultStatusHistory = 32

// MemorySink keeps the most recent status events in memory so a status
// endpoint can report what the controller has been doing. Safe for
// concurrent use.
type MemorySink struct {
	mu     sync.Mutex
	cap    int
	events []StatusEvent
}

// NewMemorySink returns a sink retaining at most capacity events.
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = DefaultStatusHistory
	}
	return &MemorySink{cap: capacity}
}

// OnStatus implements StatusSink.
func (s *MemorySink) OnStatus(ev StatusEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)
	if len(s.events) > s.cap {
		s.events = s.events[len(s.events)-s.cap:]
	}
}

// Recent returns a copy of the retained events, oldest first.
func (s *MemorySink) Recent() []StatusEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]StatusEvent, len(s.events))
	copy(out, s.events)
	return out
}
