package failover

import (
	"sync"
	"time"
)

// TimerHandle identifies one scheduled callback. Handles are never reused
// within a scheduler, so a cancelled or superseded timer can be recognized
// by identity when its callback still manages to fire.
type TimerHandle uint64

// Scheduler is the timer capability the controller depends on: fire fn(handle)
// once after delay, or never if the handle is cancelled first.
// Implementations may invoke fn from any goroutine.
type Scheduler interface {
	Schedule(delay time.Duration, fn func(TimerHandle)) TimerHandle
	Cancel(handle TimerHandle)
}

// WallScheduler is a Scheduler backed by the wall clock (time.AfterFunc).
type WallScheduler struct {
	mu     sync.Mutex
	next   TimerHandle
	timers map[TimerHandle]*time.Timer
}

// NewWallScheduler returns an empty wall-clock scheduler.
func NewWallScheduler() *WallScheduler {
	return &WallScheduler{timers: make(map[TimerHandle]*time.Timer)}
}

// Schedule implements Scheduler.Schedule.
func (s *WallScheduler) Schedule(delay time.Duration, fn func(TimerHandle)) TimerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	handle := s.next
	s.timers[handle] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, handle)
		s.mu.Unlock()
		fn(handle)
	})
	return handle
}

// Cancel implements Scheduler.Cancel. Cancelling an unknown or already-fired
// handle is a no-op; a callback that raced the cancel still carries a handle
// the caller no longer considers pending.
func (s *WallScheduler) Cancel(handle TimerHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[handle]; ok {
		t.Stop()
		delete(s.timers, handle)
	}
}
