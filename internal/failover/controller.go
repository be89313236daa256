package failover

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// PlayerClient is the playback capability the controller drives. The real
// decoding, buffering, and network I/O live behind it; the controller only
// issues commands and consumes the PlayerListener feedback.
type PlayerClient interface {
	Load(ep Endpoint)
	Play()
	Pause()
	Stop()
}

// PlayerListener is the inbound feedback surface a player client reports to.
// Controller implements it.
type PlayerListener interface {
	OnPlayerPhaseChanged(phase Phase)
	OnPlayerError(class ErrorClass, msg string)
}

// ErrNoEndpoints is returned when a controller is constructed with an empty
// endpoint pool.
var ErrNoEndpoints = errors.New("no endpoints configured")

// timerKind records what a pending timer is for, so a fire can be dispatched
// without guessing from phase alone.
type timerKind int

const (
	timerNone timerKind = iota
	timerBufferTimeout
	timerSettle
	timerCycleRestart
)

// Controller decides, from player phase changes, player errors, and timer
// fires, whether to keep waiting, advance to the next endpoint, restart the
// whole cycle with backoff, or give up and report permanent failure. It never
// issues playback the user did not ask for: once Stop is called, every
// inbound event is a no-op until the next Start.
//
// All session state is owned by the controller and guarded by one mutex;
// player commands and status events are issued outside the lock so a player
// client may call back synchronously without deadlocking.
type Controller struct {
	player    PlayerClient
	sched     Scheduler
	sink      StatusSink
	log       *slog.Logger
	policy    RetryPolicy
	endpoints []Endpoint

	mu           sync.Mutex
	desired      bool
	phase        Phase
	current      int
	cycleRetries int
	playing      bool
	pending      TimerHandle
	pendingKind  timerKind
}

// NewController builds a controller over the given ordered endpoint pool.
// sink may be nil to discard status events; log may be nil to discard logs.
// Zero policy fields take their defaults.
func NewController(addresses []string, player PlayerClient, sched Scheduler, sink StatusSink, log *slog.Logger, policy RetryPolicy) (*Controller, error) {
	if len(addresses) == 0 {
		return nil, ErrNoEndpoints
	}
	if sink == nil {
		sink = StatusFunc(func(StatusEvent) {})
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	endpoints := make([]Endpoint, len(addresses))
	for i, addr := range addresses {
		endpoints[i] = Endpoint{Index: i, Address: addr}
	}

	return &Controller{
		player:    player,
		sched:     sched,
		sink:      sink,
		log:       log,
		policy:    policy.withDefaults(),
		endpoints: endpoints,
		phase:     PhaseIdle,
	}, nil
}

// Endpoints returns the configured endpoint pool.
func (c *Controller) Endpoints() []Endpoint {
	out := make([]Endpoint, len(c.endpoints))
	copy(out, c.endpoints)
	return out
}

// Snapshot is a point-in-time copy of the controller's session state.
type Snapshot struct {
	Desired       bool   `json:"desired"`
	Phase         Phase  `json:"phase"`
	EndpointIndex int    `json:"endpoint_index"`
	Endpoint      string `json:"endpoint"`
	Endpoints     int    `json:"endpoints"`
	CycleRetries  int    `json:"cycle_retries"`
	TimerPending  bool   `json:"timer_pending"`
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Desired:       c.desired,
		Phase:         c.phase,
		EndpointIndex: c.current,
		Endpoint:      c.endpoints[c.current].Address,
		Endpoints:     len(c.endpoints),
		CycleRetries:  c.cycleRetries,
		TimerPending:  c.pending != 0,
	}
}

// Start begins playback from the first endpoint. It is a no-op if playback is
// already desired and an attempt is in flight.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.desired && c.phase != PhaseIdle && c.phase != PhaseFailed {
		c.mu.Unlock()
		return
	}
	c.desired = true
	c.current = 0
	c.cycleRetries = 0
	c.playing = true
	c.cancelTimerLocked()
	c.phase = PhaseLoading
	ep := c.endpoints[0]
	c.mu.Unlock()

	c.log.Info("starting playback", slog.String("endpoint", ep.Address))
	c.sink.OnStatus(StatusEvent{Kind: StatusConnecting, Message: "connecting to " + ep.Address})
	c.player.Load(ep)
	c.player.Play()
}

// Stop halts playback and invalidates any pending timer. Safe to call at any
// time and any number of times.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.desired = false
	c.playing = false
	c.cancelTimerLocked()
	c.phase = PhaseIdle
	c.mu.Unlock()

	c.log.Info("stopping playback")
	c.player.Stop()
	c.sink.OnStatus(StatusEvent{Kind: StatusStopped, Message: "playback stopped"})
}

// OnPlayerPhaseChanged implements PlayerListener. It is the single entry
// point for player phase feedback and is ignored entirely while playback is
// not desired.
func (c *Controller) OnPlayerPhaseChanged(phase Phase) {
	c.mu.Lock()
	if !c.desired {
		c.mu.Unlock()
		return
	}

	prev := c.phase
	c.phase = phase

	var evs []StatusEvent
	var cmds []func()

	switch phase {
	case PhaseBuffering:
		c.scheduleLocked(timerBufferTimeout, c.policy.BufferingTimeout)
		evs = append(evs, StatusEvent{Kind: StatusBuffering, Message: "buffering"})
	case PhaseReady:
		c.cancelTimerLocked()
		c.current = 0
		c.cycleRetries = 0
		evs = append(evs, StatusEvent{Kind: StatusStreamReady, Message: "stream ready"})
		if !c.playing {
			c.playing = true
			cmds = append(cmds, c.player.Play)
		}
	case PhaseEnded, PhaseFailed:
		// A live stream is not expected to end while desired; treat both as a
		// failed attempt.
		evs, cmds = c.advanceLocked()
	default:
		// Leaving Buffering for any reason invalidates its stall timer.
		if prev == PhaseBuffering && c.pendingKind == timerBufferTimeout {
			c.cancelTimerLocked()
		}
	}
	c.mu.Unlock()

	c.log.Debug("player phase changed",
		slog.String("from", prev.String()),
		slog.String("to", phase.String()))
	c.dispatch(evs, cmds)
}

// OnPlayerError implements PlayerListener. Every error class drives the same
// endpoint-advance path. Ignored while playback is not desired.
func (c *Controller) OnPlayerError(class ErrorClass, msg string) {
	c.mu.Lock()
	if !c.desired {
		c.mu.Unlock()
		return
	}
	evs, cmds := c.advanceLocked()
	c.mu.Unlock()

	c.log.Warn("player error",
		slog.String("class", class.String()),
		slog.String("error", msg))
	c.dispatch(evs, cmds)
}

// OnTimerFired handles a timer callback. Stale handles (cancelled or
// superseded) and fires after Stop are no-ops.
func (c *Controller) OnTimerFired(handle TimerHandle) {
	c.mu.Lock()
	if !c.desired || handle == 0 || handle != c.pending {
		c.mu.Unlock()
		return
	}
	kind := c.pendingKind
	c.pending = 0
	c.pendingKind = timerNone

	var evs []StatusEvent
	var cmds []func()

	switch kind {
	case timerBufferTimeout:
		if c.phase == PhaseBuffering {
			evs, cmds = c.advanceLocked()
		}
	case timerSettle, timerCycleRestart:
		c.phase = PhaseLoading
		c.playing = true
		ep := c.endpoints[c.current]
		cmds = append(cmds,
			func() { c.player.Load(ep) },
			c.player.Play,
		)
	}
	c.mu.Unlock()

	c.dispatch(evs, cmds)
}

// advanceLocked is the shared failed-attempt path: move to the next endpoint
// after a settle pause, or, with the pool exhausted, restart the cycle with
// linear backoff until the retry budget runs out. Caller must hold c.mu.
func (c *Controller) advanceLocked() (evs []StatusEvent, cmds []func()) {
	c.cancelTimerLocked()

	if c.current < len(c.endpoints)-1 {
		c.current++
		c.phase = PhaseLoading
		evs = append(evs, switchingEvent(c.current, len(c.endpoints)))
		c.scheduleLocked(timerSettle, c.policy.SettleDelay)
		return evs, nil
	}

	// Full pass over the pool without a Ready.
	c.current = 0
	if !c.policy.ShouldRetry(c.cycleRetries) {
		c.desired = false
		c.playing = false
		c.phase = PhaseIdle
		evs = append(evs, StatusEvent{Kind: StatusPermanentFailure, Message: "giving up: all endpoints failed"})
		cmds = append(cmds, c.player.Stop)
		return evs, cmds
	}

	c.cycleRetries++
	c.phase = PhaseLoading
	evs = append(evs, retryingEvent(c.cycleRetries, c.policy.MaxCycleRetries))
	c.scheduleLocked(timerCycleRestart, c.policy.NextDelay(c.cycleRetries))
	return evs, nil
}

// scheduleLocked replaces the pending timer, keeping the at-most-one-pending
// invariant. Caller must hold c.mu.
func (c *Controller) scheduleLocked(kind timerKind, delay time.Duration) {
	c.cancelTimerLocked()
	c.pendingKind = kind
	c.pending = c.sched.Schedule(delay, c.OnTimerFired)
}

// cancelTimerLocked invalidates any pending timer. Caller must hold c.mu.
func (c *Controller) cancelTimerLocked() {
	if c.pending != 0 {
		c.sched.Cancel(c.pending)
		c.pending = 0
		c.pendingKind = timerNone
	}
}

// dispatch emits status events and runs player commands outside the lock.
func (c *Controller) dispatch(evs []StatusEvent, cmds []func()) {
	for _, ev := range evs {
		c.sink.OnStatus(ev)
	}
	for _, cmd := range cmds {
		cmd()
	}
}
