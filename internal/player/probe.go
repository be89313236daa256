// Package player provides the HTTP-probing implementation of the playback
// capability: it does not decode audio, it watches the stream's HLS manifest
// and reports phases and errors the way a real player would.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"hls-failover/internal/failover"
)

const (
	// DefaultPollInterval is how often a ready session re-checks the manifest.
	DefaultPollInterval = 5 * time.Second
	// DefaultFetchTimeout bounds a single manifest fetch.
	DefaultFetchTimeout = 5 * time.Second

	maxManifestBytes = 1 << 20
)

// Probe implements failover.PlayerClient by fetching the endpoint's HLS
// manifest over HTTP. Load records the target, Play starts a session
// goroutine, Pause and Stop cancel it. Callbacks from a cancelled or
// superseded session are suppressed by session generation.
type Probe struct {
	client       *http.Client
	log          *slog.Logger
	pollInterval time.Duration
	fetchTimeout time.Duration

	mu       sync.Mutex
	listener failover.PlayerListener
	target   failover.Endpoint
	loaded   bool
	gen      uint64
	cancel   context.CancelFunc
}

// NewProbe returns a Probe using the given HTTP client. client may be nil for
// http.DefaultClient; log may be nil to discard logs; non-positive intervals
// take the defaults.
func NewProbe(client *http.Client, log *slog.Logger, pollInterval, fetchTimeout time.Duration) *Probe {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &Probe{
		client:       client,
		log:          log,
		pollInterval: pollInterval,
		fetchTimeout: fetchTimeout,
	}
}

// SetListener wires the feedback surface. Must be called before Play.
func (p *Probe) SetListener(l failover.PlayerListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = l
}

// Load implements failover.PlayerClient. Any running session is cancelled;
// no network I/O happens until Play.
func (p *Probe) Load(ep failover.Endpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelSessionLocked()
	p.target = ep
	p.loaded = true
}

// Play implements failover.PlayerClient: it starts a manifest-watching
// session for the loaded endpoint. Without a prior Load it is a no-op.
func (p *Probe) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return
	}
	p.cancelSessionLocked()

	ctx, cancel := context.WithCancel(context.Background())
	p.gen++
	p.cancel = cancel
	go p.run(ctx, p.gen, p.target)
}

// Pause implements failover.PlayerClient.
func (p *Probe) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelSessionLocked()
}

// Stop implements failover.PlayerClient. The loaded endpoint is forgotten.
func (p *Probe) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelSessionLocked()
	p.loaded = false
}

// cancelSessionLocked invalidates the running session, if any. Caller must
// hold p.mu.
func (p *Probe) cancelSessionLocked() {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Probe) run(ctx context.Context, gen uint64, ep failover.Endpoint) {
	p.reportPhase(gen, failover.PhaseLoading)

	manifest, err := p.fetch(ctx, ep.Address)
	if err != nil {
		p.reportError(gen, err)
		return
	}

	p.reportPhase(gen, failover.PhaseBuffering)
	p.reportPhase(gen, failover.PhaseReady)
	p.log.Debug("stream manifest ok", slog.String("endpoint", ep.Address))

	if manifestEnded(manifest) {
		p.reportPhase(gen, failover.PhaseEnded)
		return
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manifest, err := p.fetch(ctx, ep.Address)
			if err != nil {
				p.reportError(gen, err)
				return
			}
			if manifestEnded(manifest) {
				p.reportPhase(gen, failover.PhaseEnded)
				return
			}
		}
	}
}

// fetch retrieves and validates the manifest at url.
func (p *Probe) fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &badStatusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return "", err
	}
	manifest := string(body)
	if !strings.HasPrefix(strings.TrimSpace(manifest), "#EXTM3U") {
		return "", errMalformedManifest
	}
	return manifest, nil
}

func manifestEnded(manifest string) bool {
	return strings.Contains(manifest, "#EXT-X-ENDLIST")
}

// reportPhase delivers a phase change unless the session was superseded.
func (p *Probe) reportPhase(gen uint64, phase failover.Phase) {
	p.mu.Lock()
	listener := p.listener
	live := gen == p.gen
	p.mu.Unlock()

	if live && listener != nil {
		listener.OnPlayerPhaseChanged(phase)
	}
}

// reportError classifies err and delivers it unless the session was superseded.
func (p *Probe) reportError(gen uint64, err error) {
	p.mu.Lock()
	listener := p.listener
	live := gen == p.gen
	p.mu.Unlock()

	if !live || listener == nil {
		return
	}
	listener.OnPlayerError(classify(err), err.Error())
}

var errMalformedManifest = errors.New("manifest does not start with #EXTM3U")

type badStatusError struct {
	code int
}

func (e *badStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// classify maps a fetch failure to the controller's error taxonomy.
func classify(err error) failover.ErrorClass {
	var bad *badStatusError
	switch {
	case errors.As(err, &bad):
		return failover.ErrClassBadStatus
	case errors.Is(err, errMalformedManifest):
		return failover.ErrClassMalformedManifest
	case errors.Is(err, context.DeadlineExceeded):
		return failover.ErrClassNetworkTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return failover.ErrClassNetworkTimeout
		}
		return failover.ErrClassNetworkFailed
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return failover.ErrClassNetworkFailed
	}
	return failover.ErrClassOther
}
