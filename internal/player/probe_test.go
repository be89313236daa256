package player

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"hls-failover/internal/failover"
)

const liveManifest = "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:2\n#EXT-X-MEDIA-SEQUENCE:1\n#EXTINF:2.0,\n/1.ts\n"

// recListener records phases and errors delivered by the probe.
type recListener struct {
	mu     sync.Mutex
	phases []failover.Phase
	errs   []failover.ErrorClass
}

func (l *recListener) OnPlayerPhaseChanged(phase failover.Phase) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.phases = append(l.phases, phase)
}

func (l *recListener) OnPlayerError(class failover.ErrorClass, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, class)
}

func (l *recListener) snapshot() ([]failover.Phase, []failover.ErrorClass) {
	l.mu.Lock()
	defer l.mu.Unlock()
	phases := append([]failover.Phase(nil), l.phases...)
	errs := append([]failover.ErrorClass(nil), l.errs...)
	return phases, errs
}

// waitUntil polls cond for up to two seconds.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func startProbe(t *testing.T, url string) (*Probe, *recListener) {
	t.Helper()
	listener := &recListener{}
	probe := NewProbe(nil, nil, time.Hour, time.Second)
	probe.SetListener(listener)
	t.Cleanup(probe.Stop)

	probe.Load(failover.Endpoint{Index: 0, Address: url})
	probe.Play()
	return probe, listener
}

func TestProbe_reports_ready_for_live_manifest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(liveManifest))
	}))
	defer srv.Close()

	_, listener := startProbe(t, srv.URL)

	waitUntil(t, func() bool {
		phases, _ := listener.snapshot()
		return len(phases) >= 3
	})

	phases, errs := listener.snapshot()
	want := []failover.Phase{failover.PhaseLoading, failover.PhaseBuffering, failover.PhaseReady}
	for i, w := range want {
		if phases[i] != w {
			t.Errorf("phase %d = %v, want %v", i, phases[i], w)
		}
	}
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestProbe_reports_ended_for_endlist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(liveManifest + "#EXT-X-ENDLIST\n"))
	}))
	defer srv.Close()

	_, listener := startProbe(t, srv.URL)

	waitUntil(t, func() bool {
		phases, _ := listener.snapshot()
		return len(phases) > 0 && phases[len(phases)-1] == failover.PhaseEnded
	})
}

func TestProbe_reports_bad_status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, listener := startProbe(t, srv.URL)

	waitUntil(t, func() bool {
		_, errs := listener.snapshot()
		return len(errs) == 1
	})
	if _, errs := listener.snapshot(); errs[0] != failover.ErrClassBadStatus {
		t.Errorf("expected bad-status, got %v", errs[0])
	}
}

func TestProbe_reports_malformed_manifest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not a manifest</html>"))
	}))
	defer srv.Close()

	_, listener := startProbe(t, srv.URL)

	waitUntil(t, func() bool {
		_, errs := listener.snapshot()
		return len(errs) == 1
	})
	if _, errs := listener.snapshot(); errs[0] != failover.ErrClassMalformedManifest {
		t.Errorf("expected malformed-manifest, got %v", errs[0])
	}
}

func TestProbe_reports_connection_failure(t *testing.T) {
	// A server that is already closed refuses connections.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, listener := startProbe(t, url)

	waitUntil(t, func() bool {
		_, errs := listener.snapshot()
		return len(errs) == 1
	})
	if _, errs := listener.snapshot(); errs[0] != failover.ErrClassNetworkFailed {
		t.Errorf("expected network-connection-failed, got %v", errs[0])
	}
}

func TestProbe_reports_timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	listener := &recListener{}
	probe := NewProbe(nil, nil, time.Hour, 50*time.Millisecond)
	probe.SetListener(listener)
	defer probe.Stop()

	probe.Load(failover.Endpoint{Address: srv.URL})
	probe.Play()

	waitUntil(t, func() bool {
		_, errs := listener.snapshot()
		return len(errs) == 1
	})
	if _, errs := listener.snapshot(); errs[0] != failover.ErrClassNetworkTimeout {
		t.Errorf("expected network-timeout, got %v", errs[0])
	}
}

func TestProbe_play_without_load_is_noop(t *testing.T) {
	listener := &recListener{}
	probe := NewProbe(nil, nil, time.Hour, time.Second)
	probe.SetListener(listener)

	probe.Play()

	time.Sleep(50 * time.Millisecond)
	phases, errs := listener.snapshot()
	if len(phases) != 0 || len(errs) != 0 {
		t.Errorf("expected no callbacks, got phases=%v errs=%v", phases, errs)
	}
}

func TestProbe_stop_suppresses_stale_session(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.Write([]byte(liveManifest))
	}))
	defer srv.Close()

	probe, listener := startProbe(t, srv.URL)

	<-started
	probe.Stop()
	close(release)

	// Give the cancelled session time to unwind; it must deliver nothing
	// beyond the initial Loading phase.
	time.Sleep(100 * time.Millisecond)
	phases, errs := listener.snapshot()
	for _, p := range phases {
		if p != failover.PhaseLoading {
			t.Errorf("stale session delivered phase %v", p)
		}
	}
	if len(errs) != 0 {
		t.Errorf("stale session delivered errors: %v", errs)
	}
}
