package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("FAILOVER_TEST_STR", "value")
	if got := GetEnv("FAILOVER_TEST_STR", "fallback"); got != "value" {
		t.Errorf("expected value, got %q", got)
	}
	if got := GetEnv("FAILOVER_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("FAILOVER_TEST_INT", "7")
	if got := GetEnvInt("FAILOVER_TEST_INT", 3); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	t.Setenv("FAILOVER_TEST_INT", "not a number")
	if got := GetEnvInt("FAILOVER_TEST_INT", 3); got != 3 {
		t.Errorf("expected fallback 3, got %d", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("FAILOVER_TEST_DUR", "250ms")
	if got := GetEnvDuration("FAILOVER_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", got)
	}
	t.Setenv("FAILOVER_TEST_DUR", "soon")
	if got := GetEnvDuration("FAILOVER_TEST_DUR", time.Second); got != time.Second {
		t.Errorf("expected fallback 1s, got %v", got)
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("FAILOVER_TEST_LIST", "http://a, http://b ,,http://c")
	got := GetEnvList("FAILOVER_TEST_LIST", nil)
	if len(got) != 3 || got[0] != "http://a" || got[1] != "http://b" || got[2] != "http://c" {
		t.Errorf("unexpected list: %v", got)
	}
	if got := GetEnvList("FAILOVER_TEST_LIST_MISSING", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Errorf("expected fallback, got %v", got)
	}
	t.Setenv("FAILOVER_TEST_LIST", " , ")
	if got := GetEnvList("FAILOVER_TEST_LIST", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Errorf("blank entries should fall back, got %v", got)
	}
}

func writeStreamFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stream.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write stream file: %v", err)
	}
	return path
}

func TestLoadStreamFile(t *testing.T) {
	path := writeStreamFile(t, `
stream:
  name: main
  endpoints:
    - https://a.example.com/live.m3u8
    - https://b.example.com/live.m3u8
retry:
  max_cycle_retries: 3
  base_delay_ms: 2000
  buffering_timeout_ms: 8000
  settle_delay_ms: 500
`)

	sf, err := LoadStreamFile(path)
	if err != nil {
		t.Fatalf("LoadStreamFile: %v", err)
	}
	if sf.Stream.Name != "main" || len(sf.Stream.Endpoints) != 2 {
		t.Errorf("unexpected stream config: %+v", sf.Stream)
	}
	if sf.Retry.MaxCycleRetries != 3 || sf.Retry.BaseDelay() != 2*time.Second ||
		sf.Retry.BufferingTimeout() != 8*time.Second || sf.Retry.SettleDelay() != 500*time.Millisecond {
		t.Errorf("unexpected retry config: %+v", sf.Retry)
	}
}

func TestLoadStreamFile_no_endpoints(t *testing.T) {
	path := writeStreamFile(t, "stream:\n  name: main\n")

	_, err := LoadStreamFile(path)
	if !errors.Is(err, ErrNoStreamEndpoints) {
		t.Errorf("expected ErrNoStreamEndpoints, got %v", err)
	}
}

func TestLoadStreamFile_empty_endpoint(t *testing.T) {
	path := writeStreamFile(t, "stream:\n  endpoints:\n    - https://a\n    - \"\"\n")

	if _, err := LoadStreamFile(path); err == nil {
		t.Error("expected error for empty endpoint entry")
	}
}

func TestLoadStreamFile_missing(t *testing.T) {
	if _, err := LoadStreamFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadStreamFile_bad_yaml(t *testing.T) {
	path := writeStreamFile(t, "stream: [unclosed")

	if _, err := LoadStreamFile(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
