package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clipvault.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// WHAT: a missing config file yields the defaults with derived paths
// filled in.
func TestLoadFileMissing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Monitor.Enabled || !cfg.Monitor.RemoveDuplicates {
		t.Fatalf("monitor defaults wrong: %+v", cfg.Monitor)
	}
	if cfg.Monitor.PollInterval.Std() != 500*time.Millisecond {
		t.Fatalf("poll interval = %v, want 500ms", cfg.Monitor.PollInterval)
	}
	if cfg.Storage.BlobDir == "" || cfg.Backup.Dir == "" {
		t.Fatalf("derived dirs not filled: %+v", cfg)
	}
}

// WHAT: keys present in the file override defaults, absent keys keep them.
func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
monitor:
  enabled: false
  max_history_items: 50
storage:
  database_path: /var/lib/clipvault/history.db
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Monitor.Enabled {
		t.Fatal("monitor.enabled override ignored")
	}
	if cfg.Monitor.MaxHistoryItems != 50 {
		t.Fatalf("max_history_items = %d, want 50", cfg.Monitor.MaxHistoryItems)
	}
	// Untouched keys keep defaults.
	if !cfg.Monitor.CaptureImages || cfg.Cleanup.RetentionDays != 30 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	// Derived dirs follow the database location.
	if got := cfg.Storage.BlobDir; got != filepath.Join("/var/lib/clipvault", "images") {
		t.Fatalf("blob dir = %q", got)
	}
	if got := cfg.Backup.Dir; got != filepath.Join("/var/lib/clipvault", "backups") {
		t.Fatalf("backup dir = %q", got)
	}
}

// WHAT: zero or negative durations fall back to defaults instead of
// producing a hot-spinning poll loop.
func TestLoadFileBackfillsBadDurations(t *testing.T) {
	path := writeConfig(t, `
monitor:
  poll_interval: 0s
cleanup:
  interval: -1h
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Monitor.PollInterval.Std() != 500*time.Millisecond {
		t.Fatalf("poll interval = %v, want backfilled 500ms", cfg.Monitor.PollInterval)
	}
	if cfg.Cleanup.Interval.Std() != 24*time.Hour {
		t.Fatalf("cleanup interval = %v, want backfilled 24h", cfg.Cleanup.Interval)
	}
}

// WHAT: enabling cleanup without a positive retention is a config error.
func TestLoadFileValidates(t *testing.T) {
	path := writeConfig(t, `
cleanup:
  enabled: true
  retention_days: 0
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("want validation error for retention_days: 0")
	}

	path = writeConfig(t, `
monitor:
  max_history_items: -5
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("want validation error for negative max_history_items")
	}
}

// WHAT: malformed YAML surfaces a parse error naming the file.
func TestLoadFileParseError(t *testing.T) {
	path := writeConfig(t, "monitor: [not a map")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("want parse error")
	}
}
