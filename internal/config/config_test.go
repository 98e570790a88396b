package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quiz.Duration != "60s" || cfg.Quiz.Set != "default" || cfg.Server.Port != "8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "quiz:\n  duration: 30s\nredis:\n  addr: localhost:6379\n  ttl: 1h\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := Duration(cfg.Quiz.Duration, time.Minute); got != 30*time.Second {
		t.Fatalf("expected 30s, got %s", got)
	}
	if cfg.Quiz.Tick != "1s" || cfg.Log.Format != "pretty" {
		t.Fatalf("expected untouched defaults to survive, got %+v", cfg)
	}
	if backend := cfg.StorageBackend(BackendMemory); backend != BackendRedis {
		t.Fatalf("expected redis backend inferred, got %s", backend)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	_ = os.WriteFile(path, []byte("quiz: [unterminated"), 0o644)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDuration(t *testing.T) {
	if got := Duration("", time.Second); got != time.Second {
		t.Fatalf("expected fallback, got %s", got)
	}
	if got := Duration("bogus", time.Second); got != time.Second {
		t.Fatalf("expected fallback for invalid input, got %s", got)
	}
	if got := Duration("90s", time.Second); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
}
