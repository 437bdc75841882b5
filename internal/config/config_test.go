package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API != DefaultAPI {
		t.Fatalf("expected default api %q, got %q", DefaultAPI, cfg.API)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Fatalf("expected default timeout, got %v", cfg.Timeout)
	}
	if cfg.Dir != dir {
		t.Fatalf("expected dir %q, got %q", dir, cfg.Dir)
	}
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	body := "api: http://example.test:9000/\nformat: edn\ntimeout: 3s\ntui:\n  theme: light\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API != "http://example.test:9000" {
		t.Fatalf("expected trimmed api from file, got %q", cfg.API)
	}
	if cfg.Format != "edn" || cfg.Timeout != 3*time.Second || cfg.TUI.Theme != "light" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	t.Setenv("TASKLYNC_FORMAT", "yaml")
	t.Setenv("TASKLYNC_TUI_THEME", "dark")
	cfg, err = Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Format != "yaml" {
		t.Fatalf("expected env to override format, got %q", cfg.Format)
	}
	if cfg.TUI.Theme != "dark" {
		t.Fatalf("expected env to override nested key, got %q", cfg.TUI.Theme)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Dir = dir
	cfg.API = "http://saved.test"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.API != "http://saved.test" {
		t.Fatalf("expected saved api, got %q", got.API)
	}
}
