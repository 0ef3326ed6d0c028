package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPassesValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestLoadWithoutPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.ListenIP != Default().ListenIP {
		t.Fatalf("Load(\"\").ListenIP = %q, want default %q", cfg.ListenIP, Default().ListenIP)
	}
}

func TestLoadOverlaysYAMLOnDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	yaml := "listen_ip: 10.0.0.5\nmax_workers: 64\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenIP != "10.0.0.5" {
		t.Fatalf("ListenIP = %q, want 10.0.0.5", cfg.ListenIP)
	}
	if cfg.MaxWorkers != 64 {
		t.Fatalf("MaxWorkers = %d, want 64", cfg.MaxWorkers)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	// Fields absent from the file keep their defaults.
	if cfg.QueueSize != Default().QueueSize {
		t.Fatalf("QueueSize = %d, want default %d", cfg.QueueSize, Default().QueueSize)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Load() with missing file: want error, got nil")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("max_workers: -1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("Load() with negative max_workers: want error, got nil")
	}
}

func TestSweeperEnabled(t *testing.T) {
	cfg := Default()
	if cfg.SweeperEnabled() {
		t.Fatalf("SweeperEnabled() with clean_interval=0 = true, want false")
	}
	cfg.CleanIntervalSeconds = 30
	if !cfg.SweeperEnabled() {
		t.Fatalf("SweeperEnabled() with clean_interval=30 = false, want true")
	}
}
