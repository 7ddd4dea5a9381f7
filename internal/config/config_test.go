package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Bind != "127.0.0.1:8159" {
		t.Errorf("default bind = %q", cfg.Server.Bind)
	}
	if cfg.Granule.Scanlines != 120 || cfg.Granule.CalibEvery != 40 {
		t.Errorf("default granule = %+v", cfg.Granule)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Bind != Default().Server.Bind {
		t.Errorf("missing file should keep defaults, got bind %q", cfg.Server.Bind)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fcdrd.toml")
	body := `
[server]
bind = "0.0.0.0:9000"

[logging]
level = "debug"

[granule]
scanlines = 240
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Bind != "0.0.0.0:9000" {
		t.Errorf("bind = %q, want 0.0.0.0:9000", cfg.Server.Bind)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Granule.Scanlines != 240 {
		t.Errorf("granule.scanlines = %d, want 240", cfg.Granule.Scanlines)
	}
	// Unset keys keep their defaults.
	if cfg.Granule.CalibEvery != 40 {
		t.Errorf("granule.calib_every = %d, want default 40", cfg.Granule.CalibEvery)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("logging.format = %q, want default text", cfg.Logging.Format)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fcdrd.toml")
	if err := os.WriteFile(path, []byte("[granule]\nscanlines = -5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for negative scanlines")
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fcdrd.toml")
	if err := os.WriteFile(path, []byte("[server\nbind ="), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
