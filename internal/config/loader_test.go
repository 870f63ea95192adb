package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	t.Setenv("VITALWATCH_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8090 {
		t.Errorf("port = %d, want default 8090", cfg.Server.Port)
	}
	if !cfg.Scheduler.Enabled {
		t.Error("scheduler should default to enabled")
	}
}

func TestLoadFileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	file := map[string]any{
		"server": map[string]any{"port": 9000, "host": "0.0.0.0"},
		"store":  map[string]any{"path": "/tmp/from-file.db"},
	}
	data, _ := json.Marshal(file)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("VITALWATCH_CONFIG", path)
	t.Setenv("VITALWATCH_SERVER_PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Env beats file, file beats defaults.
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q, want file value", cfg.Server.Host)
	}
	if cfg.Store.Path != "/tmp/from-file.db" {
		t.Errorf("store path = %q, want file value", cfg.Store.Path)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{not json"), 0o600)
	t.Setenv("VITALWATCH_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestStreamConfigFromEnv(t *testing.T) {
	t.Setenv("VITALWATCH_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("VITALWATCH_STREAM_USER_INTERVAL", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Stream.UserInterval != 2*time.Second {
		t.Errorf("user interval = %v, want 2s", cfg.Stream.UserInterval)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	got, err := ExpandHome("~/.vitalwatch/db")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != filepath.Join(home, ".vitalwatch", "db") {
		t.Errorf("expanded = %q", got)
	}

	plain := "/var/lib/vitalwatch.db"
	if got, _ := ExpandHome(plain); got != plain {
		t.Errorf("plain path changed: %q", got)
	}
}
