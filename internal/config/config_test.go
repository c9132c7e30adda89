package config

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points every lookup location at empty temp dirs.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func load(t *testing.T, opts Options) *Config {
	t.Helper()
	v, err := New(opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return cfg
}

func TestDefaults(t *testing.T) {
	dir := isolate(t)
	cfg := load(t, Options{EnvFile: filepath.Join(dir, "missing.env")})

	if cfg.DB.Path != filepath.Join(dir, "data", "yoga", "yoga.db") {
		t.Errorf("DB.Path = %s", cfg.DB.Path)
	}
	if cfg.Sync.BaseURL != "http://localhost:3000" {
		t.Errorf("Sync.BaseURL = %s", cfg.Sync.BaseURL)
	}
	if cfg.Sync.Timeout != 30*time.Second {
		t.Errorf("Sync.Timeout = %v, want 30s", cfg.Sync.Timeout)
	}
	if cfg.Sync.QueueSize != 16 {
		t.Errorf("Sync.QueueSize = %d, want 16", cfg.Sync.QueueSize)
	}
	if cfg.Daemon.Debounce != 500*time.Millisecond {
		t.Errorf("Daemon.Debounce = %v, want 500ms", cfg.Daemon.Debounce)
	}
	if cfg.Mirror.Addr != ":3000" {
		t.Errorf("Mirror.Addr = %s", cfg.Mirror.Addr)
	}
	if cfg.Output.Format != "table" {
		t.Errorf("Output.Format = %s", cfg.Output.Format)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := isolate(t)
	t.Setenv("YOGA_SYNC_BASE_URL", "http://studio.example:8080")
	t.Setenv("YOGA_SYNC_TIMEOUT", "5s")
	t.Setenv("YOGA_OUTPUT_FORMAT", "json")

	cfg := load(t, Options{EnvFile: filepath.Join(dir, "missing.env")})

	if cfg.Sync.BaseURL != "http://studio.example:8080" {
		t.Errorf("Sync.BaseURL = %s", cfg.Sync.BaseURL)
	}
	if cfg.Sync.Timeout != 5*time.Second {
		t.Errorf("Sync.Timeout = %v, want 5s", cfg.Sync.Timeout)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %s", cfg.Output.Format)
	}
}

func TestEnvFile(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("YOGA_MIRROR_ADDR=127.0.0.1:4000\n"), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("YOGA_MIRROR_ADDR") })

	cfg := load(t, Options{EnvFile: envFile})
	if cfg.Mirror.Addr != "127.0.0.1:4000" {
		t.Errorf("Mirror.Addr = %s, want value from .env", cfg.Mirror.Addr)
	}
}

func TestWriteDefault_RoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config", "yoga", "yoga.toml")

	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}
	if !strings.Contains(string(data), "[sync]") || !strings.Contains(string(data), `timeout = "30s"`) {
		t.Errorf("unexpected TOML:\n%s", data)
	}

	// Found through the user config dir without an explicit path.
	cfg := load(t, Options{EnvFile: filepath.Join(dir, "missing.env")})
	if cfg.Sync.Timeout != 30*time.Second {
		t.Errorf("Sync.Timeout = %v, want 30s", cfg.Sync.Timeout)
	}

	if err := WriteDefault(path, false); err == nil {
		t.Error("expected error when config exists")
	}
	if err := WriteDefault(path, true); err != nil {
		t.Errorf("WriteDefault(force) failed: %v", err)
	}
}

func TestConfigFile_Overrides(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	content := `
[db]
path = "/tmp/studio.db"

[daemon]
debounce = "2s"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg := load(t, Options{ConfigFile: path, EnvFile: filepath.Join(dir, "missing.env")})
	if cfg.DB.Path != "/tmp/studio.db" {
		t.Errorf("DB.Path = %s", cfg.DB.Path)
	}
	if cfg.Daemon.Debounce != 2*time.Second {
		t.Errorf("Daemon.Debounce = %v, want 2s", cfg.Daemon.Debounce)
	}
	if cfg.Sync.QueueSize != 16 {
		t.Errorf("Sync.QueueSize = %d, want default 16", cfg.Sync.QueueSize)
	}
}

func TestExplicitConfigFile_Missing(t *testing.T) {
	dir := isolate(t)
	_, err := New(Options{ConfigFile: filepath.Join(dir, "nope.toml"), EnvFile: filepath.Join(dir, "missing.env")})
	if err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	dir := isolate(t)
	base := load(t, Options{EnvFile: filepath.Join(dir, "missing.env")})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db path", func(c *Config) { c.DB.Path = " " }},
		{"zero timeout", func(c *Config) { c.Sync.Timeout = 0 }},
		{"zero queue", func(c *Config) { c.Sync.QueueSize = 0 }},
		{"zero debounce", func(c *Config) { c.Daemon.Debounce = 0 }},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestYAML(t *testing.T) {
	dir := isolate(t)
	cfg := load(t, Options{EnvFile: filepath.Join(dir, "missing.env")})

	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML() failed: %v", err)
	}
	for _, want := range []string{"base_url: http://localhost:3000", "timeout: 30s", "debounce: 500ms"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("YAML missing %q:\n%s", want, out)
		}
	}
}

func TestWatch_NoConfigFile(t *testing.T) {
	dir := isolate(t)
	v, err := New(Options{EnvFile: filepath.Join(dir, "missing.env")})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if Watch(v, log.Default(), func(*Config) {}) {
		t.Error("Watch() = true without a config file")
	}
}
