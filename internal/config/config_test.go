package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
listen:
  port: 9090
gemini:
  api_key: test-key
  model: gemini-2.0-flash
retry:
  max_retries: 5
  initial_delay_sec: 2
log_level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Listen.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Listen.Port)
	}
	if cfg.Gemini.APIKey != "test-key" {
		t.Errorf("api_key = %q, want test-key", cfg.Gemini.APIKey)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Errorf("max_retries = %d, want 5", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.InitialDelay().Seconds() != 2 {
		t.Errorf("initial_delay = %v, want 2s", cfg.Retry.InitialDelay())
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("WAYFARER_TEST_KEY", "secret-from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "gemini:\n  api_key: ${WAYFARER_TEST_KEY}\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gemini.APIKey != "secret-from-env" {
		t.Errorf("api_key = %q, want secret-from-env", cfg.Gemini.APIKey)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Listen.Port)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("default model = %q", cfg.Gemini.Model)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("default max_retries = %d, want 3", cfg.Retry.MaxRetries)
	}
}

func TestFindConfigExplicitMissing(t *testing.T) {
	if _, err := FindConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"trace", LevelTrace, false},
		{"debug", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"  debug  ", slog.LevelDebug, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLogLevel(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLogLevel(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
