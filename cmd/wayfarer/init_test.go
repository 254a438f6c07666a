package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wayfarerhq/wayfarer/internal/config"
)

func TestRunInitCreatesWorkspace(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	if err := runInit(&out, dir); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "data")); err != nil {
		t.Errorf("data dir not created: %v", err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	// The example config must parse with the real loader.
	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("example config does not load: %v", err)
	}
	if cfg.Listen.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Listen.Port)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("model = %q", cfg.Gemini.Model)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("max_retries = %d, want 3", cfg.Retry.MaxRetries)
	}

	if !strings.Contains(out.String(), "config.yaml") {
		t.Errorf("output missing config path:\n%s", out.String())
	}
}

func TestRunInitPreservesExistingConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("listen:\n  port: 9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runInit(&out, dir); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.Listen.Port != 9999 {
		t.Errorf("existing config was overwritten: port = %d", cfg.Listen.Port)
	}
}
