// Package config handles Wayfarer configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/wayfarer/config.yaml, /etc/wayfarer/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "wayfarer", "config.yaml"))
	}

	paths = append(paths, "/etc/wayfarer/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Wayfarer configuration.
type Config struct {
	Listen   ListenConfig `yaml:"listen"`
	Gemini   GeminiConfig `yaml:"gemini"`
	Retry    RetryConfig  `yaml:"retry"`
	DataDir  string       `yaml:"data_dir"`
	ShareURL string       `yaml:"share_url"` // Public base URL used in share links and QR codes
	LogLevel string       `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// GeminiConfig defines model provider settings. The API key is the single
// required secret; its absence is a fatal startup condition, not a per-call
// error. Use ${WAYFARER_GEMINI_API_KEY} in the YAML to read it from the
// environment.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`    // Default: gemini-2.0-flash
	BaseURL string `yaml:"base_url"` // Override for testing; empty = production endpoint
}

// RetryConfig defines the backoff schedule for model calls.
type RetryConfig struct {
	// MaxRetries is the retry budget after the initial attempt.
	MaxRetries int `yaml:"max_retries"`
	// InitialDelaySec is the first backoff delay in seconds. Doubles each retry.
	InitialDelaySec int `yaml:"initial_delay_sec"`
	// MaxDelaySec caps delay growth. Zero means uncapped.
	MaxDelaySec int `yaml:"max_delay_sec"`
	// AttemptTimeoutSec bounds each individual model-call attempt so a hung
	// attempt cannot starve the retry schedule. Zero means no per-attempt bound.
	AttemptTimeoutSec int `yaml:"attempt_timeout_sec"`
}

// InitialDelay returns the configured initial delay as a duration.
func (r RetryConfig) InitialDelay() time.Duration {
	return time.Duration(r.InitialDelaySec) * time.Second
}

// MaxDelay returns the configured delay cap as a duration.
func (r RetryConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelaySec) * time.Second
}

// AttemptTimeout returns the per-attempt timeout as a duration.
func (r RetryConfig) AttemptTimeout() time.Duration {
	return time.Duration(r.AttemptTimeoutSec) * time.Second
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 8080},
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		Retry: RetryConfig{
			MaxRetries:        3,
			InitialDelaySec:   1,
			AttemptTimeoutSec: 90,
		},
		DataDir: ".",
	}
}
