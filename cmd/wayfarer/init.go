package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wayfarerhq/wayfarer/internal/defaults"
)

// runInit handles the "wayfarer init [dir]" subcommand. It prepares a
// working directory with an example config and the data subdirectory.
// Existing files are never overwritten.
func runInit(w io.Writer, dir string) error {
	fmt.Fprintf(w, "Initializing Wayfarer workspace in %s\n", dir)

	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dataDir, err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	if err := writeIfMissing(configPath, defaults.ConfigYAML); err != nil {
		return err
	}
	fmt.Fprintf(w, "  ✓ %s\n", configPath)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  1. Set WAYFARER_GEMINI_API_KEY (or edit config.yaml)")
	fmt.Fprintln(w, "  2. Run: wayfarer serve")
	return nil
}

// writeIfMissing writes content to path unless the file already exists.
func writeIfMissing(path string, content []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil // already exists, skip
	}
	return os.WriteFile(path, content, 0o644)
}
