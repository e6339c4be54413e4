package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Normalize expands user paths and fills derived defaults in place.
func (c *Config) Normalize() error {
	var err error
	if c.Parity.VectorDir, err = ExpandPath(c.Parity.VectorDir); err != nil {
		return fmt.Errorf("vector_dir: %w", err)
	}
	if c.Parity.ArchivePath, err = ExpandPath(c.Parity.ArchivePath); err != nil {
		return fmt.Errorf("archive_path: %w", err)
	}
	if strings.TrimSpace(c.Parity.Platform) == "" {
		c.Parity.Platform = runtime.GOOS
	}
	c.Playback.Output = strings.ToLower(strings.TrimSpace(c.Playback.Output))
	if c.Playback.Output == "" {
		c.Playback.Output = defaultOutput
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}

// ExpandPath resolves a leading tilde against the current user's home.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Clean(trimmed), nil
}
