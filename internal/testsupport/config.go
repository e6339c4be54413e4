package testsupport

import (
	"path/filepath"
	"testing"

	"tonearm/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp paths per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Playback.Output = "headless"
	cfg.Parity.VectorDir = filepath.Join(base, "vectors")
	cfg.Parity.ArchivePath = filepath.Join(base, "parity.db")
	cfg.Parity.Platform = "testplatform"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithFramesPerBuffer overrides the pipeline buffer size.
func WithFramesPerBuffer(frames int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Playback.FramesPerBuffer = frames
	}
}

// WithPlatform overrides the parity platform name.
func WithPlatform(platform string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Parity.Platform = platform
	}
}
