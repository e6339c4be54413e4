package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Playback contains the decode-render pipeline knobs.
type Playback struct {
	FramesPerBuffer int `toml:"frames_per_buffer"`
	// Output selects the rendering backend: "auto" picks the platform
	// device backend, "headless" renders to nowhere.
	Output string `toml:"output"`
}

// Parity contains configuration for the behavioral parity runner.
type Parity struct {
	VectorDir   string `toml:"vector_dir"`
	ArchivePath string `toml:"archive_path"`
	// Platform names this backend in vector skip markers. Empty defaults
	// to the runtime OS.
	Platform string `toml:"platform"`
}

// Logging contains log sink configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config centralizes every knob the CLI and the playback core need.
type Config struct {
	Playback Playback `toml:"playback"`
	Parity   Parity   `toml:"parity"`
	Logging  Logging  `toml:"logging"`
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return "~/.config/tonearm/config.toml"
}

// Load reads the config at path, layering it over defaults. An empty path
// means the default location; a missing file at the default location is not
// an error and yields defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expand config path: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return finalize(&cfg)
		}
		return nil, fmt.Errorf("read config %s: %w", expanded, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", expanded, err)
	}
	return finalize(&cfg)
}

func finalize(cfg *Config) (*Config, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Sample returns the embedded annotated sample configuration.
func Sample() string { return sampleConfig }

// WriteSample writes the sample config to path, creating parent directories.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the directories the archive needs.
func (c *Config) EnsureDirectories() error {
	if c.Parity.ArchivePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Parity.ArchivePath), 0o755); err != nil {
		return fmt.Errorf("ensure archive dir: %w", err)
	}
	return nil
}
