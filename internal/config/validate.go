package config

import "fmt"

var knownLevels = map[string]struct{}{
	"": {}, "debug": {}, "info": {}, "warn": {}, "error": {},
}

var knownFormats = map[string]struct{}{
	"": {}, "console": {}, "json": {},
}

// Validate rejects configurations the core cannot run with.
func (c *Config) Validate() error {
	if c.Playback.FramesPerBuffer <= 0 {
		return fmt.Errorf("playback.frames_per_buffer must be positive, got %d", c.Playback.FramesPerBuffer)
	}
	if c.Playback.Output == "" {
		return fmt.Errorf("playback.output must not be empty")
	}
	if _, ok := knownLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	if _, ok := knownFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}
