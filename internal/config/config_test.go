package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"tonearm/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[playback]
frames_per_buffer = 512

[parity]
platform = "reference"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Playback.FramesPerBuffer != 512 {
		t.Fatalf("expected overridden frames_per_buffer, got %d", cfg.Playback.FramesPerBuffer)
	}
	if cfg.Playback.Output != "auto" {
		t.Fatalf("unset keys must keep defaults, got output %q", cfg.Playback.Output)
	}
	if cfg.Parity.Platform != "reference" {
		t.Fatalf("expected overridden platform, got %q", cfg.Parity.Platform)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default log level, got %q", cfg.Logging.Level)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("an explicitly named missing config must fail")
	}
}

func TestNormalizeFillsPlatformAndLowercasesOutput(t *testing.T) {
	path := writeConfig(t, `
[playback]
output = " Headless "
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Playback.Output != "headless" {
		t.Fatalf("output must normalize to lowercase, got %q", cfg.Playback.Output)
	}
	if cfg.Parity.Platform != runtime.GOOS {
		t.Fatalf("platform must default to the runtime OS, got %q", cfg.Parity.Platform)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	for name, contents := range map[string]string{
		"zero buffer": `
[playback]
frames_per_buffer = 0
`,
		"unknown level": `
[logging]
level = "loud"
`,
		"unknown format": `
[logging]
format = "yaml"
`,
	} {
		path := writeConfig(t, contents)
		if _, err := config.Load(path); err == nil {
			t.Fatalf("%s: expected validation failure", name)
		}
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	path := writeConfig(t, config.Sample())

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("the shipped sample must load cleanly: %v", err)
	}
	if cfg.Playback.FramesPerBuffer <= 0 {
		t.Fatalf("sample produced a broken config: %#v", cfg)
	}
}

func TestWriteSampleRefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[playback]") {
		t.Fatal("sample must contain a playback section")
	}

	if err := config.WriteSample(path); err == nil {
		t.Fatal("WriteSample must refuse to clobber an existing file")
	}
}

func TestExpandPathResolvesTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	expanded, err := config.ExpandPath("~/music/a.wav")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if expanded != filepath.Join(home, "music", "a.wav") {
		t.Fatalf("unexpected expansion: %q", expanded)
	}

	plain, err := config.ExpandPath("/tmp/x")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if plain != "/tmp/x" {
		t.Fatalf("absolute paths must pass through, got %q", plain)
	}
}
