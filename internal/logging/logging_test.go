package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"tonearm/internal/logging"
)

func TestNewJSONLoggerEmitsComponentAttr(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	component := logging.NewComponentLogger(logger, "pipeline")
	component.Info("cycle complete", logging.Int("frames", 2048))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if record["component"] != "pipeline" {
		t.Fatalf("expected component attr, got %v", record["component"])
	}
	if record["frames"] != float64(2048) {
		t.Fatalf("expected frames attr, got %v", record["frames"])
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info must be suppressed at warn level: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Fatalf("warn must pass at warn level: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestNewFallsBackToInfoForUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "shouty", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("unknown levels must fall back to info: %q", buf.String())
	}
}

func TestNopLoggerDiscardsEverything(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("dropped", logging.Error(nil))
	if logger.Enabled(nil, slog.LevelError) {
		t.Fatal("nop logger must report disabled")
	}
}
