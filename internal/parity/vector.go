package parity

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"tonearm/internal/playback"
)

// DefaultPositionTolerance is the position-check tolerance every backend
// must meet: one millisecond.
const DefaultPositionTolerance = 0.001

// Document is a parsed parity vector: named fixtures plus ordered cases.
type Document struct {
	Name     string             `toml:"name"`
	Fixtures map[string]Fixture `toml:"fixtures"`
	Cases    []Case             `toml:"cases"`
}

// Fixture scripts the stream a fixture location decodes to.
type Fixture struct {
	// DurationSeconds may be inf for an unbounded stream.
	DurationSeconds float64 `toml:"duration_seconds"`
	SampleRate      int     `toml:"sample_rate"`
	Channels        int     `toml:"channels"`
	BitDepth        int     `toml:"bit_depth"`

	// OpenError, when set to an error kind name, makes opening the fixture
	// fail with that kind instead of producing a stream.
	OpenError string `toml:"open_error"`

	// FailAfterSeconds injects a mid-stream decode error once the cursor
	// passes this point. Zero means never.
	FailAfterSeconds float64 `toml:"fail_after_seconds"`

	// Tags maps tag field names to values. A key that is present with an
	// empty string is an explicit empty tag; a missing key is absent.
	Tags map[string]string `toml:"tags"`
}

// Case is one operation/assertion sequence.
type Case struct {
	Name string `toml:"name"`

	// SkipPlatforms lists platform names this case does not apply to;
	// SkipReason is mandatory when it is non-empty.
	SkipPlatforms []string `toml:"skip_platforms"`
	SkipReason    string   `toml:"skip_reason"`

	Steps  []Step  `toml:"steps"`
	Checks []Check `toml:"checks"`
}

// Step is a single operation applied to the machine under test.
type Step struct {
	Action string `toml:"action"`

	// Track names the fixture a "load" step opens.
	Track string `toml:"track"`

	// Seconds is the "seek" target. Deliberately unchecked at parse time
	// so vectors can probe out-of-range rejection.
	Seconds float64 `toml:"seconds"`

	// Until is the state a "wait_until" step polls for;
	// TimeoutSeconds bounds the poll (default 2s).
	Until          string  `toml:"until"`
	TimeoutSeconds float64 `toml:"timeout_seconds"`
}

// Check is a single assertion against the machine's final observable state
// or the last captured error.
type Check struct {
	Type      string   `toml:"type"`
	Expected  string   `toml:"expected"`
	Value     float64  `toml:"value"`
	Tolerance *float64 `toml:"tolerance"`

	// Field names the tag for tag_present / tag_absent / tag_value checks.
	Field string `toml:"field"`
}

var knownActions = map[string]struct{}{
	"load": {}, "play": {}, "pause": {}, "stop": {}, "seek": {}, "wait_until": {},
}

var knownChecks = map[string]struct{}{
	"state": {}, "error_kind": {}, "no_error": {}, "position": {},
	"duration": {}, "track_id": {}, "tag_present": {}, "tag_absent": {}, "tag_value": {},
}

// Parse decodes and validates a vector document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse vector: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile reads and parses one vector document.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vector %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// LoadDir parses every *.toml document under dir, sorted by file name.
func LoadDir(dir string) ([]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read vector dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	docs := make([]*Document, 0, len(names))
	for _, name := range names {
		doc, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Validate rejects documents the runner cannot execute deterministically.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("vector document requires a name")
	}
	for location, fix := range d.Fixtures {
		if fix.OpenError != "" {
			if _, ok := playback.ParseKind(fix.OpenError); !ok {
				return fmt.Errorf("fixture %q: unknown open_error kind %q", location, fix.OpenError)
			}
		}
		if math.IsNaN(fix.DurationSeconds) || fix.DurationSeconds < 0 {
			return fmt.Errorf("fixture %q: duration_seconds must be non-negative", location)
		}
	}

	seen := make(map[string]struct{}, len(d.Cases))
	for i, c := range d.Cases {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("case %d requires a name", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate case name %q", name)
		}
		seen[name] = struct{}{}
		if len(c.SkipPlatforms) > 0 && strings.TrimSpace(c.SkipReason) == "" {
			return fmt.Errorf("case %q: skip_platforms requires skip_reason", name)
		}
		for j, step := range c.Steps {
			if _, ok := knownActions[step.Action]; !ok {
				return fmt.Errorf("case %q step %d: unknown action %q", name, j, step.Action)
			}
			if step.Action == "load" {
				if _, ok := d.Fixtures[step.Track]; !ok {
					return fmt.Errorf("case %q step %d: load references unknown fixture %q", name, j, step.Track)
				}
			}
			if step.Action == "wait_until" {
				if _, ok := playback.ParseStatus(step.Until); !ok {
					return fmt.Errorf("case %q step %d: wait_until targets unknown state %q", name, j, step.Until)
				}
			}
		}
		for j, check := range c.Checks {
			if _, ok := knownChecks[check.Type]; !ok {
				return fmt.Errorf("case %q check %d: unknown type %q", name, j, check.Type)
			}
			switch check.Type {
			case "state":
				if _, ok := playback.ParseStatus(check.Expected); !ok {
					return fmt.Errorf("case %q check %d: unknown state %q", name, j, check.Expected)
				}
			case "error_kind":
				if _, ok := playback.ParseKind(check.Expected); !ok {
					return fmt.Errorf("case %q check %d: unknown error kind %q", name, j, check.Expected)
				}
			case "tag_present", "tag_absent", "tag_value":
				if strings.TrimSpace(check.Field) == "" {
					return fmt.Errorf("case %q check %d: tag check requires a field", name, j)
				}
			}
		}
	}
	return nil
}

// SkippedOn reports whether the case is exempt on the named platform.
func (c Case) SkippedOn(platform string) bool {
	for _, candidate := range c.SkipPlatforms {
		if strings.EqualFold(candidate, platform) {
			return true
		}
	}
	return false
}
