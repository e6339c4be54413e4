package media

import (
	"fmt"
	"math"
	"strings"
)

// Track references a playable resource. The location may be a filesystem
// path or an opaque locator a decoder knows how to resolve.
type Track struct {
	ID       string
	Location string
	Title    string
	Artist   string
	Album    string

	// DurationHint is advisory only; the authoritative duration comes from
	// StreamInfo once the track is opened. Zero means unknown.
	DurationHint float64
}

// Validate reports whether the track carries the minimum fields the core
// needs to open it.
func (t Track) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("track id must not be empty")
	}
	if strings.TrimSpace(t.Location) == "" {
		return fmt.Errorf("track %s: location must not be empty", t.ID)
	}
	return nil
}

// StreamInfo describes a decoded stream's technical properties. It is
// produced only by a decoder at open time and never mutated afterwards.
type StreamInfo struct {
	// DurationSeconds is non-negative and may be +Inf for unbounded streams.
	DurationSeconds float64
	SampleRate      int
	Channels        int
	BitDepth        int
}

// InfiniteDuration marks a stream with no known end, such as a live source.
func InfiniteDuration() float64 { return math.Inf(1) }

// Unbounded reports whether the stream has no finite duration.
func (s StreamInfo) Unbounded() bool { return math.IsInf(s.DurationSeconds, 1) }

// Validate checks the invariants every conforming decoder must uphold.
func (s StreamInfo) Validate() error {
	if s.DurationSeconds < 0 || math.IsNaN(s.DurationSeconds) {
		return fmt.Errorf("stream duration must be non-negative, got %v", s.DurationSeconds)
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("stream sample rate must be positive, got %d", s.SampleRate)
	}
	if s.Channels < 1 {
		return fmt.Errorf("stream channel count must be at least 1, got %d", s.Channels)
	}
	if s.BitDepth < 8 {
		return fmt.Errorf("stream bit depth must be at least 8, got %d", s.BitDepth)
	}
	return nil
}
