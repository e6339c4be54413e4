package playback

import "time"

// Status names a playback state machine state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusPaused  Status = "paused"
	StatusPlaying Status = "playing"
	StatusStopped Status = "stopped"
	StatusError   Status = "error"
)

// ParseStatus resolves a status from its string form. The second return is
// false for unknown names.
func ParseStatus(name string) (Status, bool) {
	switch Status(name) {
	case StatusIdle, StatusLoading, StatusPaused, StatusPlaying, StatusStopped, StatusError:
		return Status(name), true
	}
	return "", false
}

// Snapshot is the externally observable playback state. It is immutable;
// the Player publishes a fresh value after every state-affecting operation,
// so readers never observe a half-applied transition.
type Snapshot struct {
	Status Status

	// TrackID is empty when no track is loaded.
	TrackID string

	// Position and BufferedUntil are seconds from the start of the stream;
	// BufferedUntil >= Position always holds. DurationSeconds is zero when
	// nothing is loaded and may be +Inf for unbounded streams.
	Position        float64
	BufferedUntil   float64
	DurationSeconds float64

	// Err carries the classified failure when Status is StatusError.
	Err *Error

	// UpdatedAt is the injected clock's monotonic reading when this
	// snapshot was published.
	UpdatedAt time.Duration
}
