package playback

import (
	"time"

	"github.com/google/uuid"

	"tonearm/internal/media"
)

// Handle identifies a live decode session. It is opaque to the core: only
// the decoder that issued it resolves it back to a real resource. The zero
// value means "no session".
type Handle struct {
	id string
}

// NewHandle mints a unique session token. Decoders call this once per Open.
func NewHandle() Handle {
	return Handle{id: uuid.NewString()}
}

// IsZero reports whether the handle identifies no session.
func (h Handle) IsZero() bool { return h.id == "" }

func (h Handle) String() string {
	if h.id == "" {
		return "<none>"
	}
	return h.id
}

// Decoder is the port a decoding backend implements. Implementations own
// every resource behind a Handle and must return already-classified *Error
// values; the core performs no native-error inspection.
//
// Read fills dst with interleaved float32 PCM frames and reports how many
// frames it produced. Zero frames with a nil error signals end of stream.
// dst capacity is always at least maxFrames * channel count.
type Decoder interface {
	Open(location string) (Handle, error)
	Info(h Handle) (media.StreamInfo, error)
	Tags(h Handle) (media.TagBundle, error)
	Read(h Handle, dst []float32, maxFrames int) (int, error)
	Seek(h Handle, seconds float64) error
	Close(h Handle) error
}

// Output is the port an audio rendering backend implements.
//
// Render may consume fewer frames than offered; that is backpressure, not an
// error, and the caller retries with the remainder. Start and Stop are
// idempotent and safe to call repeatedly.
type Output interface {
	Configure(sampleRate, channels, framesPerBuffer int) error
	Start() error
	Stop() error
	Render(buf []float32, frames int) (int, error)
	Close() error
}

// Clock supplies monotonic time. It exists so deterministic tests and parity
// runs can substitute a manual source.
type Clock interface {
	Now() time.Duration
}

// SystemClock is the production Clock, monotonic from construction time.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a Clock backed by the runtime's monotonic reading.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() time.Duration { return time.Since(c.start) }
