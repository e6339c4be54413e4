package testsupport

import (
	"math"
	"sync"

	"tonearm/internal/media"
	"tonearm/internal/playback"
)

// StubStream scripts what the StubDecoder serves for one location.
type StubStream struct {
	Info media.StreamInfo
	Tags media.TagBundle

	// OpenErr fails Open for this location when non-nil.
	OpenErr error

	// FailAtFrame injects a decode error once the cursor reaches this
	// frame. Negative means never.
	FailAtFrame int64
}

// Tone returns a stream definition with sane defaults for the given
// duration.
func Tone(durationSeconds float64) StubStream {
	return StubStream{
		Info: media.StreamInfo{
			DurationSeconds: durationSeconds,
			SampleRate:      44100,
			Channels:        2,
			BitDepth:        16,
		},
		FailAtFrame: -1,
	}
}

// StubDecoder is a scripted Decoder port that counts opens and closes so
// tests can assert the single-session invariant.
type StubDecoder struct {
	mu       sync.Mutex
	streams  map[string]StubStream
	sessions map[playback.Handle]*stubSession
	opens    int
	closes   int
}

type stubSession struct {
	stream StubStream
	cursor int64
	total  int64
}

// NewStubDecoder builds a decoder serving the provided locations.
func NewStubDecoder(streams map[string]StubStream) *StubDecoder {
	return &StubDecoder{
		streams:  streams,
		sessions: make(map[playback.Handle]*stubSession),
	}
}

func (d *StubDecoder) Open(location string) (playback.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stream, ok := d.streams[location]
	if !ok {
		return playback.Handle{}, playback.Errorf(playback.KindNotFound, "no stream at %s", location)
	}
	if stream.OpenErr != nil {
		return playback.Handle{}, stream.OpenErr
	}

	handle := playback.NewHandle()
	d.sessions[handle] = &stubSession{
		stream: stream,
		total:  int64(math.Round(stream.Info.DurationSeconds * float64(stream.Info.SampleRate))),
	}
	d.opens++
	return handle, nil
}

func (d *StubDecoder) Info(h playback.Handle) (media.StreamInfo, error) {
	s, err := d.session(h)
	if err != nil {
		return media.StreamInfo{}, err
	}
	return s.stream.Info, nil
}

func (d *StubDecoder) Tags(h playback.Handle) (media.TagBundle, error) {
	s, err := d.session(h)
	if err != nil {
		return media.TagBundle{}, err
	}
	return s.stream.Tags.Clone(), nil
}

func (d *StubDecoder) Read(h playback.Handle, dst []float32, maxFrames int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[h]
	if !ok {
		return 0, playback.Errorf(playback.KindInvalidArgument, "unknown decode handle %s", h)
	}

	if s.stream.FailAtFrame >= 0 && s.cursor >= s.stream.FailAtFrame {
		return 0, playback.Errorf(playback.KindDecodeError, "scripted failure at frame %d", s.stream.FailAtFrame)
	}
	remaining := s.total - s.cursor
	if remaining <= 0 {
		return 0, nil
	}
	frames := int64(maxFrames)
	if frames > remaining {
		frames = remaining
	}
	if s.stream.FailAtFrame >= 0 && s.cursor+frames > s.stream.FailAtFrame {
		frames = s.stream.FailAtFrame - s.cursor
	}
	for i := int64(0); i < frames*int64(s.stream.Info.Channels); i++ {
		dst[i] = 0
	}
	s.cursor += frames
	return int(frames), nil
}

func (d *StubDecoder) Seek(h playback.Handle, seconds float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[h]
	if !ok {
		return playback.Errorf(playback.KindInvalidArgument, "unknown decode handle %s", h)
	}
	if seconds < 0 {
		return playback.Errorf(playback.KindInvalidArgument, "seek target %.3fs is negative", seconds)
	}
	frame := int64(math.Round(seconds * float64(s.stream.Info.SampleRate)))
	if frame > s.total {
		return playback.Errorf(playback.KindInvalidArgument, "seek target %.3fs is past end of stream", seconds)
	}
	s.cursor = frame
	return nil
}

func (d *StubDecoder) Close(h playback.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[h]; !ok {
		return playback.Errorf(playback.KindInvalidArgument, "unknown decode handle %s", h)
	}
	delete(d.sessions, h)
	d.closes++
	return nil
}

// OpenCount returns how many sessions were ever opened.
func (d *StubDecoder) OpenCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// CloseCount returns how many sessions were closed.
func (d *StubDecoder) CloseCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// LiveSessions returns how many handles are currently open.
func (d *StubDecoder) LiveSessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

func (d *StubDecoder) session(h playback.Handle) (*stubSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[h]
	if !ok {
		return nil, playback.Errorf(playback.KindInvalidArgument, "unknown decode handle %s", h)
	}
	return s, nil
}
