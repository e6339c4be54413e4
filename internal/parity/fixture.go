package parity

import (
	"math"
	"sync"
	"time"

	"tonearm/internal/media"
	"tonearm/internal/playback"
)

const (
	fixtureDefaultRate     = 44100
	fixtureDefaultChannels = 2
	fixtureDefaultBits     = 16
)

// fixtureDecoder is the scripted Decoder the runner injects: every
// location resolves to a Fixture from the vector document, and the PCM it
// produces is silence, since content equivalence is not checked at this
// layer.
type fixtureDecoder struct {
	mu       sync.Mutex
	fixtures map[string]Fixture
	sessions map[playback.Handle]*fixtureSession
	opens    int
	closes   int
}

type fixtureSession struct {
	info        media.StreamInfo
	tags        media.TagBundle
	cursor      int64
	totalFrames int64 // -1 for unbounded
	failAtFrame int64 // -1 for never
}

func newFixtureDecoder(fixtures map[string]Fixture) *fixtureDecoder {
	return &fixtureDecoder{
		fixtures: fixtures,
		sessions: make(map[playback.Handle]*fixtureSession),
	}
}

func (d *fixtureDecoder) Open(location string) (playback.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fix, ok := d.fixtures[location]
	if !ok {
		return playback.Handle{}, playback.Errorf(playback.KindNotFound, "no fixture at %s", location)
	}
	if fix.OpenError != "" {
		kind, _ := playback.ParseKind(fix.OpenError)
		return playback.Handle{}, playback.Errorf(kind, "scripted open failure for %s", location)
	}

	rate := fix.SampleRate
	if rate == 0 {
		rate = fixtureDefaultRate
	}
	channels := fix.Channels
	if channels == 0 {
		channels = fixtureDefaultChannels
	}
	bits := fix.BitDepth
	if bits == 0 {
		bits = fixtureDefaultBits
	}

	totalFrames := int64(-1)
	if !math.IsInf(fix.DurationSeconds, 1) {
		totalFrames = int64(math.Round(fix.DurationSeconds * float64(rate)))
	}

	session := &fixtureSession{
		info: media.StreamInfo{
			DurationSeconds: fix.DurationSeconds,
			SampleRate:      rate,
			Channels:        channels,
			BitDepth:        bits,
		},
		tags:        fixtureTags(fix.Tags),
		totalFrames: totalFrames,
		failAtFrame: -1,
	}
	if fix.FailAfterSeconds > 0 {
		session.failAtFrame = int64(math.Round(fix.FailAfterSeconds * float64(rate)))
	}

	handle := playback.NewHandle()
	d.sessions[handle] = session
	d.opens++
	return handle, nil
}

func (d *fixtureDecoder) Info(h playback.Handle) (media.StreamInfo, error) {
	s, err := d.session(h)
	if err != nil {
		return media.StreamInfo{}, err
	}
	return s.info, nil
}

func (d *fixtureDecoder) Tags(h playback.Handle) (media.TagBundle, error) {
	s, err := d.session(h)
	if err != nil {
		return media.TagBundle{}, err
	}
	return s.tags.Clone(), nil
}

func (d *fixtureDecoder) Read(h playback.Handle, dst []float32, maxFrames int) (int, error) {
	s, err := d.session(h)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if s.failAtFrame >= 0 && s.cursor >= s.failAtFrame {
		return 0, playback.Errorf(playback.KindDecodeError, "scripted mid-stream failure at frame %d", s.failAtFrame)
	}
	frames := int64(maxFrames)
	if s.totalFrames >= 0 {
		remaining := s.totalFrames - s.cursor
		if remaining <= 0 {
			return 0, nil
		}
		if frames > remaining {
			frames = remaining
		}
	}
	if s.failAtFrame >= 0 && s.cursor+frames > s.failAtFrame {
		frames = s.failAtFrame - s.cursor
	}
	for i := int64(0); i < frames*int64(s.info.Channels); i++ {
		dst[i] = 0
	}
	s.cursor += frames
	return int(frames), nil
}

func (d *fixtureDecoder) Seek(h playback.Handle, seconds float64) error {
	s, err := d.session(h)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if seconds < 0 {
		return playback.Errorf(playback.KindInvalidArgument, "seek target %.3fs is negative", seconds)
	}
	frame := int64(math.Round(seconds * float64(s.info.SampleRate)))
	if s.totalFrames >= 0 && frame > s.totalFrames {
		return playback.Errorf(playback.KindInvalidArgument, "seek target %.3fs is past end of stream", seconds)
	}
	s.cursor = frame
	return nil
}

func (d *fixtureDecoder) Close(h playback.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[h]; !ok {
		return playback.Errorf(playback.KindInvalidArgument, "unknown decode handle %s", h)
	}
	delete(d.sessions, h)
	d.closes++
	return nil
}

// OpenSessions returns how many handles are currently live, for leak
// diagnostics.
func (d *fixtureDecoder) OpenSessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

func (d *fixtureDecoder) session(h playback.Handle) (*fixtureSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[h]
	if !ok {
		return nil, playback.Errorf(playback.KindInvalidArgument, "unknown decode handle %s", h)
	}
	return s, nil
}

func fixtureTags(values map[string]string) media.TagBundle {
	var tags media.TagBundle
	for field, value := range values {
		switch field {
		case "title":
			tags.Title = media.StringTag(value)
		case "artist":
			tags.Artist = media.StringTag(value)
		case "album":
			tags.Album = media.StringTag(value)
		case "album_artist":
			tags.AlbumArtist = media.StringTag(value)
		case "genre":
			tags.Genre = media.StringTag(value)
		}
	}
	return tags
}

// manualClock is the deterministic Clock injected into every machine under
// test. It only moves when the runner advances it.
type manualClock struct {
	mu  sync.Mutex
	now time.Duration
}

func newManualClock() *manualClock {
	return &manualClock{}
}

func (c *manualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}
