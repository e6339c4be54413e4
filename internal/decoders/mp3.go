package decoders

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"sync"

	"github.com/hajimehoshi/go-mp3"

	"tonearm/internal/media"
	"tonearm/internal/playback"
)

// go-mp3 always emits 16-bit little-endian stereo.
const (
	mp3Channels      = 2
	mp3BitDepth      = 16
	mp3BytesPerFrame = 4
)

// MP3 wraps hajimehoshi/go-mp3 behind the Decoder port.
type MP3 struct {
	mu       sync.Mutex
	sessions map[playback.Handle]*mp3Session
}

type mp3Session struct {
	file *os.File
	dec  *mp3.Decoder
	info media.StreamInfo
	raw  []byte
}

// NewMP3 returns an empty MP3 adapter.
func NewMP3() *MP3 {
	return &MP3{sessions: make(map[playback.Handle]*mp3Session)}
}

func (m *MP3) Open(location string) (playback.Handle, error) {
	file, err := os.Open(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return playback.Handle{}, playback.WrapErr(playback.KindNotFound, fmt.Sprintf("no file at %s", location), err)
		}
		return playback.Handle{}, playback.WrapErr(playback.KindIOError, fmt.Sprintf("open %s", location), err)
	}

	dec, err := mp3.NewDecoder(file)
	if err != nil {
		_ = file.Close()
		return playback.Handle{}, playback.WrapErr(playback.KindDecodeError, "not a decodable mp3 stream", err)
	}

	duration := media.InfiniteDuration()
	if length := dec.Length(); length >= 0 {
		duration = float64(length) / mp3BytesPerFrame / float64(dec.SampleRate())
	}

	session := &mp3Session{
		file: file,
		dec:  dec,
		info: media.StreamInfo{
			DurationSeconds: duration,
			SampleRate:      dec.SampleRate(),
			Channels:        mp3Channels,
			BitDepth:        mp3BitDepth,
		},
	}

	handle := playback.NewHandle()
	m.mu.Lock()
	m.sessions[handle] = session
	m.mu.Unlock()
	return handle, nil
}

func (m *MP3) Info(h playback.Handle) (media.StreamInfo, error) {
	s, err := m.session(h)
	if err != nil {
		return media.StreamInfo{}, err
	}
	return s.info, nil
}

// Tags returns the absent bundle: this adapter does not parse ID3 frames,
// and an unread tag must stay "no value" rather than an empty string.
func (m *MP3) Tags(h playback.Handle) (media.TagBundle, error) {
	if _, err := m.session(h); err != nil {
		return media.TagBundle{}, err
	}
	return media.TagBundle{}, nil
}

func (m *MP3) Read(h playback.Handle, dst []float32, maxFrames int) (int, error) {
	s, err := m.session(h)
	if err != nil {
		return 0, err
	}
	if len(dst) < maxFrames*mp3Channels {
		return 0, playback.Errorf(playback.KindInvalidArgument, "destination holds %d samples, need %d", len(dst), maxFrames*mp3Channels)
	}

	want := maxFrames * mp3BytesPerFrame
	if cap(s.raw) < want {
		s.raw = make([]byte, want)
	}
	raw := s.raw[:want]

	n, err := io.ReadFull(s.dec, raw)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, playback.WrapErr(playback.KindDecodeError, "decode mp3 frames", err)
	}
	frames := n / mp3BytesPerFrame
	for i := 0; i < frames*mp3Channels; i++ {
		sample := int16(uint16(raw[i*2]) | uint16(raw[i*2+1])<<8)
		dst[i] = float32(sample) / 32768
	}
	return frames, nil
}

func (m *MP3) Seek(h playback.Handle, seconds float64) error {
	s, err := m.session(h)
	if err != nil {
		return err
	}
	if seconds < 0 {
		return playback.Errorf(playback.KindInvalidArgument, "seek target %.3fs is negative", seconds)
	}
	if !s.info.Unbounded() && seconds > s.info.DurationSeconds {
		return playback.Errorf(playback.KindInvalidArgument, "seek target %.3fs is past end of stream", seconds)
	}
	frame := int64(math.Round(seconds * float64(s.info.SampleRate)))
	if _, err := s.dec.Seek(frame*mp3BytesPerFrame, io.SeekStart); err != nil {
		return playback.WrapErr(playback.KindIOError, "seek mp3 stream", err)
	}
	return nil
}

func (m *MP3) Close(h playback.Handle) error {
	m.mu.Lock()
	s, ok := m.sessions[h]
	delete(m.sessions, h)
	m.mu.Unlock()
	if !ok {
		return playback.Errorf(playback.KindInvalidArgument, "unknown decode handle %s", h)
	}
	if err := s.file.Close(); err != nil {
		return playback.WrapErr(playback.KindIOError, "close mp3 file", err)
	}
	return nil
}

func (m *MP3) session(h playback.Handle) (*mp3Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[h]
	if !ok {
		return nil, playback.Errorf(playback.KindInvalidArgument, "unknown decode handle %s", h)
	}
	return s, nil
}
