//go:build portaudio

package output

import (
	"sync"

	"github.com/gordonklaus/portaudio"

	"tonearm/internal/playback"
)

func init() {
	register("portaudio", true, func() (playback.Output, error) {
		return NewPortAudio(), nil
	})
}

// PortAudio renders through the portaudio blocking-write API. Each Render
// copies at most one device buffer and writes it synchronously, so
// backpressure falls out of the buffer size: frames beyond one buffer are
// refused and retried by the pipeline.
type PortAudio struct {
	mu          sync.Mutex
	stream      *portaudio.Stream
	buf         []float32
	channels    int
	frames      int
	initialized bool
	started     bool
	closed      bool
}

// NewPortAudio returns an unconfigured portaudio backend.
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

func (p *PortAudio) Configure(sampleRate, channels, framesPerBuffer int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return playback.Errorf(playback.KindInvalidState, "output is closed")
	}
	if sampleRate <= 0 || channels < 1 || framesPerBuffer <= 0 {
		return playback.Errorf(playback.KindInvalidArgument, "invalid output configuration %d Hz / %d ch / %d frames", sampleRate, channels, framesPerBuffer)
	}

	if !p.initialized {
		if err := portaudio.Initialize(); err != nil {
			return playback.WrapErr(playback.KindIOError, "initialize portaudio", err)
		}
		p.initialized = true
	}
	if p.stream != nil {
		_ = p.stream.Close()
		p.stream = nil
	}

	p.buf = make([]float32, framesPerBuffer*channels)
	p.channels = channels
	p.frames = framesPerBuffer
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), framesPerBuffer, p.buf)
	if err != nil {
		return playback.WrapErr(playback.KindIOError, "open portaudio stream", err)
	}
	p.stream = stream
	return nil
}

func (p *PortAudio) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return playback.Errorf(playback.KindInvalidState, "output is closed")
	}
	if p.stream == nil {
		return playback.Errorf(playback.KindInvalidState, "output not configured")
	}
	if p.started {
		return nil
	}
	if err := p.stream.Start(); err != nil {
		return playback.WrapErr(playback.KindIOError, "start portaudio stream", err)
	}
	p.started = true
	return nil
}

func (p *PortAudio) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil || !p.started {
		return nil
	}
	if err := p.stream.Stop(); err != nil {
		return playback.WrapErr(playback.KindIOError, "stop portaudio stream", err)
	}
	p.started = false
	return nil
}

func (p *PortAudio) Render(buf []float32, frames int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, playback.Errorf(playback.KindInvalidState, "output is closed")
	}
	if p.stream == nil || !p.started {
		return 0, playback.Errorf(playback.KindInvalidState, "output not started")
	}

	accept := frames
	if accept > p.frames {
		accept = p.frames
	}
	copy(p.buf, buf[:accept*p.channels])
	for i := accept * p.channels; i < len(p.buf); i++ {
		p.buf[i] = 0
	}
	if err := p.stream.Write(); err != nil {
		return 0, playback.WrapErr(playback.KindIOError, "write portaudio stream", err)
	}
	return accept, nil
}

func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	var closeErr error
	if p.stream != nil {
		closeErr = p.stream.Close()
		p.stream = nil
	}
	if p.initialized {
		portaudio.Terminate()
		p.initialized = false
	}
	if closeErr != nil {
		return playback.WrapErr(playback.KindIOError, "close portaudio stream", closeErr)
	}
	return nil
}
