package output

import (
	"sync"

	"tonearm/internal/playback"
)

func init() {
	register("headless", false, func() (playback.Output, error) {
		return NewHeadless(), nil
	})
}

// Headless renders to nowhere, accepting every frame offered. It keeps just
// enough bookkeeping for callers to observe configuration and start/stop
// behavior, which is what parity runs and CI need.
type Headless struct {
	mu         sync.Mutex
	sampleRate int
	channels   int
	started    bool
	closed     bool
	rendered   int64
}

// NewHeadless returns an unstarted headless output.
func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Configure(sampleRate, channels, framesPerBuffer int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return playback.Errorf(playback.KindInvalidState, "output is closed")
	}
	if sampleRate <= 0 || channels < 1 || framesPerBuffer <= 0 {
		return playback.Errorf(playback.KindInvalidArgument, "invalid output configuration %d Hz / %d ch / %d frames", sampleRate, channels, framesPerBuffer)
	}
	h.sampleRate = sampleRate
	h.channels = channels
	return nil
}

func (h *Headless) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return playback.Errorf(playback.KindInvalidState, "output is closed")
	}
	h.started = true
	return nil
}

func (h *Headless) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = false
	return nil
}

func (h *Headless) Render(buf []float32, frames int) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, playback.Errorf(playback.KindInvalidState, "output is closed")
	}
	h.rendered += int64(frames)
	return frames, nil
}

func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = false
	h.closed = true
	return nil
}

// Started reports whether the output is between Start and Stop.
func (h *Headless) Started() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started
}

// RenderedFrames returns the total frames accepted since construction.
func (h *Headless) RenderedFrames() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rendered
}
