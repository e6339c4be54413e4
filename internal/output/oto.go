package output

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"tonearm/internal/playback"
)

// ringBuffers is how many pipeline buffers the device ring holds; Render
// applies backpressure once the ring is full.
const ringBuffers = 4

func init() {
	register("oto", true, func() (playback.Output, error) {
		return NewOto(), nil
	})
}

// Oto renders through the oto v3 device layer. Render pushes samples into
// a ring; the oto player pulls them via the io.Reader callback, getting
// silence on underrun. Frames that do not fit in the ring are refused,
// which is the port's backpressure signal.
type Oto struct {
	mu         sync.Mutex
	ctx        *oto.Context
	player     *oto.Player
	ring       *sampleRing
	scratch    []float32 // device callback buffer, only touched by Read
	sampleRate int
	channels   int
	closed     bool
}

// NewOto returns an unconfigured oto backend. The device context is not
// created until Configure, so construction never touches hardware.
func NewOto() *Oto {
	return &Oto{}
}

func (o *Oto) Configure(sampleRate, channels, framesPerBuffer int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return playback.Errorf(playback.KindInvalidState, "output is closed")
	}
	if sampleRate <= 0 || channels < 1 || framesPerBuffer <= 0 {
		return playback.Errorf(playback.KindInvalidArgument, "invalid output configuration %d Hz / %d ch / %d frames", sampleRate, channels, framesPerBuffer)
	}

	if o.ctx != nil {
		// The oto context is process-wide and cannot be re-created with
		// different parameters.
		if sampleRate != o.sampleRate || channels != o.channels {
			return playback.Errorf(playback.KindUnsupported, "device is fixed at %d Hz / %d ch, stream wants %d Hz / %d ch", o.sampleRate, o.channels, sampleRate, channels)
		}
		o.ring.Reset()
		return nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return playback.WrapErr(playback.KindIOError, "open audio device", err)
	}
	<-ready

	o.ctx = ctx
	o.sampleRate = sampleRate
	o.channels = channels
	o.ring = newSampleRing(framesPerBuffer * channels * ringBuffers)
	o.player = ctx.NewPlayer(o)
	return nil
}

func (o *Oto) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return playback.Errorf(playback.KindInvalidState, "output is closed")
	}
	if o.player == nil {
		return playback.Errorf(playback.KindInvalidState, "output not configured")
	}
	if !o.player.IsPlaying() {
		o.player.Play()
	}
	return nil
}

func (o *Oto) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player != nil && o.player.IsPlaying() {
		o.player.Pause()
	}
	return nil
}

func (o *Oto) Render(buf []float32, frames int) (int, error) {
	o.mu.Lock()
	ring := o.ring
	channels := o.channels
	closed := o.closed
	o.mu.Unlock()
	if closed {
		return 0, playback.Errorf(playback.KindInvalidState, "output is closed")
	}
	if ring == nil {
		return 0, playback.Errorf(playback.KindInvalidState, "output not configured")
	}

	accepted := ring.Push(buf[:frames*channels])
	return accepted / channels, nil
}

func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	if o.player != nil {
		if err := o.player.Close(); err != nil {
			return playback.WrapErr(playback.KindIOError, "close audio device", err)
		}
	}
	return nil
}

// Read is the oto pull callback: it drains the ring into the device buffer
// as float32 little-endian bytes, substituting silence on underrun.
func (o *Oto) Read(p []byte) (int, error) {
	o.mu.Lock()
	ring := o.ring
	o.mu.Unlock()

	samples := len(p) / 4
	if ring == nil || samples == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	if len(o.scratch) < samples {
		o.scratch = make([]float32, samples)
	}
	scratch := o.scratch[:samples]
	ring.Pop(scratch)
	for i, v := range scratch {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return samples * 4, nil
}
