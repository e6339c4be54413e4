package testsupport

import (
	"sync"

	"tonearm/internal/playback"
)

// OutputConfig records one Configure call.
type OutputConfig struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
}

// StubOutput is a scripted Output port. By default it accepts every frame;
// a consume script makes successive Render calls accept fixed amounts so
// partial-consumption handling can be exercised deterministically.
type StubOutput struct {
	mu         sync.Mutex
	configures []OutputConfig
	startCalls int
	stopCalls  int
	started    bool
	closed     bool
	rendered   int64
	script     []int
	renderErr  error
}

// NewStubOutput returns an output that accepts everything it is offered.
func NewStubOutput() *StubOutput {
	return &StubOutput{}
}

// SetConsumeScript fixes the frame count accepted by successive Render
// calls; once the script is exhausted the output accepts everything again.
func (o *StubOutput) SetConsumeScript(frames ...int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.script = append([]int(nil), frames...)
}

// FailNextRender makes the next Render return err.
func (o *StubOutput) FailNextRender(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.renderErr = err
}

func (o *StubOutput) Configure(sampleRate, channels, framesPerBuffer int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return playback.Errorf(playback.KindInvalidState, "output is closed")
	}
	o.configures = append(o.configures, OutputConfig{
		SampleRate:      sampleRate,
		Channels:        channels,
		FramesPerBuffer: framesPerBuffer,
	})
	return nil
}

// Start records the call; repeated starts without an intervening stop only
// count once, because idempotence tests assert on StartCalls.
func (o *StubOutput) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return playback.Errorf(playback.KindInvalidState, "output is closed")
	}
	if !o.started {
		o.started = true
		o.startCalls++
	}
	return nil
}

func (o *StubOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		o.started = false
		o.stopCalls++
	}
	return nil
}

func (o *StubOutput) Render(buf []float32, frames int) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.renderErr != nil {
		err := o.renderErr
		o.renderErr = nil
		return 0, err
	}
	accept := frames
	if len(o.script) > 0 {
		accept = o.script[0]
		o.script = o.script[1:]
		if accept > frames {
			accept = frames
		}
	}
	o.rendered += int64(accept)
	return accept, nil
}

func (o *StubOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = false
	o.closed = true
	return nil
}

// StartCalls returns how many times rendering actually transitioned from
// stopped to started.
func (o *StubOutput) StartCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.startCalls
}

// StopCalls returns how many started-to-stopped transitions happened.
func (o *StubOutput) StopCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopCalls
}

// Started reports whether the output is currently rendering.
func (o *StubOutput) Started() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.started
}

// RenderedFrames returns total frames accepted.
func (o *StubOutput) RenderedFrames() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rendered
}

// Configures returns the recorded Configure calls.
func (o *StubOutput) Configures() []OutputConfig {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]OutputConfig(nil), o.configures...)
}
