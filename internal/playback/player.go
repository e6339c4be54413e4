package playback

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"tonearm/internal/logging"
	"tonearm/internal/media"
)

const (
	defaultFramesPerBuffer = 2048
	defaultRenderRetry     = 5 * time.Millisecond
)

// Player is the playback state machine. All control operations are
// serialized against each other and against the decode-render worker;
// queries read a published snapshot and never block behind collaborator
// calls. Construct one with New and release it with Close.
type Player struct {
	dec    Decoder
	out    Output
	clock  Clock
	logger *slog.Logger

	framesPerBuffer int
	renderRetry     time.Duration

	// opMu serializes control operations end to end, including their
	// blocking collaborator calls. stateMu guards the session pointer and
	// snapshot publication and is never held across a blocking call.
	opMu    sync.Mutex
	stateMu sync.Mutex
	session *session
	closed  bool

	snap atomic.Pointer[Snapshot]
}

// Option configures optional Player behavior.
type Option func(*Player)

// WithFramesPerBuffer overrides the per-cycle frame budget.
func WithFramesPerBuffer(frames int) Option {
	return func(p *Player) {
		if frames > 0 {
			p.framesPerBuffer = frames
		}
	}
}

// WithRenderRetryDelay overrides the backoff used when the output consumes
// nothing in a cycle. Tests set this to zero.
func WithRenderRetryDelay(d time.Duration) Option {
	return func(p *Player) {
		if d >= 0 {
			p.renderRetry = d
		}
	}
}

// New constructs a Player over explicitly injected ports. There is no
// ambient wiring: every instance is independently testable.
func New(dec Decoder, out Output, clock Clock, logger *slog.Logger, opts ...Option) *Player {
	if clock == nil {
		clock = NewSystemClock()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Player{
		dec:             dec,
		out:             out,
		clock:           clock,
		logger:          logger,
		framesPerBuffer: defaultFramesPerBuffer,
		renderRetry:     defaultRenderRetry,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.snap.Store(&Snapshot{Status: StatusIdle, UpdatedAt: clock.Now()})
	return p
}

// Snapshot returns the current observable state. Safe for any number of
// concurrent readers.
func (p *Player) Snapshot() Snapshot { return *p.snap.Load() }

// State returns the current status.
func (p *Player) State() Status { return p.snap.Load().Status }

// Position returns the playback position in seconds.
func (p *Player) Position() float64 { return p.snap.Load().Position }

// Duration returns the loaded stream's duration in seconds, zero when
// nothing is loaded and +Inf for unbounded streams.
func (p *Player) Duration() float64 { return p.snap.Load().DurationSeconds }

// Tags returns the loaded stream's metadata bundle. The zero bundle is
// returned when nothing is loaded.
func (p *Player) Tags() media.TagBundle {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.session == nil {
		return media.TagBundle{}
	}
	return p.session.tags.Clone()
}

// Load opens track, replacing any existing decode session. The previous
// session is fully closed before the new handle becomes observable, so at
// most one session is ever live. On failure the player enters the error
// state and the classified error is both returned and reflected in the next
// snapshot.
func (p *Player) Load(track media.Track) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()
	if p.isClosed() {
		return Errorf(KindInvalidState, "player is closed")
	}

	old := p.detach()
	p.publish(Snapshot{Status: StatusLoading, TrackID: track.ID})
	p.teardown(old)

	if err := track.Validate(); err != nil {
		return p.failLoad(track, WrapErr(KindInvalidArgument, "malformed track", err))
	}

	handle, err := p.dec.Open(track.Location)
	if err != nil {
		return p.failLoad(track, AsError(err))
	}
	info, err := p.dec.Info(handle)
	if err != nil {
		_ = p.dec.Close(handle)
		return p.failLoad(track, AsError(err))
	}
	if err := info.Validate(); err != nil {
		_ = p.dec.Close(handle)
		return p.failLoad(track, WrapErr(KindDecodeError, "decoder reported invalid stream info", err))
	}
	tags, err := p.dec.Tags(handle)
	if err != nil {
		// Metadata is optional; a tag failure must not fail the load.
		p.logger.Warn("tag read failed",
			logging.String("track_id", track.ID),
			logging.Error(err),
		)
		tags = media.TagBundle{}
	}
	if err := p.out.Configure(info.SampleRate, info.Channels, p.framesPerBuffer); err != nil {
		_ = p.dec.Close(handle)
		return p.failLoad(track, AsError(err))
	}

	s := newSession(track, handle, info, tags, p.framesPerBuffer)
	p.stateMu.Lock()
	p.session = s
	p.stateMu.Unlock()
	p.publish(Snapshot{
		Status:          StatusPaused,
		TrackID:         track.ID,
		DurationSeconds: info.DurationSeconds,
	})
	p.logger.Info("track loaded",
		logging.String("track_id", track.ID),
		logging.Float64("duration_seconds", info.DurationSeconds),
		logging.Int("sample_rate", info.SampleRate),
		logging.Int("channels", info.Channels),
	)
	return nil
}

// Play starts rendering, or no-ops when already playing. It fails with an
// invalid-state error when no track is loaded; the observable state is left
// untouched in that case.
func (p *Player) Play() error {
	p.opMu.Lock()
	defer p.opMu.Unlock()
	if p.isClosed() {
		return Errorf(KindInvalidState, "player is closed")
	}

	p.stateMu.Lock()
	s := p.session
	p.stateMu.Unlock()
	if s == nil {
		return Errorf(KindInvalidState, "play requires a loaded track")
	}
	if p.snap.Load().Status == StatusPlaying {
		return nil
	}

	if err := p.out.Start(); err != nil {
		return AsError(err)
	}
	p.stateMu.Lock()
	if p.session != s {
		// The pipeline ended the session between the checks; treat the
		// whole call as arriving after that event.
		p.stateMu.Unlock()
		_ = p.out.Stop()
		return Errorf(KindInvalidState, "play requires a loaded track")
	}
	if !s.workerStarted {
		s.start(p)
	} else {
		s.unpause()
	}
	p.stateMu.Unlock()

	p.publishProgress(s, StatusPlaying)
	p.logger.Debug("playback started", logging.String("track_id", s.track.ID))
	return nil
}

// Pause suspends rendering without closing the decode session; the position
// is preserved exactly. Calling Pause when not playing is a no-op.
func (p *Player) Pause() error {
	p.opMu.Lock()
	defer p.opMu.Unlock()
	if p.isClosed() {
		return Errorf(KindInvalidState, "player is closed")
	}

	p.stateMu.Lock()
	s := p.session
	p.stateMu.Unlock()
	if s == nil || p.snap.Load().Status != StatusPlaying {
		return nil
	}

	s.pause()
	if err := p.out.Stop(); err != nil {
		p.logger.Warn("output stop failed during pause", logging.Error(err))
	}
	p.publishProgress(s, StatusPaused)
	p.logger.Debug("playback paused", logging.String("track_id", s.track.ID))
	return nil
}

// Stop halts output, closes the decode session, and resets the position.
// It is idempotent: stopping an already stopped or idle player has no
// observable effect, and stopping from the error state clears it.
func (p *Player) Stop() error {
	p.opMu.Lock()
	defer p.opMu.Unlock()
	if p.isClosed() {
		return Errorf(KindInvalidState, "player is closed")
	}

	status := p.snap.Load().Status
	old := p.detach()
	if old == nil && status != StatusError {
		// Nothing loaded and nothing to clear.
		return nil
	}
	p.teardown(old)
	p.publish(Snapshot{Status: StatusStopped})
	p.logger.Debug("playback stopped")
	return nil
}

// Seek repositions the decode cursor. Bounds are validated against the
// stream duration when it is finite; a failed validation returns an
// invalid-argument error without touching state. Seeking keeps the current
// playing/paused status.
func (p *Player) Seek(seconds float64) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()
	if p.isClosed() {
		return Errorf(KindInvalidState, "player is closed")
	}

	p.stateMu.Lock()
	s := p.session
	p.stateMu.Unlock()
	if s == nil {
		return Errorf(KindInvalidState, "seek requires a loaded track")
	}
	if seconds < 0 || math.IsNaN(seconds) {
		return Errorf(KindInvalidArgument, "seek target %.3fs is negative", seconds)
	}
	if !s.info.Unbounded() && seconds > s.info.DurationSeconds {
		return Errorf(KindInvalidArgument, "seek target %.3fs exceeds duration %.3fs", seconds, s.info.DurationSeconds)
	}

	s.cycleMu.Lock()
	if err := p.dec.Seek(s.handle, seconds); err != nil {
		s.cycleMu.Unlock()
		return AsError(err)
	}
	s.pending = nil
	s.pendingFrames.Store(0)
	s.posFrames.Store(int64(math.Round(seconds * float64(s.info.SampleRate))))
	s.cycleMu.Unlock()

	p.publishProgress(s, p.snap.Load().Status)
	p.logger.Debug("seeked",
		logging.String("track_id", s.track.ID),
		logging.Float64("target_seconds", seconds),
	)
	return nil
}

// Close stops playback, releases the output device, and makes every further
// control operation fail with an invalid-state error.
func (p *Player) Close() error {
	p.opMu.Lock()
	defer p.opMu.Unlock()
	if p.isClosed() {
		return nil
	}

	old := p.detach()
	p.teardown(old)
	err := p.out.Close()
	p.stateMu.Lock()
	p.closed = true
	p.stateMu.Unlock()
	p.publish(Snapshot{Status: StatusIdle})
	return err
}

func (p *Player) isClosed() bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.closed
}

// detach removes the current session from observable state and returns it.
// Pipeline events for a detached session become no-ops, which is what lets
// teardown wait for the worker without holding stateMu.
func (p *Player) detach() *session {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	s := p.session
	p.session = nil
	return s
}

// teardown stops the worker, closes the decode handle, and stops the
// output. The caller must have detached s already and must not hold
// stateMu: the worker may be mid-cycle and is waited on here.
func (p *Player) teardown(s *session) {
	if s == nil {
		return
	}
	s.stop()
	if err := p.dec.Close(s.handle); err != nil {
		p.logger.Warn("decode session close failed",
			logging.String("track_id", s.track.ID),
			logging.Error(err),
		)
	}
	if err := p.out.Stop(); err != nil {
		p.logger.Warn("output stop failed", logging.Error(err))
	}
}

func (p *Player) failLoad(track media.Track, cerr *Error) error {
	p.publish(Snapshot{Status: StatusError, TrackID: track.ID, Err: cerr})
	p.logger.Error("load failed",
		logging.String("track_id", track.ID),
		logging.String("error_kind", string(cerr.Kind)),
		logging.Error(cerr),
	)
	return cerr
}

// publish replaces the observable snapshot. The store happens under
// stateMu so a pipeline progress update can never overwrite a newer
// terminal snapshot.
func (p *Player) publish(snap Snapshot) {
	p.stateMu.Lock()
	p.publishLocked(snap)
	p.stateMu.Unlock()
}

func (p *Player) publishLocked(snap Snapshot) {
	snap.UpdatedAt = p.clock.Now()
	p.snap.Store(&snap)
}

// publishProgress publishes a snapshot for s with its live position
// counters, provided s is still the current session.
func (p *Player) publishProgress(s *session, status Status) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.session != s {
		return
	}
	position, buffered := s.progress()
	p.publishLocked(Snapshot{
		Status:          status,
		TrackID:         s.track.ID,
		Position:        position,
		BufferedUntil:   buffered,
		DurationSeconds: s.info.DurationSeconds,
	})
}
