package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"tonearm/internal/logging"
	"tonearm/internal/media"
)

// session is the live association between an opened decode handle and its
// render state. Exactly one session is attached to a Player at a time; a
// detached session's pipeline events are discarded.
type session struct {
	track  media.Track
	handle Handle
	info   media.StreamInfo
	tags   media.TagBundle

	// cycleMu serializes the worker's read/render cycle against Seek, so
	// the decode cursor is never moved mid-cycle. buf and pending are only
	// touched under it.
	cycleMu sync.Mutex
	buf     []float32
	pending []float32

	// posFrames counts frames the output accepted; pendingFrames counts
	// decoded frames not yet accepted. Atomics so progress reads never
	// contend with a blocking render call.
	posFrames     atomic.Int64
	pendingFrames atomic.Int64

	workerStarted bool
	cancel        context.CancelFunc
	done          chan struct{}

	gateMu sync.Mutex
	resume chan struct{} // non-nil while paused; closed to resume
}

func newSession(track media.Track, handle Handle, info media.StreamInfo, tags media.TagBundle, framesPerBuffer int) *session {
	return &session{
		track:  track,
		handle: handle,
		info:   info,
		tags:   tags,
		buf:    make([]float32, framesPerBuffer*info.Channels),
		done:   make(chan struct{}),
	}
}

// start launches the pipeline worker. Caller holds the player's stateMu.
func (s *session) start(p *Player) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.workerStarted = true
	go p.runPipeline(ctx, s)
}

// stop cancels the worker and waits for the in-flight cycle to finish.
// Safe to call for a session whose worker never started.
func (s *session) stop() {
	if !s.workerStarted {
		return
	}
	s.cancel()
	<-s.done
}

// pause gates the worker before its next cycle. The decode handle and
// buffered frames are kept, so resuming continues exactly where rendering
// left off.
func (s *session) pause() {
	s.gateMu.Lock()
	if s.resume == nil {
		s.resume = make(chan struct{})
	}
	s.gateMu.Unlock()
}

func (s *session) unpause() {
	s.gateMu.Lock()
	if s.resume != nil {
		close(s.resume)
		s.resume = nil
	}
	s.gateMu.Unlock()
}

// awaitResume blocks while the session is paused. It returns false when the
// worker should exit instead of resuming.
func (s *session) awaitResume(ctx context.Context) bool {
	s.gateMu.Lock()
	gate := s.resume
	s.gateMu.Unlock()
	if gate == nil {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-gate:
		return true
	}
}

// progress returns (position, bufferedUntil) in seconds.
func (s *session) progress() (float64, float64) {
	rate := float64(s.info.SampleRate)
	pos := float64(s.posFrames.Load()) / rate
	buffered := pos + float64(s.pendingFrames.Load())/rate
	return pos, buffered
}

// runPipeline is the decode-render worker: while playing it pulls PCM from
// the decoder and pushes it to the output, treating partial consumption as
// progress and carrying the remainder into the next cycle.
func (p *Player) runPipeline(ctx context.Context, s *session) {
	defer close(s.done)
	channels := s.info.Channels

	for {
		if !s.awaitResume(ctx) {
			return
		}

		s.cycleMu.Lock()
		if ctx.Err() != nil {
			s.cycleMu.Unlock()
			return
		}
		if len(s.pending) == 0 {
			frames, err := p.dec.Read(s.handle, s.buf, len(s.buf)/channels)
			if err != nil {
				s.cycleMu.Unlock()
				p.failPipeline(s, AsError(err))
				return
			}
			if frames == 0 {
				s.cycleMu.Unlock()
				p.finishPipeline(s)
				return
			}
			s.pending = s.buf[:frames*channels]
			s.pendingFrames.Store(int64(frames))
		}

		frames := len(s.pending) / channels
		consumed, err := p.out.Render(s.pending, frames)
		if err != nil {
			s.cycleMu.Unlock()
			p.failPipeline(s, AsError(err))
			return
		}
		if consumed > frames {
			consumed = frames
		}
		if consumed > 0 {
			s.pending = s.pending[consumed*channels:]
			s.posFrames.Add(int64(consumed))
			s.pendingFrames.Store(int64(len(s.pending) / channels))
		}
		s.cycleMu.Unlock()

		p.publishPipelineProgress(s)

		if consumed == 0 {
			// Output backpressure: yield before retrying the remainder.
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.renderRetry):
			}
		}
	}
}

// publishPipelineProgress refreshes the snapshot's position while playing.
// It deliberately publishes nothing in any other status so a control
// operation's snapshot is never overwritten by a trailing cycle.
func (p *Player) publishPipelineProgress(s *session) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.session != s || p.snap.Load().Status != StatusPlaying {
		return
	}
	position, buffered := s.progress()
	p.publishLocked(Snapshot{
		Status:          StatusPlaying,
		TrackID:         s.track.ID,
		Position:        position,
		BufferedUntil:   buffered,
		DurationSeconds: s.info.DurationSeconds,
	})
}

// finishPipeline handles end of stream: the session closes and the player
// lands in stopped with the position reset, exactly as an explicit Stop.
func (p *Player) finishPipeline(s *session) {
	p.stateMu.Lock()
	if p.session != s {
		p.stateMu.Unlock()
		return
	}
	p.session = nil
	p.stateMu.Unlock()

	if err := p.dec.Close(s.handle); err != nil {
		p.logger.Warn("decode session close failed at end of stream",
			logging.String("track_id", s.track.ID),
			logging.Error(err),
		)
	}
	if err := p.out.Stop(); err != nil {
		p.logger.Warn("output stop failed at end of stream", logging.Error(err))
	}
	p.publish(Snapshot{Status: StatusStopped})
	p.logger.Info("end of stream", logging.String("track_id", s.track.ID))
}

// failPipeline handles a mid-stream collaborator failure: the session is
// aborted and the player enters the error state carrying the classified
// error, with the last good position preserved in the snapshot.
func (p *Player) failPipeline(s *session, cerr *Error) {
	p.stateMu.Lock()
	if p.session != s {
		p.stateMu.Unlock()
		return
	}
	p.session = nil
	position, _ := s.progress()
	p.stateMu.Unlock()

	if err := p.dec.Close(s.handle); err != nil {
		p.logger.Warn("decode session close failed after pipeline error",
			logging.String("track_id", s.track.ID),
			logging.Error(err),
		)
	}
	if err := p.out.Stop(); err != nil {
		p.logger.Warn("output stop failed after pipeline error", logging.Error(err))
	}
	p.publish(Snapshot{
		Status:          StatusError,
		TrackID:         s.track.ID,
		Position:        position,
		BufferedUntil:   position,
		DurationSeconds: s.info.DurationSeconds,
		Err:             cerr,
	})
	p.logger.Error("pipeline aborted",
		logging.String("track_id", s.track.ID),
		logging.String("error_kind", string(cerr.Kind)),
		logging.Error(cerr),
	)
}
