package playback_test

import (
	"math"
	"testing"
	"time"

	"tonearm/internal/media"
	"tonearm/internal/playback"
	"tonearm/internal/testsupport"
)

func newTestPlayer(t *testing.T, streams map[string]testsupport.StubStream) (*playback.Player, *testsupport.StubDecoder, *testsupport.StubOutput) {
	t.Helper()
	dec := testsupport.NewStubDecoder(streams)
	out := testsupport.NewStubOutput()
	player := playback.New(dec, out, testsupport.NewManualClock(), nil,
		playback.WithRenderRetryDelay(0),
	)
	t.Cleanup(func() { _ = player.Close() })
	return player, dec, out
}

func waitForStatus(t *testing.T, player *playback.Player, want playback.Status) playback.Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := player.Snapshot()
		if snap.Status == want {
			return snap
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for status %s, stuck at %s", want, player.State())
	return playback.Snapshot{}
}

func track(id, location string) media.Track {
	return media.Track{ID: id, Location: location}
}

func TestNewPlayerStartsIdle(t *testing.T) {
	player, _, _ := newTestPlayer(t, nil)

	snap := player.Snapshot()
	if snap.Status != playback.StatusIdle {
		t.Fatalf("expected idle, got %s", snap.Status)
	}
	if snap.TrackID != "" || snap.Position != 0 || snap.DurationSeconds != 0 {
		t.Fatalf("idle snapshot must be empty: %#v", snap)
	}
}

func TestLoadTransitionsToPaused(t *testing.T) {
	player, _, out := newTestPlayer(t, map[string]testsupport.StubStream{
		"song.wav": testsupport.Tone(2),
	})

	if err := player.Load(track("song", "song.wav")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	snap := player.Snapshot()
	if snap.Status != playback.StatusPaused {
		t.Fatalf("expected paused after load, got %s", snap.Status)
	}
	if snap.TrackID != "song" {
		t.Fatalf("expected track id to be published, got %q", snap.TrackID)
	}
	if snap.Position != 0 {
		t.Fatalf("position must reset on load, got %f", snap.Position)
	}
	if snap.DurationSeconds != 2 {
		t.Fatalf("expected duration 2s, got %f", snap.DurationSeconds)
	}

	configures := out.Configures()
	if len(configures) != 1 {
		t.Fatalf("expected one output configure, got %d", len(configures))
	}
	if configures[0].SampleRate != 44100 || configures[0].Channels != 2 {
		t.Fatalf("unexpected output configuration: %#v", configures[0])
	}
	if out.Started() {
		t.Fatal("load must not start the output")
	}
}

func TestLoadMissingTrackEntersErrorState(t *testing.T) {
	player, _, _ := newTestPlayer(t, nil)

	err := player.Load(track("ghost", "ghost.wav"))
	if err == nil {
		t.Fatal("expected load to fail")
	}
	if kind, _ := playback.KindOf(err); kind != playback.KindNotFound {
		t.Fatalf("expected not_found, got %s", kind)
	}

	snap := player.Snapshot()
	if snap.Status != playback.StatusError {
		t.Fatalf("expected error state, got %s", snap.Status)
	}
	if snap.Err == nil || snap.Err.Kind != playback.KindNotFound {
		t.Fatalf("snapshot must carry the classified error: %#v", snap.Err)
	}
}

func TestLoadRejectsMalformedTrack(t *testing.T) {
	player, _, _ := newTestPlayer(t, nil)

	err := player.Load(media.Track{ID: "no-location"})
	if err == nil {
		t.Fatal("expected load to fail")
	}
	if kind, _ := playback.KindOf(err); kind != playback.KindInvalidArgument {
		t.Fatalf("expected invalid_argument, got %s", kind)
	}
	if player.State() != playback.StatusError {
		t.Fatalf("expected error state, got %s", player.State())
	}
}

func TestLoadReplacesExistingSession(t *testing.T) {
	player, dec, _ := newTestPlayer(t, map[string]testsupport.StubStream{
		"first.wav":  testsupport.Tone(3600),
		"second.wav": testsupport.Tone(2),
	})

	if err := player.Load(track("first", "first.wav")); err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	if err := player.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := player.Load(track("second", "second.wav")); err != nil {
		t.Fatalf("second load failed: %v", err)
	}

	snap := player.Snapshot()
	if snap.Status != playback.StatusPaused {
		t.Fatalf("replacement load must land paused, got %s", snap.Status)
	}
	if snap.TrackID != "second" {
		t.Fatalf("expected second track, got %q", snap.TrackID)
	}
	if snap.Position != 0 {
		t.Fatalf("replacement load must reset position, got %f", snap.Position)
	}
	if dec.LiveSessions() != 1 {
		t.Fatalf("exactly one decode session may be live, got %d", dec.LiveSessions())
	}
	if dec.OpenCount() != 2 || dec.CloseCount() != 1 {
		t.Fatalf("expected 2 opens / 1 close, got %d / %d", dec.OpenCount(), dec.CloseCount())
	}
}

func TestLoadFailureTearsDownPreviousSession(t *testing.T) {
	player, dec, _ := newTestPlayer(t, map[string]testsupport.StubStream{
		"good.wav": testsupport.Tone(2),
	})

	if err := player.Load(track("good", "good.wav")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := player.Load(track("bad", "bad.wav")); err == nil {
		t.Fatal("expected second load to fail")
	}

	if player.State() != playback.StatusError {
		t.Fatalf("expected error state, got %s", player.State())
	}
	if dec.LiveSessions() != 0 {
		t.Fatalf("failed load must leave no live sessions, got %d", dec.LiveSessions())
	}
}

func TestPlayWithoutTrackFailsWithoutStateChange(t *testing.T) {
	player, _, out := newTestPlayer(t, nil)

	err := player.Play()
	if err == nil {
		t.Fatal("expected play to fail with nothing loaded")
	}
	if kind, _ := playback.KindOf(err); kind != playback.KindInvalidState {
		t.Fatalf("expected invalid_state, got %s", kind)
	}
	if player.State() != playback.StatusIdle {
		t.Fatalf("failed play must not move the state machine, got %s", player.State())
	}
	if out.StartCalls() != 0 {
		t.Fatal("failed play must not touch the output")
	}
}

func TestPlayIsIdempotentWhilePlaying(t *testing.T) {
	player, _, out := newTestPlayer(t, map[string]testsupport.StubStream{
		"song.wav": testsupport.Tone(3600),
	})

	if err := player.Load(track("song", "song.wav")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := player.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := player.Play(); err != nil {
		t.Fatalf("repeated Play must be a no-op, got %v", err)
	}
	if out.StartCalls() != 1 {
		t.Fatalf("repeated Play must not restart the output, got %d starts", out.StartCalls())
	}
	if player.State() != playback.StatusPlaying {
		t.Fatalf("expected playing, got %s", player.State())
	}
}

func TestPauseWhenNotPlayingIsNoOp(t *testing.T) {
	player, _, _ := newTestPlayer(t, map[string]testsupport.StubStream{
		"song.wav": testsupport.Tone(2),
	})

	if err := player.Pause(); err != nil {
		t.Fatalf("pause while idle must be a no-op, got %v", err)
	}
	if player.State() != playback.StatusIdle {
		t.Fatalf("expected idle, got %s", player.State())
	}

	if err := player.Load(track("song", "song.wav")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := player.Pause(); err != nil {
		t.Fatalf("pause while paused must be a no-op, got %v", err)
	}
	if player.State() != playback.StatusPaused {
		t.Fatalf("expected paused, got %s", player.State())
	}
}

func TestPausePreservesPositionAndResumeContinues(t *testing.T) {
	player, _, out := newTestPlayer(t, map[string]testsupport.StubStream{
		"song.wav": testsupport.Tone(3600),
	})

	if err := player.Load(track("song", "song.wav")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := player.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := player.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}

	if player.State() != playback.StatusPaused {
		t.Fatalf("expected paused, got %s", player.State())
	}
	first := player.Position()
	time.Sleep(10 * time.Millisecond)
	second := player.Position()
	if first != second {
		t.Fatalf("position must freeze while paused: %f then %f", first, second)
	}
	if out.Started() {
		t.Fatal("output must be stopped while paused")
	}

	if err := player.Play(); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if player.State() != playback.StatusPlaying {
		t.Fatalf("expected playing after resume, got %s", player.State())
	}
	if out.StartCalls() != 2 {
		t.Fatalf("resume must restart the output, got %d starts", out.StartCalls())
	}
}

func TestStopClosesSessionAndResetsPosition(t *testing.T) {
	player, dec, out := newTestPlayer(t, map[string]testsupport.StubStream{
		"song.wav": testsupport.Tone(3600),
	})

	if err := player.Load(track("song", "song.wav")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := player.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := player.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	snap := player.Snapshot()
	if snap.Status != playback.StatusStopped {
		t.Fatalf("expected stopped, got %s", snap.Status)
	}
	if snap.Position != 0 || snap.TrackID != "" {
		t.Fatalf("stop must reset observable track state: %#v", snap)
	}
	if dec.LiveSessions() != 0 {
		t.Fatalf("stop must close the decode session, got %d live", dec.LiveSessions())
	}
	if out.Started() {
		t.Fatal("stop must halt the output")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	player, _, _ := newTestPlayer(t, map[string]testsupport.StubStream{
		"song.wav": testsupport.Tone(2),
	})

	if err := player.Stop(); err != nil {
		t.Fatalf("stop while idle must be a no-op, got %v", err)
	}
	if player.State() != playback.StatusIdle {
		t.Fatalf("stop on an empty player must not change state, got %s", player.State())
	}

	if err := player.Load(track("song", "song.wav")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := player.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := player.Stop(); err != nil {
		t.Fatalf("repeated Stop failed: %v", err)
	}
	if player.State() != playback.StatusStopped {
		t.Fatalf("expected stopped, got %s", player.State())
	}
}

func TestStopClearsErrorState(t *testing.T) {
	player, _, _ := newTestPlayer(t, nil)

	if err := player.Load(track("ghost", "ghost.wav")); err == nil {
		t.Fatal("expected load failure")
	}
	if player.State() != playback.StatusError {
		t.Fatalf("expected error state, got %s", player.State())
	}

	if err := player.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	snap := player.Snapshot()
	if snap.Status != playback.StatusStopped {
		t.Fatalf("stop must clear the error state, got %s", snap.Status)
	}
	if snap.Err != nil {
		t.Fatalf("error must be cleared, got %v", snap.Err)
	}
}

func TestSeekRepositionsExactly(t *testing.T) {
	player, _, _ := newTestPlayer(t, map[string]testsupport.StubStream{
		"song.wav": testsupport.Tone(10),
	})

	if err := player.Load(track("song", "song.wav")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := player.Seek(2.5); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}

	snap := player.Snapshot()
	if snap.Status != playback.StatusPaused {
		t.Fatalf("seek must keep the paused status, got %s", snap.Status)
	}
	// 2.5s at 44100Hz lands exactly on a frame boundary.
	if math.Abs(snap.Position-2.5) > 1e-9 {
		t.Fatalf("expected position 2.5, got %f", snap.Position)
	}
	if snap.BufferedUntil < snap.Position {
		t.Fatalf("buffered horizon must not trail the position: %#v", snap)
	}
}

func TestSeekRejectsOutOfBoundsTargets(t *testing.T) {
	player, _, _ := newTestPlayer(t, map[string]testsupport.StubStream{
		"song.wav": testsupport.Tone(10),
	})

	if err := player.Load(track("song", "song.wav")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := player.Seek(5); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}

	for _, target := range []float64{-0.1, 10.5, math.NaN()} {
		err := player.Seek(target)
		if err == nil {
			t.Fatalf("expected seek to %f to fail", target)
		}
		if kind, _ := playback.KindOf(err); kind != playback.KindInvalidArgument {
			t.Fatalf("expected invalid_argument for %f, got %s", target, kind)
		}
	}

	// A failed seek must not move the cursor.
	if pos := player.Position(); math.Abs(pos-5) > 1e-9 {
		t.Fatalf("failed seeks must not move the position, got %f", pos)
	}
}

func TestSeekWithoutTrackFails(t *testing.T) {
	player, _, _ := newTestPlayer(t, nil)

	err := player.Seek(1)
	if err == nil {
		t.Fatal("expected seek to fail with nothing loaded")
	}
	if kind, _ := playback.KindOf(err); kind != playback.KindInvalidState {
		t.Fatalf("expected invalid_state, got %s", kind)
	}
}

func TestSeekToExactDurationIsAllowed(t *testing.T) {
	player, _, _ := newTestPlayer(t, map[string]testsupport.StubStream{
		"song.wav": testsupport.Tone(10),
	})

	if err := player.Load(track("song", "song.wav")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := player.Seek(10); err != nil {
		t.Fatalf("seek to the exact duration must succeed, got %v", err)
	}
}

func TestTagsReturnsLoadedBundle(t *testing.T) {
	stream := testsupport.Tone(2)
	stream.Tags.Title = media.StringTag("Blue in Green")
	stream.Tags.Artist = media.StringTag("Miles Davis")
	stream.Tags.Year = media.IntTag(1959)

	player, _, _ := newTestPlayer(t, map[string]testsupport.StubStream{
		"song.wav": stream,
	})

	if !player.Tags().IsZero() {
		t.Fatal("tags must be empty before a load")
	}
	if err := player.Load(track("song", "song.wav")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tags := player.Tags()
	if tags.Title == nil || *tags.Title != "Blue in Green" {
		t.Fatalf("unexpected title: %v", tags.Title)
	}
	if tags.Year == nil || *tags.Year != 1959 {
		t.Fatalf("unexpected year: %v", tags.Year)
	}

	if err := player.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !player.Tags().IsZero() {
		t.Fatal("tags must clear once the session closes")
	}
}

// TestStateOperationMatrix applies every control operation to every
// reachable state, with the error state driven both ways it can arise,
// and asserts the documented result. Each cell gets a fresh player.
func TestStateOperationMatrix(t *testing.T) {
	type outcome struct {
		kind  playback.Kind // zero value means the operation must succeed
		state playback.Status
	}

	ops := []struct {
		name  string
		apply func(p *playback.Player) error
	}{
		{"load", func(p *playback.Player) error { return p.Load(track("next", "next.wav")) }},
		{"play", func(p *playback.Player) error { return p.Play() }},
		{"pause", func(p *playback.Player) error { return p.Pause() }},
		{"stop", func(p *playback.Player) error { return p.Stop() }},
		{"seek", func(p *playback.Player) error { return p.Seek(0.5) }},
	}

	loadGood := func(t *testing.T, player *playback.Player) {
		t.Helper()
		if err := player.Load(track("good", "good.wav")); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	rows := []struct {
		name     string
		drive    func(t *testing.T, player *playback.Player)
		outcomes [5]outcome // load, play, pause, stop, seek
	}{
		{
			name:  "idle",
			drive: func(t *testing.T, player *playback.Player) {},
			outcomes: [5]outcome{
				{"", playback.StatusPaused},
				{playback.KindInvalidState, playback.StatusIdle},
				{"", playback.StatusIdle},
				{"", playback.StatusIdle},
				{playback.KindInvalidState, playback.StatusIdle},
			},
		},
		{
			name: "stopped",
			drive: func(t *testing.T, player *playback.Player) {
				loadGood(t, player)
				if err := player.Stop(); err != nil {
					t.Fatalf("Stop failed: %v", err)
				}
			},
			outcomes: [5]outcome{
				{"", playback.StatusPaused},
				{playback.KindInvalidState, playback.StatusStopped},
				{"", playback.StatusStopped},
				{"", playback.StatusStopped},
				{playback.KindInvalidState, playback.StatusStopped},
			},
		},
		{
			name:  "paused",
			drive: loadGood,
			outcomes: [5]outcome{
				{"", playback.StatusPaused},
				{"", playback.StatusPlaying},
				{"", playback.StatusPaused},
				{"", playback.StatusStopped},
				{"", playback.StatusPaused},
			},
		},
		{
			name: "playing",
			drive: func(t *testing.T, player *playback.Player) {
				loadGood(t, player)
				if err := player.Play(); err != nil {
					t.Fatalf("Play failed: %v", err)
				}
			},
			outcomes: [5]outcome{
				{"", playback.StatusPaused},
				{"", playback.StatusPlaying},
				{"", playback.StatusPaused},
				{"", playback.StatusStopped},
				{"", playback.StatusPlaying},
			},
		},
		{
			name: "error after a failed load",
			drive: func(t *testing.T, player *playback.Player) {
				if err := player.Load(track("missing", "missing.wav")); err == nil {
					t.Fatal("expected the load to fail")
				}
			},
			outcomes: [5]outcome{
				{"", playback.StatusPaused},
				{playback.KindInvalidState, playback.StatusError},
				{"", playback.StatusError},
				{"", playback.StatusStopped},
				{playback.KindInvalidState, playback.StatusError},
			},
		},
		{
			name: "error after a mid-stream decode failure",
			drive: func(t *testing.T, player *playback.Player) {
				if err := player.Load(track("corrupt", "corrupt.wav")); err != nil {
					t.Fatalf("Load failed: %v", err)
				}
				if err := player.Play(); err != nil {
					t.Fatalf("Play failed: %v", err)
				}
				waitForStatus(t, player, playback.StatusError)
			},
			outcomes: [5]outcome{
				{"", playback.StatusPaused},
				{playback.KindInvalidState, playback.StatusError},
				{"", playback.StatusError},
				{"", playback.StatusStopped},
				{playback.KindInvalidState, playback.StatusError},
			},
		},
	}

	for _, row := range rows {
		for i, op := range ops {
			t.Run(row.name+"/"+op.name, func(t *testing.T) {
				corrupt := testsupport.Tone(2)
				corrupt.FailAtFrame = 441
				player, dec, _ := newTestPlayer(t, map[string]testsupport.StubStream{
					"good.wav":    testsupport.Tone(86400),
					"next.wav":    testsupport.Tone(2),
					"corrupt.wav": corrupt,
				})
				row.drive(t, player)

				if player.State() == playback.StatusError && dec.LiveSessions() != 0 {
					t.Fatalf("error state must not retain a decode session, %d live", dec.LiveSessions())
				}

				err := op.apply(player)
				want := row.outcomes[i]
				if want.kind == "" {
					if err != nil {
						t.Fatalf("%s must succeed, got %v", op.name, err)
					}
				} else {
					kind, _ := playback.KindOf(err)
					if kind != want.kind {
						t.Fatalf("%s must fail with %s, got %v", op.name, want.kind, err)
					}
				}
				if got := player.State(); got != want.state {
					t.Fatalf("%s must leave the player %s, got %s", op.name, want.state, got)
				}
			})
		}
	}
}

func TestTransitionScenarios(t *testing.T) {
	scenarios := []struct {
		name string
		run  func(t *testing.T, player *playback.Player)
	}{
		{
			name: "load from stopped lands paused with the stream duration",
			run: func(t *testing.T, player *playback.Player) {
				if err := player.Load(track("one", "one-second.wav")); err != nil {
					t.Fatalf("Load failed: %v", err)
				}
				if err := player.Stop(); err != nil {
					t.Fatalf("Stop failed: %v", err)
				}
				if err := player.Load(track("one", "one-second.wav")); err != nil {
					t.Fatalf("reload failed: %v", err)
				}
				if player.State() != playback.StatusPaused {
					t.Fatalf("expected paused, got %s", player.State())
				}
				if player.Duration() != 1.0 {
					t.Fatalf("expected duration 1.0, got %f", player.Duration())
				}
			},
		},
		{
			name: "play then pause keeps the position",
			run: func(t *testing.T, player *playback.Player) {
				if err := player.Load(track("endless", "endless.wav")); err != nil {
					t.Fatalf("Load failed: %v", err)
				}
				if err := player.Play(); err != nil {
					t.Fatalf("Play failed: %v", err)
				}
				if player.State() != playback.StatusPlaying {
					t.Fatalf("expected playing, got %s", player.State())
				}
				if err := player.Pause(); err != nil {
					t.Fatalf("Pause failed: %v", err)
				}
				if player.State() != playback.StatusPaused {
					t.Fatalf("expected paused, got %s", player.State())
				}
				before := player.Position()
				time.Sleep(5 * time.Millisecond)
				if after := player.Position(); after != before {
					t.Fatalf("position moved across the pause: %f then %f", before, after)
				}
			},
		},
		{
			name: "play from stopped fails and stays stopped",
			run: func(t *testing.T, player *playback.Player) {
				if err := player.Load(track("one", "one-second.wav")); err != nil {
					t.Fatalf("Load failed: %v", err)
				}
				if err := player.Stop(); err != nil {
					t.Fatalf("Stop failed: %v", err)
				}
				err := player.Play()
				if kind, _ := playback.KindOf(err); kind != playback.KindInvalidState {
					t.Fatalf("expected invalid_state, got %v", err)
				}
				if player.State() != playback.StatusStopped {
					t.Fatalf("state must remain stopped, got %s", player.State())
				}
			},
		},
		{
			name: "seek past the end fails without moving anything",
			run: func(t *testing.T, player *playback.Player) {
				if err := player.Load(track("long", "long.wav")); err != nil {
					t.Fatalf("Load failed: %v", err)
				}
				err := player.Seek(200.0)
				if kind, _ := playback.KindOf(err); kind != playback.KindInvalidArgument {
					t.Fatalf("expected invalid_argument, got %v", err)
				}
				if player.State() != playback.StatusPaused {
					t.Fatalf("state must remain paused, got %s", player.State())
				}
				if player.Position() != 0 {
					t.Fatalf("position must be untouched, got %f", player.Position())
				}
			},
		},
		{
			name: "end of stream lands stopped at zero",
			run: func(t *testing.T, player *playback.Player) {
				if err := player.Load(track("one", "one-second.wav")); err != nil {
					t.Fatalf("Load failed: %v", err)
				}
				if err := player.Play(); err != nil {
					t.Fatalf("Play failed: %v", err)
				}
				snap := waitForStatus(t, player, playback.StatusStopped)
				if snap.Position != 0 {
					t.Fatalf("position must reset at end of stream, got %f", snap.Position)
				}
			},
		},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			player, _, _ := newTestPlayer(t, map[string]testsupport.StubStream{
				"one-second.wav": testsupport.Tone(1),
				"long.wav":       testsupport.Tone(180),
				"endless.wav":    testsupport.Tone(86400),
			})
			scenario.run(t, player)
		})
	}
}

func TestCloseRejectsFurtherOperations(t *testing.T) {
	player, dec, _ := newTestPlayer(t, map[string]testsupport.StubStream{
		"song.wav": testsupport.Tone(2),
	})

	if err := player.Load(track("song", "song.wav")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := player.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if dec.LiveSessions() != 0 {
		t.Fatalf("close must release the decode session, got %d live", dec.LiveSessions())
	}

	for name, op := range map[string]func() error{
		"Load":  func() error { return player.Load(track("song", "song.wav")) },
		"Play":  player.Play,
		"Pause": player.Pause,
		"Stop":  player.Stop,
		"Seek":  func() error { return player.Seek(0) },
	} {
		err := op()
		if err == nil {
			t.Fatalf("%s must fail after Close", name)
		}
		if kind, _ := playback.KindOf(err); kind != playback.KindInvalidState {
			t.Fatalf("%s after Close: expected invalid_state, got %s", name, kind)
		}
	}

	if err := player.Close(); err != nil {
		t.Fatalf("repeated Close must be a no-op, got %v", err)
	}
}
