package parity

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"tonearm/internal/logging"
	"tonearm/internal/media"
	"tonearm/internal/output"
	"tonearm/internal/playback"
)

const defaultWaitTimeout = 2 * time.Second

// Machine is the operation surface the runner drives. *playback.Player
// satisfies it; an alternative backend under parity test provides its own.
type Machine interface {
	Load(media.Track) error
	Play() error
	Pause() error
	Stop() error
	Seek(seconds float64) error
	Snapshot() playback.Snapshot
	Tags() media.TagBundle
	Close() error
}

// Factory builds a fresh machine over the injected ports. The runner calls
// it once per case so no state leaks between cases.
type Factory func(dec playback.Decoder, out playback.Output, clk playback.Clock, logger *slog.Logger) Machine

// DefaultFactory wires the reference Player implementation.
func DefaultFactory(dec playback.Decoder, out playback.Output, clk playback.Clock, logger *slog.Logger) Machine {
	return playback.New(dec, out, clk, logger, playback.WithRenderRetryDelay(0))
}

// Runner replays vector documents against machines built by a Factory. It
// owns no shared resources; the same runner may execute any number of
// documents.
type Runner struct {
	platform string
	factory  Factory
	logger   *slog.Logger
}

// NewRunner constructs a runner reporting skips for the named platform.
func NewRunner(platform string, factory Factory, logger *slog.Logger) *Runner {
	if factory == nil {
		factory = DefaultFactory
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{platform: platform, factory: factory, logger: logger}
}

// Run executes every case in doc in order and returns the aggregate result.
func (r *Runner) Run(doc *Document) DocumentResult {
	result := DocumentResult{Document: doc.Name, Platform: r.platform}
	for _, c := range doc.Cases {
		result.Cases = append(result.Cases, r.runCase(doc, c))
	}
	passed, failed, skipped := result.Counts()
	r.logger.Info("vector executed",
		logging.String("document", doc.Name),
		logging.Int("passed", passed),
		logging.Int("failed", failed),
		logging.Int("skipped", skipped),
	)
	return result
}

func (r *Runner) runCase(doc *Document, c Case) CaseResult {
	if c.SkippedOn(r.platform) {
		return CaseResult{Name: c.Name, Outcome: OutcomeSkip, Reason: c.SkipReason}
	}

	dec := newFixtureDecoder(doc.Fixtures)
	machine := r.factory(dec, output.NewHeadless(), newManualClock(), logging.NewComponentLogger(r.logger, "parity"))
	defer func() { _ = machine.Close() }()

	// Every operation error is captured, never propagated, so later checks
	// can assert on it.
	var lastErr error
	var stepFailure string
	for i, step := range c.Steps {
		if err := r.applyStep(machine, doc, step); err != nil {
			if _, classified := playback.KindOf(err); classified {
				lastErr = err
				continue
			}
			stepFailure = fmt.Sprintf("step %d (%s): %v", i, step.Action, err)
			break
		}
	}

	result := CaseResult{Name: c.Name, Outcome: OutcomePass}
	if stepFailure != "" {
		result.Outcome = OutcomeFail
		result.Checks = append(result.Checks, CheckResult{
			Description: "execute steps",
			Outcome:     OutcomeFail,
			Diagnostic:  stepFailure,
		})
		return result
	}

	snap := machine.Snapshot()
	tags := machine.Tags()
	for _, check := range c.Checks {
		evaluated := evaluateCheck(check, snap, tags, lastErr)
		if evaluated.Outcome == OutcomeFail {
			result.Outcome = OutcomeFail
		}
		result.Checks = append(result.Checks, evaluated)
	}
	return result
}

func (r *Runner) applyStep(machine Machine, doc *Document, step Step) error {
	switch step.Action {
	case "load":
		return machine.Load(media.Track{ID: step.Track, Location: step.Track})
	case "play":
		return machine.Play()
	case "pause":
		return machine.Pause()
	case "stop":
		return machine.Stop()
	case "seek":
		return machine.Seek(step.Seconds)
	case "wait_until":
		return waitUntil(machine, step)
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

// waitUntil polls the snapshot for the target state. It returns an
// unclassified error on timeout: that is a harness failure, not a captured
// machine error.
func waitUntil(machine Machine, step Step) error {
	target, _ := playback.ParseStatus(step.Until)
	timeout := defaultWaitTimeout
	if step.TimeoutSeconds > 0 {
		timeout = time.Duration(step.TimeoutSeconds * float64(time.Second))
	}
	deadline := time.Now().Add(timeout)
	for {
		if machine.Snapshot().Status == target {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("state %q not reached within %s (currently %q)", target, timeout, machine.Snapshot().Status)
		}
		time.Sleep(time.Millisecond)
	}
}

func evaluateCheck(check Check, snap playback.Snapshot, tags media.TagBundle, lastErr error) CheckResult {
	result := CheckResult{Outcome: OutcomePass}
	switch check.Type {
	case "state":
		result.Description = fmt.Sprintf("state is %s", check.Expected)
		if string(snap.Status) != check.Expected {
			result.fail("state is %s", snap.Status)
		}
	case "error_kind":
		result.Description = fmt.Sprintf("error kind is %s", check.Expected)
		kind, ok := playback.KindOf(lastErr)
		switch {
		case !ok:
			result.fail("no error was captured")
		case string(kind) != check.Expected:
			result.fail("captured kind is %s (%v)", kind, lastErr)
		}
	case "no_error":
		result.Description = "no error captured"
		if lastErr != nil {
			result.fail("captured %v", lastErr)
		}
	case "position":
		tolerance := DefaultPositionTolerance
		if check.Tolerance != nil {
			tolerance = *check.Tolerance
		}
		result.Description = fmt.Sprintf("position within %.4fs of %.3fs", tolerance, check.Value)
		if math.Abs(snap.Position-check.Value) > tolerance {
			result.fail("position is %.6fs", snap.Position)
		}
	case "duration":
		tolerance := DefaultPositionTolerance
		if check.Tolerance != nil {
			tolerance = *check.Tolerance
		}
		result.Description = fmt.Sprintf("duration within %.4fs of %.3fs", tolerance, check.Value)
		if math.Abs(snap.DurationSeconds-check.Value) > tolerance {
			result.fail("duration is %.6fs", snap.DurationSeconds)
		}
	case "track_id":
		result.Description = fmt.Sprintf("track id is %q", check.Expected)
		if snap.TrackID != check.Expected {
			result.fail("track id is %q", snap.TrackID)
		}
	case "tag_present":
		result.Description = fmt.Sprintf("tag %s present", check.Field)
		if _, ok := tags.Field(check.Field); !ok {
			result.fail("tag is absent")
		}
	case "tag_absent":
		result.Description = fmt.Sprintf("tag %s absent", check.Field)
		if value, ok := tags.Field(check.Field); ok {
			result.fail("tag is present with value %q", value)
		}
	case "tag_value":
		result.Description = fmt.Sprintf("tag %s equals %q", check.Field, check.Expected)
		value, ok := tags.Field(check.Field)
		switch {
		case !ok:
			result.fail("tag is absent")
		case value != check.Expected:
			result.fail("tag value is %q", value)
		}
	default:
		result.Description = check.Type
		result.fail("unknown check type")
	}
	return result
}

func (c *CheckResult) fail(format string, args ...any) {
	c.Outcome = OutcomeFail
	c.Diagnostic = fmt.Sprintf(format, args...)
}
