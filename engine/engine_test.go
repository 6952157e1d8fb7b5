package engine

import (
	"image/color"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/milk9111/goldrush/ecs/component"
	"github.com/milk9111/goldrush/prefabs"
)

const frame = 16 * time.Millisecond

type endRecorder struct {
	scores []int
}

func (r *endRecorder) onEnd(score int) {
	r.scores = append(r.scores, score)
}

func newTestEngine(t *testing.T) (*Engine, *clock.Mock, *endRecorder) {
	t.Helper()
	mock := clock.NewMock()
	rec := &endRecorder{}
	e := New(prefabs.DefaultTuning(), rec.onEnd, WithClock(mock), WithSeed(7))
	return e, mock, rec
}

func run(e *Engine, mock *clock.Mock, step time.Duration, n int) {
	for i := 0; i < n; i++ {
		mock.Add(step)
		e.Update()
	}
}

// capture lines a fresh piece up under the claw and drops onto it.
func capture(t *testing.T, e *Engine, mock *clock.Mock) {
	t.Helper()
	before := e.Score()
	g := e.Grabber()
	seq := e.SpawnAt(120)
	if !e.MovePiece(seq, g.X+30) {
		t.Fatalf("spawned piece %d not found", seq)
	}
	if !e.HandleInput(component.ActionDrop) {
		t.Fatalf("drop was ignored")
	}
	for i := 0; i < 20 && e.Score() == before; i++ {
		run(e, mock, frame, 1)
	}
	if e.Score() != before+1 {
		t.Fatalf("expected score %d after capture, got %d", before+1, e.Score())
	}
}

func TestIdleRoundEndsWithZero(t *testing.T) {
	e, mock, rec := newTestEngine(t)
	e.Start()

	if !e.Active() || e.Remaining() != 30 || e.Score() != 0 {
		t.Fatalf("unexpected start state: active=%v remaining=%d score=%d", e.Active(), e.Remaining(), e.Score())
	}
	g := e.Grabber()
	if g.X != 220 || g.Offset != 40 || g.Dropping {
		t.Fatalf("grabber not centred at rest: %+v", g)
	}

	run(e, mock, 100*time.Millisecond, 10)
	if e.Remaining() != 29 {
		t.Fatalf("expected 29s left after one second, got %d", e.Remaining())
	}

	run(e, mock, 100*time.Millisecond, 290)
	if e.Active() || e.Remaining() != 0 {
		t.Fatalf("round should be over: active=%v remaining=%d", e.Active(), e.Remaining())
	}
	if len(rec.scores) != 0 {
		t.Fatalf("end callback fired before the end delay")
	}

	run(e, mock, 100*time.Millisecond, 5)
	run(e, mock, time.Second, 5)
	if len(rec.scores) != 1 || rec.scores[0] != 0 {
		t.Fatalf("expected one end callback with 0, got %v", rec.scores)
	}
}

func TestExpiryStopsFrames(t *testing.T) {
	e, mock, _ := newTestEngine(t)
	e.Start()
	run(e, mock, 500*time.Millisecond, 60)

	frames := e.Frames()
	pieces := e.Collectibles()
	run(e, mock, 500*time.Millisecond, 10)
	if e.Frames() != frames {
		t.Fatalf("frames kept running after expiry: %d -> %d", frames, e.Frames())
	}
	if len(e.Collectibles()) != len(pieces) {
		t.Fatalf("collectibles changed after expiry")
	}
	if e.HandleInput(component.ActionMoveLeft) {
		t.Fatalf("input accepted after expiry")
	}
}

func TestCaptureScoresAndRetracts(t *testing.T) {
	e, mock, _ := newTestEngine(t)
	e.Start()

	capture(t, e, mock)
	g := e.Grabber()
	if g.Dropping || g.Offset != 40 {
		t.Fatalf("grabber should be back at rest after a capture: %+v", g)
	}

	capture(t, e, mock)
	if e.Score() != 2 {
		t.Fatalf("expected score 2, got %d", e.Score())
	}
}

func TestResetMidRound(t *testing.T) {
	e, mock, rec := newTestEngine(t)
	e.Start()
	capture(t, e, mock)
	e.HandleInput(component.ActionMoveLeft)
	run(e, mock, 250*time.Millisecond, 20)

	if e.Remaining() >= 30 || len(e.Collectibles()) == 0 {
		t.Fatalf("round did not progress: remaining=%d pieces=%d", e.Remaining(), len(e.Collectibles()))
	}

	e.Reset()
	if e.Score() != 0 || e.Remaining() != 30 || !e.Active() {
		t.Fatalf("reset state wrong: score=%d remaining=%d active=%v", e.Score(), e.Remaining(), e.Active())
	}
	if n := len(e.Collectibles()); n != 0 {
		t.Fatalf("expected no collectibles after reset, got %d", n)
	}
	if g := e.Grabber(); g.X != 220 || g.Offset != 40 || g.Dropping {
		t.Fatalf("grabber not reset: %+v", g)
	}

	run(e, mock, 100*time.Millisecond, 10)
	if e.Remaining() != 29 {
		t.Fatalf("old countdown still running: remaining=%d", e.Remaining())
	}
	if len(rec.scores) != 0 {
		t.Fatalf("reset of an unfinished round must not report: %v", rec.scores)
	}
}

func TestStopCancelsPendingEnd(t *testing.T) {
	e, mock, rec := newTestEngine(t)
	e.Start()
	run(e, mock, time.Second, 30)
	if e.Active() {
		t.Fatalf("round should have expired")
	}

	e.Stop()
	run(e, mock, time.Second, 3)
	if len(rec.scores) != 0 {
		t.Fatalf("end callback fired after Stop: %v", rec.scores)
	}
}

func TestStopMidRound(t *testing.T) {
	e, mock, rec := newTestEngine(t)
	e.Start()
	run(e, mock, time.Second, 3)
	e.Stop()

	frames := e.Frames()
	run(e, mock, time.Second, 40)
	if e.Active() || e.Frames() != frames || len(rec.scores) != 0 {
		t.Fatalf("stopped round kept running: active=%v frames=%d calls=%v", e.Active(), e.Frames(), rec.scores)
	}
}

func TestStartFlushesPendingEnd(t *testing.T) {
	e, mock, rec := newTestEngine(t)
	e.Start()
	capture(t, e, mock)
	run(e, mock, time.Second, 30)

	e.Start()
	if len(rec.scores) != 1 || rec.scores[0] != 1 {
		t.Fatalf("expected the finished round to report 1 on restart, got %v", rec.scores)
	}

	run(e, mock, time.Second, 2)
	if len(rec.scores) != 1 {
		t.Fatalf("finished round reported twice: %v", rec.scores)
	}
}

func TestSetTuningAppliesOnNextStart(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.Start()

	tuning := prefabs.DefaultTuning()
	tuning.Round.DurationSeconds = 10
	e.SetTuning(tuning)
	if e.Remaining() != 30 {
		t.Fatalf("running round changed duration: %d", e.Remaining())
	}

	e.Start()
	if e.Remaining() != 10 {
		t.Fatalf("expected 10s round, got %d", e.Remaining())
	}
}

func TestSetTuningMidRoundKeepsEndDelay(t *testing.T) {
	e, mock, rec := newTestEngine(t)
	e.Start()

	tuning := prefabs.DefaultTuning()
	tuning.Round.EndDelayMS = 10000
	e.SetTuning(tuning)

	run(e, mock, time.Second, 30)
	if e.Active() || !e.Ending() {
		t.Fatalf("round should be waiting on its end delay: active=%v ending=%v", e.Active(), e.Ending())
	}
	run(e, mock, 100*time.Millisecond, 4)
	if len(rec.scores) != 0 {
		t.Fatalf("end callback fired early: %v", rec.scores)
	}
	run(e, mock, 100*time.Millisecond, 1)
	if len(rec.scores) != 1 || rec.scores[0] != 0 || e.Ending() {
		t.Fatalf("expected the round's own 500ms end delay, got %v ending=%v", rec.scores, e.Ending())
	}
}

func TestSpawnedAndEscapedCounted(t *testing.T) {
	e, mock, _ := newTestEngine(t)
	e.Start()
	run(e, mock, frame, 60*12)

	if e.Spawned() == 0 {
		t.Fatalf("no pieces spawned in 12s")
	}
	if e.Escaped() == 0 {
		t.Fatalf("no piece drifted off in 12s")
	}
	if got := e.Spawned() - e.Escaped(); got != len(e.Collectibles()) {
		t.Fatalf("spawned-escaped=%d but %d pieces in play", got, len(e.Collectibles()))
	}

	e.Start()
	if e.Spawned() != 0 || e.Escaped() != 0 {
		t.Fatalf("counters not reset by Start: %d/%d", e.Spawned(), e.Escaped())
	}
}

type countingSurface struct {
	calls int
}

func (s *countingSurface) FillCircle(float64, float64, float64, color.Color)           { s.calls++ }
func (s *countingSurface) StrokeCircle(float64, float64, float64, float64, color.Color) { s.calls++ }
func (s *countingSurface) StrokeLine(float64, float64, float64, float64, float64, color.Color) {
	s.calls++
}
func (s *countingSurface) Text(string, float64, float64, color.Color) { s.calls++ }

func TestDrawOnlyWhileActive(t *testing.T) {
	e, mock, _ := newTestEngine(t)

	idle := &countingSurface{}
	e.Draw(idle)
	if idle.calls != 0 {
		t.Fatalf("idle engine drew %d primitives", idle.calls)
	}

	e.Start()
	live := &countingSurface{}
	e.Draw(live)
	if live.calls == 0 {
		t.Fatalf("active engine drew nothing")
	}

	run(e, mock, time.Second, 31)
	done := &countingSurface{}
	e.Draw(done)
	if done.calls != 0 {
		t.Fatalf("finished round drew %d primitives", done.calls)
	}
}
