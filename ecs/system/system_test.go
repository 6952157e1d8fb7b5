package system

import (
	"fmt"
	"image/color"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/milk9111/goldrush/ecs"
	"github.com/milk9111/goldrush/ecs/component"
	"github.com/milk9111/goldrush/prefabs"
)

type fixture struct {
	w       *ecs.World
	tuning  prefabs.Tuning
	grabber *component.Grabber
	claw    *component.Transform
	round   *component.Round
	spawner *SpawnSystem
	clock   *clock.Mock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tu := prefabs.DefaultTuning()
	w := ecs.NewWorld()

	ge := w.CreateEntity()
	claw := &component.Transform{X: (tu.Playfield.Width - tu.Grabber.Width) / 2}
	g := &component.Grabber{
		Width:      tu.Grabber.Width,
		Height:     tu.Grabber.Height,
		RestOffset: tu.Grabber.RestOffset,
		Offset:     tu.Grabber.RestOffset,
	}
	if err := ecs.Add(w, ge, component.TransformComponent, claw); err != nil {
		t.Fatalf("add claw transform: %v", err)
	}
	if err := ecs.Add(w, ge, component.GrabberComponent, g); err != nil {
		t.Fatalf("add grabber: %v", err)
	}

	re := w.CreateEntity()
	round := &component.Round{Duration: 30, Remaining: 30, Active: true}
	if err := ecs.Add(w, re, component.RoundComponent, round); err != nil {
		t.Fatalf("add round: %v", err)
	}

	clk := clock.NewMock()
	rng := rand.New(rand.NewPCG(1, 2))
	return &fixture{
		w:       w,
		tuning:  tu,
		grabber: g,
		claw:    claw,
		round:   round,
		spawner: NewSpawnSystem(clk, rng, tu.Collectible, tu.Playfield.Height),
		clock:   clk,
	}
}

// placeUnderClaw spawns a piece whose centre lines up with the claw centre.
func (f *fixture) placeUnderClaw(y float64) ecs.Entity {
	e := f.spawner.Spawn(f.w, y)
	t, _ := ecs.Get(f.w, e, component.TransformComponent)
	t.X = f.claw.X + f.grabber.Width/2 - f.tuning.Collectible.Radius
	return e
}

func TestSpawnSystemHonoursInterval(t *testing.T) {
	f := newFixture(t)

	f.clock.Add(400 * time.Millisecond)
	f.spawner.Update(f.w)
	if got := ecs.Count(f.w, component.CollectibleComponent); got != 0 {
		t.Fatalf("spawned at exactly the interval: got %d pieces", got)
	}

	f.clock.Add(time.Millisecond)
	f.spawner.Update(f.w)
	if got := ecs.Count(f.w, component.CollectibleComponent); got != 1 {
		t.Fatalf("expected 1 piece after interval, got %d", got)
	}

	f.spawner.Update(f.w)
	if got := ecs.Count(f.w, component.CollectibleComponent); got != 1 {
		t.Fatalf("spawn timer should reset after a spawn, got %d pieces", got)
	}
}

func TestSpawnSystemPlacement(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 50; i++ {
		f.clock.Add(401 * time.Millisecond)
		f.spawner.Update(f.w)
	}

	var seqs []uint64
	ecs.ForEach(f.w, component.CollectibleComponent, func(e ecs.Entity, c *component.Collectible) {
		tr, _ := ecs.Get(f.w, e, component.TransformComponent)
		if tr.X != -c.Radius {
			t.Fatalf("piece spawned at x=%v, want %v", tr.X, -c.Radius)
		}
		if tr.Y < f.tuning.Collectible.BandMin || tr.Y >= f.tuning.Playfield.Height {
			t.Fatalf("piece spawned at y=%v outside band", tr.Y)
		}
		if c.Captured {
			t.Fatalf("new piece must not be captured")
		}
		seqs = append(seqs, c.Seq)
	})
	if len(seqs) != 50 {
		t.Fatalf("expected 50 pieces, got %d", len(seqs))
	}
}

func TestDriftSystemMovesAndCulls(t *testing.T) {
	f := newFixture(t)
	drift := NewDriftSystem(f.tuning.Collectible.Speed, f.tuning.Playfield.Width)

	inside := f.spawner.Spawn(f.w, 200)
	edge := f.spawner.Spawn(f.w, 200)
	edgeT, _ := ecs.Get(f.w, edge, component.TransformComponent)
	edgeT.X = f.tuning.Playfield.Width + f.tuning.Collectible.Radius - f.tuning.Collectible.Speed
	captured := f.spawner.Spawn(f.w, 200)
	c, _ := ecs.Get(f.w, captured, component.CollectibleComponent)
	c.Captured = true

	drift.Update(f.w)

	insideT, ok := ecs.Get(f.w, inside, component.TransformComponent)
	if !ok || insideT.X != -f.tuning.Collectible.Radius+f.tuning.Collectible.Speed {
		t.Fatalf("piece did not advance by speed: %+v", insideT)
	}
	if f.w.IsAlive(edge) {
		t.Fatalf("piece past the right edge should be removed")
	}
	if f.w.IsAlive(captured) {
		t.Fatalf("captured piece should be removed")
	}
}

func TestGrabberDropCaptures(t *testing.T) {
	f := newFixture(t)
	sys := NewGrabberSystem(f.tuning.Grabber.DropSpeed, f.tuning.Playfield.Height, f.tuning.Grabber.Height)
	input := NewInputSystem(f.tuning.Grabber.MoveStep, f.tuning.Playfield.Width)

	target := f.placeUnderClaw(120)
	if !input.Apply(f.w, component.ActionDrop) {
		t.Fatalf("drop should be accepted")
	}

	prev := f.grabber.Offset
	for frame := 0; frame < 100 && f.round.Score == 0; frame++ {
		sys.Update(f.w)
		if f.round.Score == 0 && f.grabber.Offset <= prev {
			t.Fatalf("offset should grow while dropping: %v -> %v", prev, f.grabber.Offset)
		}
		prev = f.grabber.Offset
	}

	if f.round.Score != 1 {
		t.Fatalf("score = %d, want 1", f.round.Score)
	}
	if f.grabber.Dropping || f.grabber.Offset != f.grabber.RestOffset {
		t.Fatalf("grabber should snap back to rest after a capture: %+v", f.grabber)
	}
	c, _ := ecs.Get(f.w, target, component.CollectibleComponent)
	if !c.Captured {
		t.Fatalf("target should be captured")
	}

	events := f.w.Events().Drain()
	found := false
	for _, evt := range events {
		if evt.Type == ecs.EventCaptured && evt.Entity == target {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected captured event, got %+v", events)
	}
}

func TestGrabberCaptureBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		dx      float64 // horizontal centre distance
		dy      float64 // piece y minus first candidate offset
		capture bool
	}{
		{"dead_centre", 0, 0, true},
		{"just_inside_both", 17.9, 17.9, true},
		{"horizontal_equal_radius", 18, 0, false},
		{"vertical_equal_radius", 0, 18, false},
		// a true circle test would reject this corner; the box test accepts it
		{"box_corner", 15, 15, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			sys := NewGrabberSystem(f.tuning.Grabber.DropSpeed, f.tuning.Playfield.Height, f.tuning.Grabber.Height)

			candidate := f.grabber.RestOffset + f.tuning.Grabber.DropSpeed
			e := f.placeUnderClaw(candidate + c.dy)
			tr, _ := ecs.Get(f.w, e, component.TransformComponent)
			tr.X += c.dx
			f.grabber.Dropping = true

			sys.Update(f.w)

			if got := f.round.Score == 1; got != c.capture {
				t.Fatalf("capture = %v, want %v", got, c.capture)
			}
		})
	}
}

func TestGrabberCapturesOnlyFirstInSpawnOrder(t *testing.T) {
	f := newFixture(t)
	sys := NewGrabberSystem(f.tuning.Grabber.DropSpeed, f.tuning.Playfield.Height, f.tuning.Grabber.Height)

	candidate := f.grabber.RestOffset + f.tuning.Grabber.DropSpeed
	// Re-creating first reuses the lower entity slot but gives it a later
	// spawn sequence than second.
	first := f.placeUnderClaw(candidate)
	second := f.placeUnderClaw(candidate + 1)
	f.w.DestroyEntity(first)
	first = f.placeUnderClaw(candidate)

	f.grabber.Dropping = true
	sys.Update(f.w)

	if f.round.Score != 1 {
		t.Fatalf("score = %d, want exactly 1", f.round.Score)
	}
	c1, _ := ecs.Get(f.w, first, component.CollectibleComponent)
	c2, _ := ecs.Get(f.w, second, component.CollectibleComponent)
	// second was spawned before the re-created first
	if !c2.Captured || c1.Captured {
		t.Fatalf("expected earliest spawn captured: first=%v second=%v", c1.Captured, c2.Captured)
	}
}

func TestGrabberSkipsPieceWithoutTransform(t *testing.T) {
	f := newFixture(t)
	sys := NewGrabberSystem(f.tuning.Grabber.DropSpeed, f.tuning.Playfield.Height, f.tuning.Grabber.Height)

	candidate := f.grabber.RestOffset + f.tuning.Grabber.DropSpeed
	bare := f.placeUnderClaw(candidate)
	if !ecs.Remove(f.w, bare, component.TransformComponent) {
		t.Fatalf("remove transform failed")
	}
	placed := f.placeUnderClaw(candidate)

	refs := collectiblesBySeq(f.w)
	if len(refs) != 1 || refs[0].entity != placed {
		t.Fatalf("expected only the placed piece, got %d refs", len(refs))
	}

	f.grabber.Dropping = true
	sys.Update(f.w)
	if f.round.Score != 1 {
		t.Fatalf("score = %d, want 1", f.round.Score)
	}
	c, _ := ecs.Get(f.w, bare, component.CollectibleComponent)
	if c.Captured {
		t.Fatalf("piece without a transform was captured")
	}
}

func TestGrabberMissRetractsAtFloor(t *testing.T) {
	f := newFixture(t)
	sys := NewGrabberSystem(f.tuning.Grabber.DropSpeed, f.tuning.Playfield.Height, f.tuning.Grabber.Height)
	f.grabber.Dropping = true

	floor := f.tuning.Playfield.Height - f.tuning.Grabber.Height
	frames := 0
	for f.grabber.Dropping {
		sys.Update(f.w)
		frames++
		if f.grabber.Offset > floor {
			t.Fatalf("offset %v passed the floor %v", f.grabber.Offset, floor)
		}
		if frames > 1000 {
			t.Fatalf("grabber never retracted")
		}
	}
	if f.round.Score != 0 {
		t.Fatalf("a miss must not score")
	}
	if f.grabber.Offset != f.grabber.RestOffset {
		t.Fatalf("offset = %v, want rest %v", f.grabber.Offset, f.grabber.RestOffset)
	}
	// (380-40)/8 = 42.5: 42 advancing frames, then the retracting one
	if frames != 43 {
		t.Fatalf("frames = %d, want 43", frames)
	}
}

func TestCapturedPieceIsNotRecaptured(t *testing.T) {
	f := newFixture(t)
	sys := NewGrabberSystem(f.tuning.Grabber.DropSpeed, f.tuning.Playfield.Height, f.tuning.Grabber.Height)

	candidate := f.grabber.RestOffset + f.tuning.Grabber.DropSpeed
	e := f.placeUnderClaw(candidate)

	f.grabber.Dropping = true
	sys.Update(f.w)
	f.grabber.Dropping = true
	sys.Update(f.w)

	if f.round.Score != 1 {
		t.Fatalf("score = %d, want 1", f.round.Score)
	}
	c, _ := ecs.Get(f.w, e, component.CollectibleComponent)
	if !c.Captured {
		t.Fatalf("piece should stay captured")
	}
}

func TestInputSystem(t *testing.T) {
	t.Run("clamps_to_playfield", func(t *testing.T) {
		f := newFixture(t)
		input := NewInputSystem(f.tuning.Grabber.MoveStep, f.tuning.Playfield.Width)
		maxX := f.tuning.Playfield.Width - f.tuning.Grabber.Width

		for i := 0; i < 200; i++ {
			input.Apply(f.w, component.ActionMoveLeft)
			if f.claw.X < 0 || f.claw.X > maxX {
				t.Fatalf("x = %v out of [0, %v]", f.claw.X, maxX)
			}
		}
		if f.claw.X != 0 {
			t.Fatalf("x = %v, want 0", f.claw.X)
		}
		for i := 0; i < 200; i++ {
			input.Apply(f.w, component.ActionMoveRight)
		}
		if f.claw.X != maxX {
			t.Fatalf("x = %v, want %v", f.claw.X, maxX)
		}
	})

	t.Run("double_drop_is_ignored", func(t *testing.T) {
		f := newFixture(t)
		input := NewInputSystem(f.tuning.Grabber.MoveStep, f.tuning.Playfield.Width)

		if !input.Apply(f.w, component.ActionDrop) {
			t.Fatalf("first drop should apply")
		}
		f.grabber.Offset = 100
		if input.Apply(f.w, component.ActionDrop) {
			t.Fatalf("second drop should be ignored")
		}
		if !f.grabber.Dropping || f.grabber.Offset != 100 {
			t.Fatalf("second drop must not reset the drop: %+v", f.grabber)
		}
	})

	t.Run("inactive_round_ignores_input", func(t *testing.T) {
		f := newFixture(t)
		input := NewInputSystem(f.tuning.Grabber.MoveStep, f.tuning.Playfield.Width)
		f.round.Active = false
		x := f.claw.X

		for _, a := range []component.Action{component.ActionMoveLeft, component.ActionMoveRight, component.ActionDrop} {
			if input.Apply(f.w, a) {
				t.Fatalf("%s applied while inactive", a)
			}
		}
		if f.claw.X != x || f.grabber.Dropping {
			t.Fatalf("state changed while inactive")
		}
	})

	t.Run("unknown_action", func(t *testing.T) {
		f := newFixture(t)
		input := NewInputSystem(f.tuning.Grabber.MoveStep, f.tuning.Playfield.Width)
		if input.Apply(f.w, component.ActionNone) {
			t.Fatalf("ActionNone should be ignored")
		}
	})
}

func TestCountdownSystem(t *testing.T) {
	f := newFixture(t)
	f.round.Remaining = 3
	f.round.Score = 7

	fired := 0
	var final int
	cd := NewCountdownSystem(func(score int) {
		fired++
		final = score
	})

	for i := 0; i < 10; i++ {
		before := f.round.Remaining
		cd.Update(f.w)
		if f.round.Remaining < 0 {
			t.Fatalf("remaining went negative")
		}
		if before > 0 && f.round.Remaining != before-1 {
			t.Fatalf("remaining %d -> %d, want -1", before, f.round.Remaining)
		}
	}
	if fired != 1 || final != 7 {
		t.Fatalf("expire fired %d times with %d, want once with 7", fired, final)
	}
	if f.round.Active {
		t.Fatalf("round should be inactive")
	}
}

type recordingSurface struct {
	circles []string
	lines   int
	texts   []string
}

func (s *recordingSurface) FillCircle(cx, cy, r float64, _ color.Color) {
	s.circles = append(s.circles, fmt.Sprintf("%.0f,%.0f,%.0f", cx, cy, r))
}

func (s *recordingSurface) StrokeCircle(float64, float64, float64, float64, color.Color) {}

func (s *recordingSurface) StrokeLine(float64, float64, float64, float64, float64, color.Color) {
	s.lines++
}

func (s *recordingSurface) Text(txt string, _, _ float64, _ color.Color) {
	s.texts = append(s.texts, txt)
}

func TestRenderSystem(t *testing.T) {
	f := newFixture(t)
	r := NewRenderSystem(f.tuning)

	visible := f.spawner.Spawn(f.w, 150)
	hidden := f.spawner.Spawn(f.w, 250)
	c, _ := ecs.Get(f.w, hidden, component.CollectibleComponent)
	c.Captured = true
	f.round.Score = 3
	f.round.Remaining = 12
	_ = visible

	var s recordingSurface
	r.Draw(f.w, &s)

	if len(s.circles) != 1 || s.circles[0] != "0,150,18" {
		t.Fatalf("unexpected circles: %v", s.circles)
	}
	if s.lines != 3 {
		t.Fatalf("expected two arms and a cable, got %d lines", s.lines)
	}
	joined := strings.Join(s.texts, "|")
	if joined != "Score: 3|Time: 12s" {
		t.Fatalf("unexpected hud: %q", joined)
	}

	f.round.Active = false
	var after recordingSurface
	r.Draw(f.w, &after)
	if len(after.circles) != 0 || after.lines != 0 || len(after.texts) != 0 {
		t.Fatalf("inactive round must not draw")
	}
}
