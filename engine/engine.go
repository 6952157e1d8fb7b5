// Package engine runs one gold rush round: spawning, drifting, the claw drop,
// scoring, the countdown and drawing. It is single-goroutine; the host calls
// Update and Draw from its frame loop and HandleInput between frames.
package engine

import (
	"math/rand/v2"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/milk9111/goldrush/ecs"
	"github.com/milk9111/goldrush/ecs/component"
	"github.com/milk9111/goldrush/ecs/system"
	"github.com/milk9111/goldrush/prefabs"
)

const countdownPeriod = time.Second

// Engine owns the world of the current round and the tasks that drive it.
type Engine struct {
	tuning prefabs.Tuning
	clock  clock.Clock
	rng    *rand.Rand
	onEnd  func(score int)

	world     *ecs.World
	frame     *ecs.Scheduler
	spawn     *system.SpawnSystem
	input     *system.InputSystem
	countdown *system.CountdownSystem
	render    *system.RenderSystem

	timers      *Timers
	frameTask   *Task
	countTask   *Task
	endTask     *Task
	pendingEnd  func()
	endDelay    time.Duration
	frames      int
	spawned     int
	escaped     int
	roundNumber int
}

type Option func(*Engine)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithRand sets the source used for spawn heights.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithSeed seeds the spawn source deterministically.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// New builds an idle engine. onEnd is called once per completed round with
// the final score, after the configured end delay.
func New(tuning prefabs.Tuning, onEnd func(score int), opts ...Option) *Engine {
	e := &Engine{
		tuning: tuning,
		clock:  clock.New(),
		onEnd:  onEnd,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	e.timers = NewTimers(e.clock)
	e.world = ecs.NewWorld()
	e.buildSystems()
	return e
}

func (e *Engine) buildSystems() {
	t := e.tuning
	e.spawn = system.NewSpawnSystem(e.clock, e.rng, t.Collectible, t.Playfield.Height)
	e.frame = ecs.NewScheduler(
		system.NewDriftSystem(t.Collectible.Speed, t.Playfield.Width),
		e.spawn,
		system.NewGrabberSystem(t.Grabber.DropSpeed, t.Playfield.Height, t.Grabber.Height),
	)
	e.input = system.NewInputSystem(t.Grabber.MoveStep, t.Playfield.Width)
	e.countdown = system.NewCountdownSystem(e.expire)
	e.render = system.NewRenderSystem(t)
}

// SetTuning swaps the tuning used from the next Start on. A running round
// keeps the values it started with.
func (e *Engine) SetTuning(t prefabs.Tuning) {
	e.tuning = t
}

// Tuning returns the tuning of the next round.
func (e *Engine) Tuning() prefabs.Tuning {
	return e.tuning
}

// Start begins a fresh round, discarding the previous one. A round that
// already ended but whose end callback is still waiting gets its callback
// delivered first so every completed round reports exactly once.
func (e *Engine) Start() {
	if e.pendingEnd != nil {
		deliver := e.pendingEnd
		e.pendingEnd = nil
		deliver()
	}
	e.timers.CancelAll()
	e.buildSystems()

	t := e.tuning
	e.world = ecs.NewWorld()
	e.spawn.Reset()

	claw := e.world.CreateEntity()
	mustAdd(e.world, claw, component.TransformComponent, &component.Transform{X: (t.Playfield.Width - t.Grabber.Width) / 2})
	mustAdd(e.world, claw, component.GrabberComponent, &component.Grabber{
		Width:      t.Grabber.Width,
		Height:     t.Grabber.Height,
		RestOffset: t.Grabber.RestOffset,
		Offset:     t.Grabber.RestOffset,
	})

	round := e.world.CreateEntity()
	mustAdd(e.world, round, component.RoundComponent, &component.Round{
		Duration:  t.Round.DurationSeconds,
		Remaining: t.Round.DurationSeconds,
		Active:    true,
	})

	e.endDelay = t.Round.EndDelay()
	e.frames, e.spawned, e.escaped = 0, 0, 0
	e.roundNumber++
	e.frameTask = e.timers.EveryFrame(e.tick)
	e.countTask = e.timers.Every(countdownPeriod, func() { e.countdown.Update(e.world) })
	e.endTask = nil

	log.Debug().Int("round", e.roundNumber).Int("duration", t.Round.DurationSeconds).Msg("round started")
}

// Reset abandons the current round and starts a new one.
func (e *Engine) Reset() {
	e.Start()
}

// Stop tears the round down. No task, including a pending end callback, runs
// afterwards.
func (e *Engine) Stop() {
	e.timers.CancelAll()
	e.pendingEnd = nil
	e.frameTask, e.countTask, e.endTask = nil, nil, nil
	if round, ok := e.round(); ok {
		round.Active = false
	}
}

// Update advances the round's tasks to the current clock time.
func (e *Engine) Update() {
	e.timers.Advance()
}

// HandleInput applies a player action. It reports whether anything changed.
func (e *Engine) HandleInput(action component.Action) bool {
	return e.input.Apply(e.world, action)
}

// Draw renders the active round onto s.
func (e *Engine) Draw(s system.Surface) {
	e.render.Draw(e.world, s)
}

func (e *Engine) tick() {
	e.frames++
	e.frame.Update(e.world)
	for _, evt := range e.world.Events().Drain() {
		switch evt.Type {
		case ecs.EventSpawned:
			e.spawned++
			log.Trace().Int("round", e.roundNumber).Interface("piece", evt.Data).Msg("gold spawned")
		case ecs.EventEscaped:
			e.escaped++
			log.Trace().Int("round", e.roundNumber).Interface("piece", evt.Data).Msg("gold escaped")
		case ecs.EventCaptured:
			log.Debug().Int("round", e.roundNumber).Int("frame", e.frames).Int("score", e.Score()).Msg("gold captured")
		case ecs.EventMissed:
			log.Debug().Int("round", e.roundNumber).Int("frame", e.frames).Msg("claw missed")
		}
	}
}

// expire runs inside the countdown task when the round reaches zero.
func (e *Engine) expire(score int) {
	e.frameTask.Cancel()
	e.countTask.Cancel()

	round := e.roundNumber
	log.Info().Int("round", round).Int("score", score).Int("frames", e.frames).Int("spawned", e.spawned).Int("escaped", e.escaped).Msg("round over")

	deliver := func() {
		if e.onEnd != nil {
			e.onEnd(score)
		}
	}
	e.pendingEnd = deliver
	e.endTask = e.timers.After(e.endDelay, func() {
		e.pendingEnd = nil
		deliver()
	})
}

func (e *Engine) round() (*component.Round, bool) {
	_, r, ok := ecs.First(e.world, component.RoundComponent)
	return r, ok
}

// Active reports whether a round is being played.
func (e *Engine) Active() bool {
	r, ok := e.round()
	return ok && r.Active
}

// Score returns the current round's score.
func (e *Engine) Score() int {
	if r, ok := e.round(); ok {
		return r.Score
	}
	return 0
}

// Remaining returns the whole seconds left in the current round.
func (e *Engine) Remaining() int {
	if r, ok := e.round(); ok {
		return r.Remaining
	}
	return 0
}

// Frames returns how many frames the current round has simulated.
func (e *Engine) Frames() int {
	return e.frames
}

// Spawned and Escaped count the pieces that entered and left the playfield
// this round.
func (e *Engine) Spawned() int { return e.spawned }
func (e *Engine) Escaped() int { return e.escaped }

// GrabberState is a read-only copy of the claw.
type GrabberState struct {
	X        float64
	Offset   float64
	Dropping bool
}

func (e *Engine) Grabber() GrabberState {
	ent, g, ok := ecs.First(e.world, component.GrabberComponent)
	if !ok {
		return GrabberState{}
	}
	t, _ := ecs.Get(e.world, ent, component.TransformComponent)
	return GrabberState{X: t.X, Offset: g.Offset, Dropping: g.Dropping}
}

// CollectibleState is a read-only copy of one piece.
type CollectibleState struct {
	Seq      uint64
	X, Y     float64
	Captured bool
}

// Collectibles returns the pieces currently in play, in no particular order.
func (e *Engine) Collectibles() []CollectibleState {
	out := make([]CollectibleState, 0, ecs.Count(e.world, component.CollectibleComponent))
	ecs.ForEach(e.world, component.CollectibleComponent, func(ent ecs.Entity, c *component.Collectible) {
		t, ok := ecs.Get(e.world, ent, component.TransformComponent)
		if !ok {
			return
		}
		out = append(out, CollectibleState{Seq: c.Seq, X: t.X, Y: t.Y, Captured: c.Captured})
	})
	return out
}

// SpawnAt places a piece at the left edge at height y and returns its
// sequence number.
func (e *Engine) SpawnAt(y float64) uint64 {
	ent := e.spawn.Spawn(e.world, y)
	c, _ := ecs.Get(e.world, ent, component.CollectibleComponent)
	return c.Seq
}

// MovePiece moves the piece with the given sequence number so its centre
// sits at centerX. It reports whether the piece was found.
func (e *Engine) MovePiece(seq uint64, centerX float64) bool {
	moved := false
	ecs.ForEach(e.world, component.CollectibleComponent, func(ent ecs.Entity, c *component.Collectible) {
		if c.Seq != seq {
			return
		}
		if t, ok := ecs.Get(e.world, ent, component.TransformComponent); ok {
			t.X = centerX - c.Radius
			moved = true
		}
	})
	return moved
}

func mustAdd[T any](w *ecs.World, e ecs.Entity, handle component.ComponentHandle[T], value *T) {
	if err := ecs.Add(w, e, handle, value); err != nil {
		panic("engine: add component: " + err.Error())
	}
}

// Ending reports whether the round has expired and its end callback is still
// waiting for the end delay.
func (e *Engine) Ending() bool {
	return e.pendingEnd != nil
}
