// Package session drives the round lifecycle on behalf of the host: it starts
// and replays rounds and relays each final score to a Reporter.
package session

import (
	"github.com/rs/zerolog/log"

	"github.com/milk9111/goldrush/ecs/component"
	"github.com/milk9111/goldrush/ecs/system"
	"github.com/milk9111/goldrush/engine"
	"github.com/milk9111/goldrush/prefabs"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Reporter receives the final score of every completed round.
type Reporter interface {
	RoundEnded(score int)
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(score int)

func (f ReporterFunc) RoundEnded(score int) {
	f(score)
}

type Controller struct {
	engine   *engine.Engine
	reporter Reporter

	phase     Phase
	lastScore int
	rounds    int
	closed    bool
}

// NewController builds an idle controller. reporter may be nil.
func NewController(tuning prefabs.Tuning, reporter Reporter, opts ...engine.Option) *Controller {
	c := &Controller{reporter: reporter}
	c.engine = engine.New(tuning, c.onGameEnd, opts...)
	return c
}

func (c *Controller) onGameEnd(score int) {
	c.lastScore = score
	c.rounds++
	c.phase = PhaseEnded
	log.Info().Int("score", score).Int("rounds", c.rounds).Msg("session round ended")
	if c.reporter != nil {
		c.reporter.RoundEnded(score)
	}
}

// Start begins a round. From Running it behaves like Reset.
func (c *Controller) Start() {
	if c.closed {
		return
	}
	c.engine.Start()
	c.phase = PhaseRunning
}

// Reset abandons the current round, if any, and plays a fresh one.
func (c *Controller) Reset() {
	c.Start()
}

// Update advances the running round. It is a no-op outside Running.
func (c *Controller) Update() {
	if c.phase != PhaseRunning {
		return
	}
	c.engine.Update()
}

func (c *Controller) HandleInput(action component.Action) bool {
	if c.phase != PhaseRunning {
		return false
	}
	return c.engine.HandleInput(action)
}

func (c *Controller) Draw(s system.Surface) {
	c.engine.Draw(s)
}

// ApplyTuning takes effect from the next round.
func (c *Controller) ApplyTuning(t prefabs.Tuning) {
	c.engine.SetTuning(t)
}

// Close tears the session down. A round that expired but has not reported yet
// never reports.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.engine.Stop()
	c.phase = PhaseIdle
}

func (c *Controller) Phase() Phase {
	return c.phase
}

// LastScore is the final score of the most recently completed round.
func (c *Controller) LastScore() int {
	return c.lastScore
}

// Rounds counts completed rounds.
func (c *Controller) Rounds() int {
	return c.rounds
}

// Score is the live score of the current round.
func (c *Controller) Score() int {
	return c.engine.Score()
}

func (c *Controller) Remaining() int {
	return c.engine.Remaining()
}

// Playing reports whether the round is accepting input, which is false while
// an expired round waits out its end delay.
func (c *Controller) Playing() bool {
	return c.phase == PhaseRunning && c.engine.Active()
}

func (c *Controller) Engine() *engine.Engine {
	return c.engine
}
