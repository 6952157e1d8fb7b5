package system

import (
	"github.com/milk9111/goldrush/ecs"
	"github.com/milk9111/goldrush/ecs/component"
)

// InputSystem applies player actions to the grabber. Actions arrive between
// frames, so it is driven by Apply rather than by the frame scheduler.
type InputSystem struct {
	step  float64
	width float64
}

func NewInputSystem(step, width float64) *InputSystem {
	return &InputSystem{step: step, width: width}
}

// Apply reports whether the action changed anything. Input while the round
// is inactive, unknown actions and a drop while already dropping are ignored.
func (s *InputSystem) Apply(w *ecs.World, action component.Action) bool {
	if w == nil {
		return false
	}
	if _, ok := activeRound(w); !ok {
		return false
	}
	g, t, ok := grabber(w)
	if !ok {
		return false
	}

	switch action {
	case component.ActionMoveLeft:
		t.X = clamp(t.X-s.step, 0, s.width-g.Width)
		return true
	case component.ActionMoveRight:
		t.X = clamp(t.X+s.step, 0, s.width-g.Width)
		return true
	case component.ActionDrop:
		if g.Dropping {
			return false
		}
		g.Dropping = true
		return true
	default:
		return false
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
