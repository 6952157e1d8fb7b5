package system

import (
	"math"

	"github.com/milk9111/goldrush/ecs"
)

// GrabberSystem advances a dropping claw and resolves captures.
//
// Overlap is tested per axis: the horizontal distance between claw centre and
// piece centre and the vertical distance between claw tip and piece centre
// must both be strictly below the piece radius. This box test is what the
// game plays with; it is not a circle test.
type GrabberSystem struct {
	dropSpeed float64
	floor     float64
}

// NewGrabberSystem builds the system for a playfield of the given height. A
// drop that would pass height-grabberHeight without a capture retracts.
func NewGrabberSystem(dropSpeed, height, grabberHeight float64) *GrabberSystem {
	return &GrabberSystem{dropSpeed: dropSpeed, floor: height - grabberHeight}
}

func (s *GrabberSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	round, ok := activeRound(w)
	if !ok {
		return
	}
	g, t, ok := grabber(w)
	if !ok {
		return
	}
	if !g.Dropping {
		g.Offset = g.RestOffset
		return
	}

	candidate := g.Offset + s.dropSpeed
	centerX := t.X + g.Width/2
	for _, ref := range collectiblesBySeq(w) {
		c := ref.collectible
		if c.Captured {
			continue
		}
		if math.Abs(c.CenterX(ref.transform.X)-centerX) < c.Radius && math.Abs(ref.transform.Y-candidate) < c.Radius {
			c.Captured = true
			round.Score++
			g.Retract()
			w.Events().Push(ecs.Event{Type: ecs.EventCaptured, Entity: ref.entity, Data: c.ID})
			return
		}
	}

	if candidate > s.floor {
		g.Retract()
		w.Events().Push(ecs.Event{Type: ecs.EventMissed})
		return
	}
	g.Offset = candidate
}
