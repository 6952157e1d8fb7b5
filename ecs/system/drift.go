package system

import (
	"github.com/milk9111/goldrush/ecs"
	"github.com/milk9111/goldrush/ecs/component"
)

// DriftSystem slides collectibles to the right and removes the ones that left
// the playfield or were captured on an earlier frame.
type DriftSystem struct {
	speed float64
	width float64
}

func NewDriftSystem(speed, width float64) *DriftSystem {
	return &DriftSystem{speed: speed, width: width}
}

func (s *DriftSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach(w, component.CollectibleComponent, func(e ecs.Entity, c *component.Collectible) {
		t, ok := ecs.Get(w, e, component.TransformComponent)
		if !ok {
			return
		}
		t.X += s.speed
		if c.Captured {
			w.DestroyEntity(e)
			return
		}
		if t.X >= s.width+c.Radius {
			w.Events().Push(ecs.Event{Type: ecs.EventEscaped, Entity: e, Data: c.ID})
			w.DestroyEntity(e)
		}
	})
}
