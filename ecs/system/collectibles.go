package system

import (
	"sort"

	"github.com/milk9111/goldrush/ecs"
	"github.com/milk9111/goldrush/ecs/component"
)

type collectibleRef struct {
	entity      ecs.Entity
	collectible *component.Collectible
	transform   *component.Transform
}

// collectiblesBySeq returns the live collectibles in spawn order. Sparse-set
// order is not stable across removals, so capture checks sort explicitly.
func collectiblesBySeq(w *ecs.World) []collectibleRef {
	ents := w.Query(component.CollectibleComponent.Kind().ID(), component.TransformComponent.Kind().ID())
	out := make([]collectibleRef, 0, len(ents))
	for _, e := range ents {
		c, _ := ecs.Get(w, e, component.CollectibleComponent)
		t, _ := ecs.Get(w, e, component.TransformComponent)
		out = append(out, collectibleRef{entity: e, collectible: c, transform: t})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].collectible.Seq < out[j].collectible.Seq
	})
	return out
}

func activeRound(w *ecs.World) (*component.Round, bool) {
	_, round, ok := ecs.First(w, component.RoundComponent)
	if !ok || !round.Active {
		return nil, false
	}
	return round, true
}

func grabber(w *ecs.World) (*component.Grabber, *component.Transform, bool) {
	e, g, ok := ecs.First(w, component.GrabberComponent)
	if !ok {
		return nil, nil, false
	}
	t, ok := ecs.Get(w, e, component.TransformComponent)
	if !ok {
		return nil, nil, false
	}
	return g, t, true
}
