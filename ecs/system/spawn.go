package system

import (
	"math/rand/v2"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/milk9111/goldrush/ecs"
	"github.com/milk9111/goldrush/ecs/component"
	"github.com/milk9111/goldrush/prefabs"
)

// SpawnSystem drops a new collectible at the left edge whenever more than the
// spawn interval has passed since the previous one.
type SpawnSystem struct {
	clock    clock.Clock
	rng      *rand.Rand
	interval time.Duration
	radius   float64
	bandMin  float64
	bandMax  float64

	lastSpawn time.Time
	seq       uint64
}

func NewSpawnSystem(clk clock.Clock, rng *rand.Rand, spec prefabs.CollectibleSpec, height float64) *SpawnSystem {
	return &SpawnSystem{
		clock:     clk,
		rng:       rng,
		interval:  spec.SpawnInterval(),
		radius:    spec.Radius,
		bandMin:   spec.BandMin,
		bandMax:   height,
		lastSpawn: clk.Now(),
	}
}

// Reset restarts the spawn timer and sequence for a fresh round.
func (s *SpawnSystem) Reset() {
	s.lastSpawn = s.clock.Now()
	s.seq = 0
}

func (s *SpawnSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	now := s.clock.Now()
	if now.Sub(s.lastSpawn) <= s.interval {
		return
	}
	s.lastSpawn = now
	s.Spawn(w, s.bandMin+s.rng.Float64()*(s.bandMax-s.bandMin))
}

// Spawn places a collectible at the left edge at height y.
func (s *SpawnSystem) Spawn(w *ecs.World, y float64) ecs.Entity {
	s.seq++
	e := w.CreateEntity()
	if err := ecs.Add(w, e, component.TransformComponent, &component.Transform{X: -s.radius, Y: y}); err != nil {
		panic("spawn system: add transform: " + err.Error())
	}
	c := &component.Collectible{ID: uuid.New(), Seq: s.seq, Radius: s.radius}
	if err := ecs.Add(w, e, component.CollectibleComponent, c); err != nil {
		panic("spawn system: add collectible: " + err.Error())
	}
	w.Events().Push(ecs.Event{Type: ecs.EventSpawned, Entity: e, Data: c.ID})
	return e
}
