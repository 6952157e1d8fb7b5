package system

import "github.com/milk9111/goldrush/ecs"

// CountdownSystem takes one second off the active round per Update. It is
// run by the once-per-second countdown task, not every frame.
type CountdownSystem struct {
	// OnExpire fires once, on the update that brings the round to zero.
	OnExpire func(score int)
}

func NewCountdownSystem(onExpire func(score int)) *CountdownSystem {
	return &CountdownSystem{OnExpire: onExpire}
}

func (s *CountdownSystem) Update(w *ecs.World) {
	round, ok := activeRound(w)
	if !ok {
		return
	}
	if round.Remaining > 0 {
		round.Remaining--
	}
	if round.Remaining > 0 {
		return
	}
	round.Active = false
	if s.OnExpire != nil {
		s.OnExpire(round.Score)
	}
}
