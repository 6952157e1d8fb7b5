package system

import (
	"fmt"

	"github.com/milk9111/goldrush/ecs"
	"github.com/milk9111/goldrush/prefabs"
	"golang.org/x/image/colornames"
)

type RenderSystem struct {
	tuning prefabs.Tuning
}

func NewRenderSystem(tuning prefabs.Tuning) *RenderSystem {
	return &RenderSystem{tuning: tuning}
}

// Draw renders the active round. Nothing is drawn once the round is over.
func (r *RenderSystem) Draw(w *ecs.World, screen Surface) {
	if r == nil || w == nil || screen == nil {
		return
	}
	round, ok := activeRound(w)
	if !ok {
		return
	}

	cs := r.tuning.Collectible
	fill := cs.Fill.OrDefault(colornames.Gold)
	stroke := cs.Stroke.OrDefault(colornames.Darkgoldenrod)
	for _, ref := range collectiblesBySeq(w) {
		c := ref.collectible
		if c.Captured {
			continue
		}
		cx := c.CenterX(ref.transform.X)
		screen.FillCircle(cx, ref.transform.Y, c.Radius, fill)
		screen.StrokeCircle(cx, ref.transform.Y, c.Radius, 1, stroke)
	}

	if g, t, ok := grabber(w); ok {
		gs := r.tuning.Grabber
		arm := gs.ArmColor.OrDefault(colornames.Gray)
		cx := t.X + g.Width/2
		y := g.Offset
		// V-shaped claw, then the cable up to the top edge
		screen.StrokeLine(cx, y, cx-gs.ArmSpread, y+gs.ArmLength, gs.ArmWidth, arm)
		screen.StrokeLine(cx, y, cx+gs.ArmSpread, y+gs.ArmLength, gs.ArmWidth, arm)
		screen.StrokeLine(cx, 0, cx, y, gs.CableWidth, gs.CableColor.OrDefault(colornames.Dimgray))
	}

	hud := r.tuning.HUD
	hudColor := hud.Color.OrDefault(colornames.Black)
	screen.Text(fmt.Sprintf("Score: %d", round.Score), hud.ScoreX, hud.Baseline, hudColor)
	screen.Text(fmt.Sprintf("Time: %ds", round.Remaining), r.tuning.Playfield.Width-hud.TimeInset, hud.Baseline, hudColor)
}
