package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/milk9111/goldrush/ecs/component"
)

// Held movement keys repeat like a browser keydown: once on press, then
// steadily after a short delay. Durations are in ticks.
const (
	keyRepeatDelay    = 15
	keyRepeatInterval = 3
)

var (
	leftKeys  = []ebiten.Key{ebiten.KeyArrowLeft, ebiten.KeyA}
	rightKeys = []ebiten.Key{ebiten.KeyArrowRight, ebiten.KeyD}
	dropKeys  = []ebiten.Key{ebiten.KeySpace, ebiten.KeyArrowDown, ebiten.KeyS}
)

// Keyboard polls the keyboard and the first gamepad for player actions.
type Keyboard struct {
	actions []component.Action
}

func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

// Poll returns the actions issued this tick. The slice is reused between
// calls.
func (k *Keyboard) Poll() []component.Action {
	k.actions = k.actions[:0]

	left, right, drop := keyDuration(leftKeys), keyDuration(rightKeys), 0
	for _, key := range dropKeys {
		if inpututil.IsKeyJustPressed(key) {
			drop = 1
		}
	}

	if ids := ebiten.AppendGamepadIDs(nil); len(ids) > 0 {
		gid := ids[0]
		left = max(left, inpututil.StandardGamepadButtonPressDuration(gid, ebiten.StandardGamepadButtonLeftLeft))
		right = max(right, inpututil.StandardGamepadButtonPressDuration(gid, ebiten.StandardGamepadButtonLeftRight))
		if inpututil.IsStandardGamepadButtonJustPressed(gid, ebiten.StandardGamepadButtonRightBottom) {
			drop = 1
		}
	}

	if repeating(left) {
		k.actions = append(k.actions, component.ActionMoveLeft)
	}
	if repeating(right) {
		k.actions = append(k.actions, component.ActionMoveRight)
	}
	if drop > 0 {
		k.actions = append(k.actions, component.ActionDrop)
	}
	return k.actions
}

func keyDuration(keys []ebiten.Key) int {
	d := 0
	for _, key := range keys {
		d = max(d, inpututil.KeyPressDuration(key))
	}
	return d
}

// repeating reports whether a key held for d ticks fires this tick.
func repeating(d int) bool {
	if d == 1 {
		return true
	}
	return d >= keyRepeatDelay && (d-keyRepeatDelay)%keyRepeatInterval == 0
}
