package component

// Grabber is the player's claw. Its horizontal position lives in the entity's
// Transform; Offset is how far the claw tip hangs below the top edge.
type Grabber struct {
	Width      float64
	Height     float64
	RestOffset float64
	Offset     float64
	Dropping   bool
}

// Retract returns the claw to its resting offset.
func (g *Grabber) Retract() {
	g.Dropping = false
	g.Offset = g.RestOffset
}

var GrabberComponent = NewComponent[Grabber]()
