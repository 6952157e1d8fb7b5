package component

import "github.com/google/uuid"

// Collectible is one falling gold piece.
type Collectible struct {
	ID uuid.UUID
	// Seq is the spawn order; capture checks and drawing follow it.
	Seq    uint64
	Radius float64
	// Captured is set exactly once and never cleared.
	Captured bool
}

// CenterX returns the horizontal centre of a piece whose left edge is at x.
func (c *Collectible) CenterX(x float64) float64 {
	return x + c.Radius
}

var CollectibleComponent = NewComponent[Collectible]()
