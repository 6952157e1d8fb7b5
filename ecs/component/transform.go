package component

// Transform is a position on the playfield. For collectibles X is the left
// edge of the piece; for the grabber it is the left edge of the claw body.
type Transform struct {
	X float64
	Y float64
}

var TransformComponent = NewComponent[Transform]()
