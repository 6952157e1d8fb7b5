package component

// Round is the single timed play session of a world.
type Round struct {
	// Duration and Remaining count whole seconds.
	Duration  int
	Remaining int
	Score     int
	Active    bool
}

var RoundComponent = NewComponent[Round]()
