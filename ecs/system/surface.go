package system

import "image/color"

// Surface is the 2-D target the render system draws on. Coordinates are
// playfield units with the origin at the top-left corner.
type Surface interface {
	FillCircle(cx, cy, r float64, clr color.Color)
	StrokeCircle(cx, cy, r, width float64, clr color.Color)
	StrokeLine(x0, y0, x1, y1, width float64, clr color.Color)
	Text(s string, x, y float64, clr color.Color)
}
