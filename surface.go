package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

var hudFace text.Face = text.NewGoXFace(basicfont.Face7x13)

// hudScale enlarges the bitmap font to roughly the playfield's 20px text.
const hudScale = 1.5

// screenSurface draws engine output onto an ebiten image.
type screenSurface struct {
	dst *ebiten.Image
}

func (s screenSurface) FillCircle(cx, cy, r float64, clr color.Color) {
	vector.FillCircle(s.dst, float32(cx), float32(cy), float32(r), clr, true)
}

func (s screenSurface) StrokeCircle(cx, cy, r, width float64, clr color.Color) {
	vector.StrokeCircle(s.dst, float32(cx), float32(cy), float32(r), float32(width), clr, true)
}

func (s screenSurface) StrokeLine(x0, y0, x1, y1, width float64, clr color.Color) {
	vector.StrokeLine(s.dst, float32(x0), float32(y0), float32(x1), float32(y1), float32(width), clr, true)
}

// Text draws s with its baseline at y.
func (s screenSurface) Text(str string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Scale(hudScale, hudScale)
	op.GeoM.Translate(x, y-hudFace.Metrics().HAscent*hudScale)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(s.dst, str, hudFace, op)
}
