package badge

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var face = basicfont.Face7x13

// lineHeight is the unscaled height of one line of text.
var lineHeight = face.Height

// drawText draws s centered horizontally with its top at y. The bitmap
// font is rendered at its native size and enlarged by scale, shrinking the
// scale when the text would not fit between the margins.
func drawText(dst *image.NRGBA, s string, y, scale int, col color.Color) *image.NRGBA {
	w := font.MeasureString(face, s).Ceil()
	if w == 0 {
		return dst
	}
	for scale > 1 && w*scale > Width-2*margin {
		scale--
	}

	txt := image.NewNRGBA(image.Rect(0, 0, w, lineHeight))
	d := font.Drawer{
		Dst:  txt,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(s)

	big := imaging.Resize(txt, w*scale, lineHeight*scale, imaging.NearestNeighbor)
	x := (Width - big.Bounds().Dx()) / 2
	if x < 0 {
		x = 0
	}
	return imaging.Overlay(dst, big, image.Pt(x, y), 1.0)
}
