package vision

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	matchedColor   = color.NRGBA{G: 255, A: 255}
	unmatchedColor = color.NRGBA{R: 255, A: 255}
)

const boxThickness = 2

// Canvas clones a decoded frame into a drawable image for annotation.
func Canvas(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// DrawBox draws a bounding box and its label onto the canvas. Matched
// detections are green, unmatched red. The label sits just above the box.
func DrawBox(canvas *image.NRGBA, box image.Rectangle, label string, matched bool) {
	c := unmatchedColor
	if matched {
		c = matchedColor
	}

	box = box.Intersect(canvas.Bounds())
	if box.Empty() {
		return
	}

	for t := 0; t < boxThickness; t++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			canvas.SetNRGBA(x, box.Min.Y+t, c)
			canvas.SetNRGBA(x, box.Max.Y-1-t, c)
		}
		for y := box.Min.Y; y < box.Max.Y; y++ {
			canvas.SetNRGBA(box.Min.X+t, y, c)
			canvas.SetNRGBA(box.Max.X-1-t, y, c)
		}
	}

	if label == "" {
		return
	}
	labelY := box.Min.Y - 5
	if labelY < basicfont.Face7x13.Height {
		labelY = box.Min.Y + basicfont.Face7x13.Height
	}
	d := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(box.Min.X, labelY),
	}
	d.DrawString(label)
}
