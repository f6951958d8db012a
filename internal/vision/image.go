package vision

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// ThumbnailSize is the edge length of a match report snapshot.
	ThumbnailSize = 200

	noSignalWidth  = 640
	noSignalHeight = 480
)

// DecodeImage decodes an encoded image (JPEG or PNG) into memory.
func DecodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}
	return img, nil
}

// EncodeJPEG encodes an image as JPEG bytes.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return nil, errors.Wrap(err, "failed to encode jpeg")
	}
	return buf.Bytes(), nil
}

// ResizeMax scales an image down so its longest side is at most maxSize,
// preserving aspect ratio. Images already small enough pass through.
func ResizeMax(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxSize && b.Dy() <= maxSize {
		return img
	}
	return imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
}

// Thumbnail squashes an image to the fixed snapshot size used in match
// reports, ignoring aspect ratio.
func Thumbnail(img image.Image) image.Image {
	return imaging.Resize(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)
}

// Crop returns the portion of img inside rect, clamped to the image bounds.
// The second result is false when the clamped region is empty.
func Crop(img image.Image, rect image.Rectangle) (image.Image, bool) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return nil, false
	}
	return imaging.Crop(img, rect), true
}

// NoSignalFrame renders the static placeholder published for a camera that
// could not be opened at startup.
func NoSignalFrame() image.Image {
	img := imaging.New(noSignalWidth, noSignalHeight, color.NRGBA{A: 255})
	d := font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot: fixed.P(
			noSignalWidth/2-30,
			noSignalHeight/2,
		),
	}
	d.DrawString("No Signal")
	return img
}
