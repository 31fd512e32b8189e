package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
)

const jpegQuality = 85

// Orientation returns the EXIF orientation tag of JPEG data, 1 when absent.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// Normalize bakes the EXIF orientation into a JPEG and shrinks it so neither
// side exceeds maxDimension. Data that needs neither is returned unchanged.
// The output carries no EXIF block, so embedded GPS tags are dropped as well.
func Normalize(data []byte, maxDimension int) ([]byte, error) {
	orientation := Orientation(data)

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode jpeg: %w", err)
	}

	b := img.Bounds()
	if orientation == 1 && !exceeds(b, maxDimension) {
		return data, nil
	}

	img = Orient(img, orientation)
	if exceeds(img.Bounds(), maxDimension) {
		img = fit(img, maxDimension)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func exceeds(b image.Rectangle, maxDimension int) bool {
	return maxDimension > 0 && (b.Dx() > maxDimension || b.Dy() > maxDimension)
}

// fit scales img down, preserving its aspect ratio.
func fit(img image.Image, maxDimension int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w >= h {
		h = max(1, h*maxDimension/w)
		w = maxDimension
	} else {
		w = max(1, w*maxDimension/h)
		h = maxDimension
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Orient returns img transformed so that it displays upright for the given
// EXIF orientation.
func Orient(img image.Image, orientation int) image.Image {
	if orientation < 2 || orientation > 8 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dw, dh := w, h
	if orientation >= 5 {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := orientedPoint(orientation, x, y, w, h)
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func orientedPoint(orientation, x, y, w, h int) (int, int) {
	switch orientation {
	case 2: // mirror
		return w - 1 - x, y
	case 3: // rotate 180
		return w - 1 - x, h - 1 - y
	case 4: // flip
		return x, h - 1 - y
	case 5: // transpose
		return y, x
	case 6: // rotate 90 clockwise
		return h - 1 - y, x
	case 7: // transverse
		return h - 1 - y, w - 1 - x
	case 8: // rotate 90 counter-clockwise
		return y, w - 1 - x
	}
	return x, y
}
