package raster

import (
	"bytes"
	"image"

	exif "github.com/dsoprea/go-exif/v3"
)

// Orientation is the EXIF orientation tag value (1..8).
type Orientation int

const (
	OrientNormal     Orientation = 1
	OrientFlipH      Orientation = 2
	OrientRotate180  Orientation = 3
	OrientFlipV      Orientation = 4
	OrientTranspose  Orientation = 5
	OrientRotate90   Orientation = 6
	OrientTransverse Orientation = 7
	OrientRotate270  Orientation = 8
)

// Transposes reports whether displaying the image swaps width and height.
func (o Orientation) Transposes() bool {
	return o >= OrientTranspose && o <= OrientRotate270
}

// ReadOrientation reads the EXIF orientation of an encoded image. Images without
// EXIF data, or with unreadable EXIF data, are treated as upright.
func ReadOrientation(data []byte) (o Orientation) {
	// go-exif panics on some truncated headers.
	defer func() {
		if recover() != nil {
			o = OrientNormal
		}
	}()
	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(bytes.NewReader(data), nil, true)
	if err != nil {
		return OrientNormal
	}
	for _, tag := range tags {
		if tag.TagName != "Orientation" {
			continue
		}
		var v int
		switch val := tag.Value.(type) {
		case []uint16:
			if len(val) > 0 {
				v = int(val[0])
			}
		case uint16:
			v = int(val)
		}
		if v >= 1 && v <= 8 {
			return Orientation(v)
		}
	}
	return OrientNormal
}

// Orient returns img transformed so that it displays upright.
func Orient(img image.Image, o Orientation) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if o == OrientNormal || o < 1 || o > 8 {
		return img
	}
	dw, dh := w, h
	if o.Transposes() {
		dw, dh = h, w
	}
	out := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := x, y
			switch o {
			case OrientFlipH:
				dx, dy = w-1-x, y
			case OrientRotate180:
				dx, dy = w-1-x, h-1-y
			case OrientFlipV:
				dx, dy = x, h-1-y
			case OrientTranspose:
				dx, dy = y, x
			case OrientRotate90:
				dx, dy = h-1-y, x
			case OrientTransverse:
				dx, dy = h-1-y, w-1-x
			case OrientRotate270:
				dx, dy = y, w-1-x
			}
			out.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

// Rotate turns img clockwise by a multiple of 90 degrees.
func Rotate(img image.Image, degrees int) image.Image {
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		return Orient(img, OrientRotate90)
	case 180:
		return Orient(img, OrientRotate180)
	case 270:
		return Orient(img, OrientRotate270)
	default:
		return img
	}
}
