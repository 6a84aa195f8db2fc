// Package raster decodes, re-encodes and renders pixel images. The conversion
// core only sees the Codec and Rasterizer interfaces so tests can swap in
// fakes.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"

	// Blank imports register decoders with image.Decode.
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Encoding is an output pixel format.
type Encoding string

const (
	EncodingPNG  Encoding = "png"
	EncodingJPEG Encoding = "jpeg"
)

// MaxQuality is the quality used for lossless-leaning JPEG output.
const MaxQuality = 100

// Codec turns encoded bytes into pixels and back.
type Codec interface {
	// Decode returns the upright image and the name of the source format.
	Decode(data []byte) (image.Image, string, error)
	// Encode writes img in the given encoding. quality only affects JPEG.
	Encode(img image.Image, enc Encoding, quality int) ([]byte, error)
	// Dimensions returns the upright pixel size without decoding pixels.
	Dimensions(data []byte) (int, int, error)
}

// StdCodec implements Codec with the standard library decoders plus the
// golang.org/x/image ones, honouring EXIF orientation.
type StdCodec struct{}

var _ Codec = StdCodec{}

// Decode implements Codec.
func (StdCodec) Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	if o := ReadOrientation(data); o != OrientNormal {
		img = Orient(img, o)
	}
	return img, format, nil
}

// Encode implements Codec.
func (StdCodec) Encode(img image.Image, enc Encoding, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch enc {
	case EncodingPNG:
		encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case EncodingJPEG:
		if quality <= 0 {
			quality = 1
		}
		if quality > MaxQuality {
			quality = MaxQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
	return buf.Bytes(), nil
}

// Dimensions implements Codec.
func (StdCodec) Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	if ReadOrientation(data).Transposes() {
		return cfg.Height, cfg.Width, nil
	}
	return cfg.Width, cfg.Height, nil
}

// Flatten draws img over an opaque background of the same size. JPEG has no
// alpha channel, so transparent pixels would otherwise turn black.
func Flatten(img image.Image, bg color.Color) *image.RGBA {
	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Over)
	return canvas
}

// Canvas copies img onto a fresh RGBA canvas of its native size.
func Canvas(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)
	return canvas
}
