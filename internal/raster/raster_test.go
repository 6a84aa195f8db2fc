package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/DocShift/internal/testutil"
)

func TestStdCodecRoundTrip(t *testing.T) {
	codec := StdCodec{}
	img, format, err := codec.Decode(testutil.PNG(t, 12, 7))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 12, img.Bounds().Dx())
	assert.Equal(t, 7, img.Bounds().Dy())

	jpg, err := codec.Encode(img, EncodingJPEG, 80)
	require.NoError(t, err)
	w, h, err := codec.Dimensions(jpg)
	require.NoError(t, err)
	assert.Equal(t, [2]int{12, 7}, [2]int{w, h})

	_, err = codec.Encode(img, Encoding("gif"), 0)
	assert.Error(t, err)

	_, _, err = codec.Decode([]byte("nope"))
	assert.Error(t, err)
}

func TestReadOrientationWithoutExif(t *testing.T) {
	assert.Equal(t, OrientNormal, ReadOrientation(testutil.PNG(t, 2, 2)))
	assert.Equal(t, OrientNormal, ReadOrientation(testutil.JPEG(t, 2, 2)))
	assert.Equal(t, OrientNormal, ReadOrientation(nil))
}

func TestOrientMovesCorner(t *testing.T) {
	src := testutil.Image(4, 2) // dark pixel at (0,0)
	dark := color.RGBAModel.Convert(color.NRGBA{A: 255})

	tests := []struct {
		o      Orientation
		w, h   int
		corner image.Point
	}{
		{OrientRotate90, 2, 4, image.Pt(1, 0)},
		{OrientRotate180, 4, 2, image.Pt(3, 1)},
		{OrientRotate270, 2, 4, image.Pt(0, 3)},
		{OrientFlipH, 4, 2, image.Pt(3, 0)},
		{OrientTranspose, 2, 4, image.Pt(0, 0)},
	}
	for _, tt := range tests {
		out := Orient(src, tt.o)
		assert.Equal(t, tt.w, out.Bounds().Dx(), "orientation %d", tt.o)
		assert.Equal(t, tt.h, out.Bounds().Dy(), "orientation %d", tt.o)
		assert.Equal(t, dark, color.RGBAModel.Convert(out.At(tt.corner.X, tt.corner.Y)), "orientation %d", tt.o)
	}
	assert.Same(t, src, Orient(src, OrientNormal))
}

func TestRotate(t *testing.T) {
	src := testutil.Image(3, 1)
	assert.Equal(t, 1, Rotate(src, 90).Bounds().Dx())
	assert.Equal(t, 3, Rotate(src, -180).Bounds().Dx())
	assert.Same(t, src, Rotate(src, 360))
}

func TestFlattenFillsTransparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	out := Flatten(img, color.White)
	r, g, b, a := out.At(1, 1).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0xffff, 0xffff, 0xffff}, [4]uint32{r, g, b, a})
}

func TestThumbnail(t *testing.T) {
	src := testutil.Image(400, 100)
	thumb := Thumbnail(src, 80)
	assert.Equal(t, image.Rect(0, 0, 80, 20), thumb.Bounds())

	tall := Thumbnail(testutil.Image(10, 300), 60)
	assert.Equal(t, image.Rect(0, 0, 2, 60), tall.Bounds())

	small := testutil.Image(5, 5)
	assert.Same(t, small, Thumbnail(small, 80))
	assert.Same(t, small, Thumbnail(small, 0))
}
