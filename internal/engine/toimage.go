package engine

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/dharsanguruparan/DocShift/internal/archive"
	"github.com/dharsanguruparan/DocShift/internal/model"
	"github.com/dharsanguruparan/DocShift/internal/raster"
)

const defaultJPEGQuality = 85

// imageQuality maps the image handling setting onto an encoder quality.
// PNG output is always lossless and ignores it.
func imageQuality(s model.PreservationSettings) int {
	switch s.ImageHandling {
	case model.ImageLossless:
		return raster.MaxQuality
	case model.ImageLossy:
		return s.ImageQuality
	case model.ImageAuto:
		return defaultJPEGQuality
	default:
		return defaultJPEGQuality
	}
}

func (e *Engine) toImage(ctx context.Context, j *job) (*model.Blob, error) {
	j.progress.report(10)
	switch j.info.Category {
	case model.CategoryImage:
		img, _, err := e.codec.Decode(j.file.Data)
		if err != nil {
			return nil, fail("could not decode image", err)
		}
		j.progress.report(50)
		data, err := e.encodeImage(img, j)
		if err != nil {
			return nil, err
		}
		return j.blob(data), nil
	case model.CategoryPDF:
		return e.pdfToImages(ctx, j)
	case model.CategoryDocument, model.CategorySpreadsheet, model.CategoryPresentation, model.CategoryText, model.CategoryUnknown:
		return nil, fail("unsupported input", nil)
	default:
		return nil, fail("unsupported input", nil)
	}
}

// encodeImage draws img on a canvas of its native size and encodes it in the
// job's target format. JPEG canvases are filled white first.
func (e *Engine) encodeImage(img image.Image, j *job) ([]byte, error) {
	var (
		canvas image.Image
		enc    raster.Encoding
	)
	if j.target == model.FormatJPG {
		canvas, enc = raster.Flatten(img, color.White), raster.EncodingJPEG
	} else {
		canvas, enc = raster.Canvas(img), raster.EncodingPNG
	}
	data, err := e.codec.Encode(canvas, enc, imageQuality(j.settings))
	if err != nil {
		return nil, fail("could not encode image", err)
	}
	return data, nil
}

// pdfToImages renders every page. A single page comes back as one image,
// more pages as a zip with one image per page.
func (e *Engine) pdfToImages(ctx context.Context, j *job) (*model.Blob, error) {
	n, err := e.rasterizer.PageCount(j.file.Data)
	if err != nil {
		return nil, fail("could not open PDF", err)
	}
	if n == 0 {
		return nil, fail("PDF has no pages", nil)
	}
	entries := make([]archive.Entry, 0, n)
	for page := 1; page <= n; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := e.rasterizer.RenderPage(j.file.Data, page)
		if err != nil {
			return nil, fail(fmt.Sprintf("could not render page %d", page), err)
		}
		data, err := e.encodeImage(img, j)
		if err != nil {
			return nil, err
		}
		entries = append(entries, archive.Entry{
			Name: fmt.Sprintf("%s-page-%d.%s", j.file.BaseName(), page, j.target.Extension()),
			Data: data,
		})
		j.progress.span(10, 90, page, n)
	}
	if len(entries) == 1 {
		return j.blob(entries[0].Data), nil
	}
	data, err := archive.Build(entries)
	if err != nil {
		return nil, fail("could not package pages", err)
	}
	return &model.Blob{Name: j.file.BaseName() + ".zip", MIMEType: model.MIMEZip, Data: data}, nil
}
