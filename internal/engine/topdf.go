package engine

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/dharsanguruparan/DocShift/internal/model"
	"github.com/dharsanguruparan/DocShift/internal/office"
	"github.com/dharsanguruparan/DocShift/internal/raster"
)

// SpreadsheetRowLimit caps how many rows of a sheet end up in a PDF. Only
// one page is produced; rows that do not fit are dropped silently.
const SpreadsheetRowLimit = 50

const presentationPlaceholder = "Presentation preview is not available.\n\n" +
	"Slides from %s could not be rendered. This page is a placeholder; " +
	"export the presentation to PDF from the application that created it for a faithful copy."

func (e *Engine) toPDF(ctx context.Context, j *job) (*model.Blob, error) {
	j.progress.report(10)
	switch j.info.Category {
	case model.CategoryImage:
		data, err := e.imageToPDF(j)
		if err != nil {
			return nil, err
		}
		return j.blob(data), nil
	case model.CategoryDocument:
		text, err := office.ExtractText(j.file, office.OptionsFrom(j.settings))
		if err != nil {
			return nil, fail("could not read document text", err)
		}
		j.progress.report(50)
		return e.textPDF(j, text, false)
	case model.CategorySpreadsheet:
		rows, err := office.FirstSheet(j.file)
		if err != nil {
			return nil, fail("could not read spreadsheet", err)
		}
		if len(rows) > SpreadsheetRowLimit {
			rows = rows[:SpreadsheetRowLimit]
		}
		text, err := office.CSV(rows)
		if err != nil {
			return nil, fail("could not render spreadsheet", err)
		}
		j.progress.report(50)
		return e.textPDF(j, text, true)
	case model.CategoryText:
		j.progress.report(50)
		return e.textPDF(j, decodeText(j.file.Data), false)
	case model.CategoryPresentation:
		j.log.Info("presentation rendered as placeholder page")
		return e.textPDF(j, fmt.Sprintf(presentationPlaceholder, j.file.Name), true)
	case model.CategoryPDF:
		return j.blob(j.file.Data), nil
	case model.CategoryUnknown:
		return nil, fail("unsupported input", nil)
	default:
		return nil, fail("unsupported input", nil)
	}
}

func (e *Engine) textPDF(j *job, text string, singlePage bool) (*model.Blob, error) {
	data, err := e.layout.renderText(text, singlePage)
	if err != nil {
		return nil, fail("could not write PDF", err)
	}
	j.progress.report(90)
	return j.blob(data), nil
}

// imageToPDF embeds the image on a single page whose size in points equals
// the image size in pixels.
func (e *Engine) imageToPDF(j *job) ([]byte, error) {
	img, format, err := e.codec.Decode(j.file.Data)
	if err != nil {
		return nil, fail("could not decode image", err)
	}
	j.progress.report(40)

	enc, quality := raster.EncodingPNG, 0
	switch j.settings.ImageHandling {
	case model.ImageLossy:
		enc, quality = raster.EncodingJPEG, j.settings.ImageQuality
	case model.ImageAuto:
		if format == "jpeg" {
			enc, quality = raster.EncodingJPEG, defaultJPEGQuality
		}
	case model.ImageLossless:
	}
	src := img
	if enc == raster.EncodingJPEG {
		src = raster.Flatten(img, color.White)
	}
	data, err := e.codec.Encode(src, enc, quality)
	if err != nil {
		return nil, fail("could not encode image", err)
	}
	j.progress.report(70)

	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())
	doc := fpdf.NewCustom(&fpdf.InitType{OrientationStr: "P", UnitStr: "pt", Size: fpdf.SizeType{Wd: w, Ht: h}})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	opts := fpdf.ImageOptions{ImageType: fpdfImageType(enc)}
	doc.RegisterImageOptionsReader("page", opts, bytes.NewReader(data))
	doc.ImageOptions("page", 0, 0, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fail("could not write PDF", err)
	}
	return buf.Bytes(), nil
}

func fpdfImageType(enc raster.Encoding) string {
	if enc == raster.EncodingJPEG {
		return "JPG"
	}
	return "PNG"
}

// decodeText returns data as valid UTF-8, dropping a byte order mark.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	return strings.ToValidUTF8(string(data), "�")
}
