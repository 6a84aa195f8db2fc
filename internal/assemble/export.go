package assemble

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/dharsanguruparan/DocShift/internal/model"
	"github.com/dharsanguruparan/DocShift/internal/raster"
)

const (
	defaultMergeName = "merged.pdf"
	// ocrFontSize is the point size of the invisible text layer.
	ocrFontSize = 4.0
	// ocrStamp places recognised text as a transparent watermark in the top
	// left corner of a PDF page.
	ocrStamp = "font:Helvetica, points:4, scale:1 abs, opacity:0, rotation:0, position:tl"
)

// ExportOptions controls Export. ImageQuality recompresses image pages as
// JPEG at that quality; zero keeps the original encoding.
type ExportOptions struct {
	OCR          bool
	ImageQuality int
	Filename     string
}

// ExportResult is the assembled PDF plus what happened on the way.
type ExportResult struct {
	Blob *model.Blob
	// AutoSplit is set when multi-page documents were expanded to pages.
	AutoSplit bool
	Pages     int
	// OCRSkipped counts pages that got no text layer although OCR was on.
	OCRSkipped int
}

// Export assembles pages, in list order, into a single PDF. onProgress gets
// the share of pages assembled so far as a percentage, after each page
// including its OCR pass. A page whose OCR fails is exported without a text
// layer.
func (a *Assembler) Export(ctx context.Context, pages []model.PageData, opts ExportOptions, onProgress func(int)) (*ExportResult, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	units, autoSplit, err := a.PrepareMerge(pages)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, u := range units {
		total += u.PageCount()
	}

	res := &ExportResult{AutoSplit: autoSplit}
	report := progressFunc(onProgress, total)
	step := func() {
		res.Pages++
		report(res.Pages)
	}

	parts := make([][]byte, 0, len(units))
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log := a.logger.With(slog.String("file", u.Filename), slog.String("page", u.ID))
		var (
			data []byte
			err  error
		)
		switch u.Kind {
		case model.PageKindPDF:
			data, err = a.pdfUnit(ctx, u, opts, res, step, log)
		case model.PageKindImage:
			data, err = a.imageUnit(ctx, u, opts, res, log)
			if err == nil {
				step()
			}
		default:
			err = fmt.Errorf("%w: page kind %q", ErrUnsupported, u.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("assemble %s: %w", u.Filename, err)
		}
		parts = append(parts, data)
	}

	merged, err := mergeParts(parts)
	if err != nil {
		return nil, fmt.Errorf("merge pages: %w", err)
	}
	res.Blob = &model.Blob{Name: pdfName(opts.Filename, defaultMergeName), MIMEType: model.MIMEPDF, Data: merged}
	return res, nil
}

// pdfUnit copies the unit's page (or every page of a whole document) out of
// its source, applies the rotation and stamps an OCR layer when asked.
func (a *Assembler) pdfUnit(ctx context.Context, u model.PageData, opts ExportOptions, res *ExportResult, step func(), log *slog.Logger) ([]byte, error) {
	data := u.Source.Data
	var sourcePages []int
	if u.WholeDocument() {
		n, err := pageCount(data)
		if err != nil {
			return nil, fmt.Errorf("count pages: %w", err)
		}
		for i := 1; i <= n; i++ {
			sourcePages = append(sourcePages, i)
		}
	} else {
		var err error
		data, err = transform(data, func(rs io.ReadSeeker, w io.Writer, conf *pdfmodel.Configuration) error {
			return api.Collect(rs, w, []string{strconv.Itoa(u.PageNumber)}, conf)
		})
		if err != nil {
			return nil, fmt.Errorf("copy page %d: %w", u.PageNumber, err)
		}
		sourcePages = []int{u.PageNumber}
	}

	if u.Rotation != 0 {
		rotated, err := transform(data, func(rs io.ReadSeeker, w io.Writer, conf *pdfmodel.Configuration) error {
			return api.Rotate(rs, w, int(u.Rotation), nil, conf)
		})
		if err != nil {
			return nil, fmt.Errorf("rotate: %w", err)
		}
		data = rotated
	}

	for i, src := range sourcePages {
		if opts.OCR {
			data = a.stampText(ctx, u, data, i+1, src, res, log)
		}
		step()
	}
	return data, nil
}

// stampText recognises source page src and writes the text invisibly onto
// page idx of data. Failures leave data untouched.
func (a *Assembler) stampText(ctx context.Context, u model.PageData, data []byte, idx, src int, res *ExportResult, log *slog.Logger) []byte {
	text := a.recognize(ctx, u, src, log)
	if text == "" {
		res.OCRSkipped++
		return data
	}
	wm, err := api.TextWatermark(text, ocrStamp, true, false, types.POINTS)
	if err != nil {
		log.Warn("could not build text layer", slog.Int("page", src), slog.Any("error", err))
		res.OCRSkipped++
		return data
	}
	stamped, err := transform(data, func(rs io.ReadSeeker, w io.Writer, conf *pdfmodel.Configuration) error {
		return api.AddWatermarks(rs, w, []string{strconv.Itoa(idx)}, wm, conf)
	})
	if err != nil {
		log.Warn("could not add text layer", slog.Int("page", src), slog.Any("error", err))
		res.OCRSkipped++
		return data
	}
	return stamped
}

// imageUnit puts one image on a page of its own pixel size, turned by the
// unit's rotation.
func (a *Assembler) imageUnit(ctx context.Context, u model.PageData, opts ExportOptions, res *ExportResult, log *slog.Logger) ([]byte, error) {
	img, format, err := a.codec.Decode(u.Source.Data)
	if err != nil {
		return nil, err
	}
	var (
		encoded   []byte
		imageType string
	)
	switch {
	case opts.ImageQuality > 0:
		encoded, err = a.codec.Encode(raster.Flatten(img, color.White), raster.EncodingJPEG, opts.ImageQuality)
		imageType = "JPG"
	case format == "jpeg" && raster.ReadOrientation(u.Source.Data) == raster.OrientNormal:
		encoded, imageType = u.Source.Data, "JPG"
	default:
		// fpdf reads 8-bit non-interlaced PNG only, so everything else is
		// redrawn onto an RGBA canvas first. This also bakes in EXIF
		// orientation.
		encoded, err = a.codec.Encode(raster.Canvas(img), raster.EncodingPNG, 0)
		imageType = "PNG"
	}
	if err != nil {
		return nil, err
	}

	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())
	pw, ph := w, h
	if u.Rotation.Swaps() {
		pw, ph = h, w
	}
	doc := fpdf.NewCustom(&fpdf.InitType{OrientationStr: "P", UnitStr: "pt", Size: fpdf.SizeType{Wd: pw, Ht: ph}})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	imgOpts := fpdf.ImageOptions{ImageType: imageType}
	doc.RegisterImageOptionsReader("page", imgOpts, bytes.NewReader(encoded))
	// fpdf turns counter-clockwise; rotations are clockwise.
	cx, cy := pw/2, ph/2
	doc.TransformBegin()
	doc.TransformRotate(-float64(u.Rotation), cx, cy)
	doc.ImageOptions("page", cx-w/2, cy-h/2, w, h, false, imgOpts, 0, "")
	doc.TransformEnd()

	if opts.OCR {
		if text := a.recognize(ctx, u, 1, log); text != "" {
			tr := doc.UnicodeTranslatorFromDescriptor("")
			doc.SetAlpha(0, "Normal")
			doc.SetFont("Helvetica", "", ocrFontSize)
			doc.SetXY(0, 0)
			doc.MultiCell(pw, ocrFontSize*1.2, tr(text), "", "L", false)
			doc.SetAlpha(1, "Normal")
		} else {
			res.OCRSkipped++
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// recognize runs OCR for one page of a unit. Images are read from their
// original bytes; PDF pages use the unit's thumbnail when it shows that page
// and are rendered otherwise. Errors are logged and give an empty string.
func (a *Assembler) recognize(ctx context.Context, u model.PageData, page int, log *slog.Logger) string {
	var input []byte
	switch {
	case u.Kind == model.PageKindImage:
		input = u.Source.Data
	case len(u.Thumbnail) > 0 && page == u.PageNumber:
		input = u.Thumbnail
	default:
		img, err := a.rasterizer.RenderPage(u.Source.Data, page)
		if err != nil {
			log.Warn("ocr skipped, page not rendered", slog.Int("page", page), slog.Any("error", err))
			return ""
		}
		if input, err = a.codec.Encode(img, raster.EncodingPNG, 0); err != nil {
			log.Warn("ocr skipped, page not encoded", slog.Int("page", page), slog.Any("error", err))
			return ""
		}
	}
	text, err := a.recognizer.Recognize(ctx, input)
	if err != nil {
		log.Warn("ocr failed", slog.Int("page", page), slog.Any("error", err))
		return ""
	}
	return strings.TrimSpace(text)
}

// mergeParts concatenates single-unit PDFs in order.
func mergeParts(parts [][]byte) ([]byte, error) {
	if len(parts) == 1 {
		return parts[0], nil
	}
	readers := make([]io.ReadSeeker, len(parts))
	for i, p := range parts {
		readers[i] = bytes.NewReader(p)
	}
	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, pdfConfig()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pdfName returns name with a .pdf extension, or fallback when name is
// blank.
func pdfName(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
