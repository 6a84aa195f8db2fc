package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dharsanguruparan/DocShift/internal/model"
	pdfutil "github.com/dharsanguruparan/DocShift/internal/pdf"
	"github.com/dharsanguruparan/DocShift/internal/raster"
)

// MinNativeText is the number of characters below which a PDF's text layer
// is treated as missing and the document is read with OCR instead.
const MinNativeText = 50

// OCRPlaceholder is returned when a PDF has no usable text layer and OCR
// could not read it either.
const OCRPlaceholder = "[OCR could not extract text from this document]"

var (
	errTooLittleText = errors.New("text layer too small")
	errNoRasterizer  = errors.New("no page renderer configured")
	errNoOCRText     = errors.New("ocr found no text")
)

// stageStatus tags the outcome of one step of the text pipeline.
type stageStatus int

const (
	stageOK stageStatus = iota
	stageRecoverable
	stageFatal
)

type stageResult struct {
	status stageStatus
	text   string
	err    error
}

func ok(text string) stageResult {
	return stageResult{status: stageOK, text: text}
}

func recoverable(err error) stageResult {
	return stageResult{status: stageRecoverable, err: err}
}

func fatal(err error) stageResult {
	return stageResult{status: stageFatal, err: err}
}

// pdfText reads a PDF's text layer and falls back to OCR when the layer is
// missing or unreadable. Fast fidelity never pays for OCR: it returns whatever
// the text layer has and surfaces extraction errors. An OCR failure is not an
// error; the placeholder text is returned instead.
func (e *Engine) pdfText(ctx context.Context, j *job) (string, error) {
	native := e.nativeText(j)
	switch native.status {
	case stageOK:
		j.progress.report(80)
		return native.text, nil
	case stageRecoverable:
		j.log.Info("falling back to ocr", slog.String("reason", native.err.Error()))
	default:
		return "", fail("could not extract PDF text", native.err)
	}
	j.progress.report(30)

	res := e.ocrText(ctx, j)
	switch res.status {
	case stageOK:
		j.progress.report(80)
		return res.text, nil
	case stageRecoverable:
		j.log.Warn("ocr failed, using placeholder", slog.String("reason", res.err.Error()))
		j.progress.report(80)
		return OCRPlaceholder, nil
	default:
		return "", res.err
	}
}

func (e *Engine) nativeText(j *job) stageResult {
	fast := j.settings.Fidelity == model.FidelityFast
	pages, err := pdfutil.ExtractPages(j.file.Data)
	if err != nil {
		if fast {
			return fatal(err)
		}
		return recoverable(err)
	}
	ordered := j.settings.Fidelity == model.FidelityBest
	texts := make([]string, len(pages))
	chars := 0
	for i, p := range pages {
		texts[i] = p.Text(ordered)
		chars += utf8.RuneCountInString(strings.TrimSpace(texts[i]))
	}
	if chars < MinNativeText && !fast {
		return recoverable(fmt.Errorf("%w: %d characters", errTooLittleText, chars))
	}
	return ok(joinPages(texts))
}

// ocrText renders every page and runs recognition on it. Pages that fail are
// left empty; the stage only fails when no page produced text.
func (e *Engine) ocrText(ctx context.Context, j *job) stageResult {
	if e.rasterizer == nil {
		return recoverable(errNoRasterizer)
	}
	n, err := e.rasterizer.PageCount(j.file.Data)
	if err != nil {
		return recoverable(fmt.Errorf("open pdf for ocr: %w", err))
	}
	texts := make([]string, n)
	var lastErr error
	found := false
	for page := 1; page <= n; page++ {
		if err := ctx.Err(); err != nil {
			return fatal(err)
		}
		text, err := e.recognizePage(ctx, j.file.Data, page)
		if err != nil {
			lastErr = err
			j.log.Debug("ocr page failed", slog.Int("page", page), slog.Any("error", err))
		}
		texts[page-1] = text
		if strings.TrimSpace(text) != "" {
			found = true
		}
		j.progress.span(30, 75, page, n)
	}
	if !found {
		if lastErr != nil {
			return recoverable(lastErr)
		}
		return recoverable(errNoOCRText)
	}
	return ok(joinPages(texts))
}

func (e *Engine) recognizePage(ctx context.Context, data []byte, page int) (string, error) {
	img, err := e.rasterizer.RenderPage(data, page)
	if err != nil {
		return "", err
	}
	encoded, err := e.codec.Encode(img, raster.EncodingPNG, 0)
	if err != nil {
		return "", err
	}
	return e.recognizer.Recognize(ctx, encoded)
}

// joinPages puts a "--- Page N ---" line before each page when there is more
// than one.
func joinPages(texts []string) string {
	if len(texts) == 1 {
		return strings.TrimSpace(texts[0])
	}
	parts := make([]string, len(texts))
	for i, t := range texts {
		parts[i] = fmt.Sprintf("--- Page %d ---\n%s", i+1, strings.TrimSpace(t))
	}
	return strings.Join(parts, "\n\n")
}
