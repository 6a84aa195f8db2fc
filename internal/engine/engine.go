// Package engine converts one file at a time into a target format. Convert
// validates the request, returns inputs that are already in the target format
// untouched, and otherwise dispatches to a converter per target format.
package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dharsanguruparan/DocShift/internal/classify"
	"github.com/dharsanguruparan/DocShift/internal/compat"
	"github.com/dharsanguruparan/DocShift/internal/model"
	"github.com/dharsanguruparan/DocShift/internal/ocr"
	"github.com/dharsanguruparan/DocShift/internal/raster"
)

// Engine holds the capabilities converters need. It keeps no per-file state,
// so one Engine can serve any number of sequential conversions.
type Engine struct {
	codec      raster.Codec
	rasterizer raster.Rasterizer
	recognizer ocr.Recognizer
	layout     TextLayout
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCodec replaces the image codec.
func WithCodec(c raster.Codec) Option {
	return func(e *Engine) {
		if c != nil {
			e.codec = c
		}
	}
}

// WithRasterizer replaces the PDF page renderer used for image export and OCR.
func WithRasterizer(r raster.Rasterizer) Option {
	return func(e *Engine) {
		if r != nil {
			e.rasterizer = r
		}
	}
}

// WithRecognizer sets the OCR backend.
func WithRecognizer(r ocr.Recognizer) Option {
	return func(e *Engine) {
		if r != nil {
			e.recognizer = r
		}
	}
}

// WithTextLayout overrides page geometry for text flowed into PDFs.
func WithTextLayout(l TextLayout) Option {
	return func(e *Engine) {
		e.layout = l.normalize()
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds an Engine. Without options it decodes images with the standard
// codec, renders pages with MuPDF and has OCR disabled.
func New(opts ...Option) *Engine {
	e := &Engine{
		codec:      raster.StdCodec{},
		rasterizer: raster.NewFitz(raster.DefaultDPI),
		recognizer: ocr.Disabled{},
		layout:     DefaultTextLayout(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// job is the state of one Convert call.
type job struct {
	file     model.FileRef
	info     model.FileTypeInfo
	target   model.Format
	settings model.PreservationSettings
	progress *progress
	log      *slog.Logger
}

type converter func(ctx context.Context, j *job) (*model.Blob, error)

// Convert turns file into target. onProgress may be nil; when set it sees a
// strictly increasing sequence ending at 100 on success. settings may be nil
// for defaults and is never modified.
//
// Requests the compatibility rules reject fail before any progress is
// reported. Files already in the target format come back byte for byte with
// a single progress report of 100.
func (e *Engine) Convert(ctx context.Context, file model.FileRef, target model.Format, onProgress func(int), settings *model.PreservationSettings) (*model.Blob, error) {
	info := classify.Classify(file)
	if msg := compat.ConversionError(info, target); msg != "" {
		return nil, &ConversionError{Kind: KindValidation, File: file.Name, Target: target, Reason: msg}
	}

	j := &job{
		file:     file,
		info:     info,
		target:   target,
		settings: model.ResolveSettings(settings),
		progress: newProgress(onProgress),
		log:      e.logger.With(slog.String("file", file.Name), slog.String("target", string(target))),
	}

	j.log.Debug("converting",
		slog.String("fidelity", string(j.settings.Fidelity)),
		slog.String("pdf_forms", string(j.settings.PDFForms)),
		slog.String("docx_changes", string(j.settings.DocxChanges)),
		slog.String("comments", string(j.settings.Comments)),
		slog.String("image_handling", string(j.settings.ImageHandling)))

	if alreadyTarget(info, target) {
		j.log.Debug("input already in target format")
		j.progress.report(100)
		return &model.Blob{Name: outputName(file, target), MIMEType: target.MIMEType(), Data: file.Data}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, &ConversionError{Kind: KindConversion, File: file.Name, Target: target, Err: err}
	}

	blob, err := e.converterFor(target)(ctx, j)
	if err != nil {
		j.log.Warn("conversion failed", slog.Any("error", err))
		return nil, asConversionError(file, target, err)
	}
	j.progress.report(100)
	j.log.Debug("conversion finished", slog.Int("bytes", len(blob.Data)))
	return blob, nil
}

// converterFor is the dispatch table. Every Format has exactly one entry.
func (e *Engine) converterFor(f model.Format) converter {
	switch f {
	case model.FormatPDF:
		return e.toPDF
	case model.FormatPNG, model.FormatJPG:
		return e.toImage
	case model.FormatTXT:
		return e.toText
	case model.FormatCSV:
		return e.toCSV
	case model.FormatDOCX:
		return e.toDOCX
	default:
		return func(context.Context, *job) (*model.Blob, error) {
			return nil, fail("unsupported target format", nil)
		}
	}
}

// alreadyTarget reports whether the input needs no conversion at all.
func alreadyTarget(info model.FileTypeInfo, target model.Format) bool {
	switch target {
	case model.FormatPDF:
		return info.Category == model.CategoryPDF
	case model.FormatPNG:
		return info.Category == model.CategoryImage && info.Extension == "png"
	case model.FormatJPG:
		return info.Category == model.CategoryImage && (info.Extension == "jpg" || info.Extension == "jpeg")
	case model.FormatTXT:
		return info.Category == model.CategoryText && info.Extension == "txt"
	case model.FormatCSV:
		return info.Extension == "csv"
	case model.FormatDOCX:
		return false
	default:
		return false
	}
}

func outputName(file model.FileRef, target model.Format) string {
	return file.BaseName() + "." + target.Extension()
}

func asConversionError(file model.FileRef, target model.Format, err error) *ConversionError {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce
	}
	out := &ConversionError{Kind: KindConversion, File: file.Name, Target: target}
	var f *failure
	if errors.As(err, &f) {
		out.Reason = f.reason
		out.Err = f.err
		return out
	}
	out.Err = err
	return out
}

func (j *job) blob(data []byte) *model.Blob {
	return &model.Blob{Name: outputName(j.file, j.target), MIMEType: j.target.MIMEType(), Data: data}
}
