// Package assemble builds PDFs out of an ordered list of page units: whole
// documents, single pages of a PDF or images. It merges, splits and bursts;
// the page list itself belongs to the caller.
package assemble

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/dharsanguruparan/DocShift/internal/ocr"
	"github.com/dharsanguruparan/DocShift/internal/raster"
)

var (
	ErrNoPages        = errors.New("no pages to assemble")
	ErrEmptySelection = errors.New("no pages selected")
	ErrUnknownPage    = errors.New("unknown page")
	ErrMixedSources   = errors.New("selected pages must come from the same PDF")
	ErrUnsupported    = errors.New("only PDFs and images can be assembled")
)

// Assembler holds the capabilities page assembly needs. It is safe for
// sequential use from one goroutine at a time.
type Assembler struct {
	codec      raster.Codec
	rasterizer raster.Rasterizer
	recognizer ocr.Recognizer
	thumbSize  int
	logger     *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

func WithCodec(c raster.Codec) Option {
	return func(a *Assembler) {
		if c != nil {
			a.codec = c
		}
	}
}

func WithRasterizer(r raster.Rasterizer) Option {
	return func(a *Assembler) {
		if r != nil {
			a.rasterizer = r
		}
	}
}

// WithRecognizer sets the OCR backend used when an export asks for a text
// layer.
func WithRecognizer(r ocr.Recognizer) Option {
	return func(a *Assembler) {
		if r != nil {
			a.recognizer = r
		}
	}
}

// WithThumbnails makes LoadPages attach a PNG preview whose longer side is
// size pixels. Zero turns previews off.
func WithThumbnails(size int) Option {
	return func(a *Assembler) {
		if size >= 0 {
			a.thumbSize = size
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// New returns an Assembler with the standard codec, MuPDF rendering, no OCR
// and no thumbnails.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		codec:      raster.StdCodec{},
		rasterizer: raster.NewFitz(raster.DefaultDPI),
		recognizer: ocr.Disabled{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var disableConfigDir sync.Once

// pdfConfig returns a fresh pdfcpu configuration; pdfcpu mutates the one it
// is handed. Output uses a classic xref table without object streams so the
// text extractor can read it back.
func pdfConfig() *pdfmodel.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

// transform runs one pdfcpu read-modify-write step over an in-memory PDF.
func transform(data []byte, fn func(rs io.ReadSeeker, w io.Writer, conf *pdfmodel.Configuration) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := fn(bytes.NewReader(data), &buf, pdfConfig()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pageCount reads the number of pages of a PDF.
func pageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), pdfConfig())
}

// progressFunc reports done/total as a percentage, never repeating or going
// backwards.
func progressFunc(fn func(int), total int) func(done int) {
	last := -1
	return func(done int) {
		if fn == nil || total <= 0 {
			return
		}
		v := done * 100 / total
		if v > 100 {
			v = 100
		}
		if v <= last {
			return
		}
		last = v
		fn(v)
	}
}
