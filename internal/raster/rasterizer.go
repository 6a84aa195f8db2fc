package raster

import (
	"fmt"
	"image"
	"sync"

	fitz "github.com/gen2brain/go-fitz"
)

// DefaultDPI renders pages at a resolution OCR engines read comfortably.
const DefaultDPI = 150.0

// Rasterizer renders PDF pages to pixels.
type Rasterizer interface {
	PageCount(data []byte) (int, error)
	// RenderPage renders the 1-based page n.
	RenderPage(data []byte, n int) (image.Image, error)
}

// Fitz renders pages through MuPDF.
type Fitz struct {
	DPI float64
}

var _ Rasterizer = (*Fitz)(nil)

// MuPDF contexts are not safe for concurrent document opens.
var fitzMu sync.Mutex

// NewFitz returns a rasterizer rendering at dpi, or DefaultDPI when dpi is
// not positive.
func NewFitz(dpi float64) *Fitz {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Fitz{DPI: dpi}
}

// PageCount implements Rasterizer.
func (f *Fitz) PageCount(data []byte) (int, error) {
	fitzMu.Lock()
	defer fitzMu.Unlock()
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// RenderPage implements Rasterizer.
func (f *Fitz) RenderPage(data []byte, n int) (image.Image, error) {
	fitzMu.Lock()
	defer fitzMu.Unlock()
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()
	if n < 1 || n > doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range 1..%d", n, doc.NumPage())
	}
	// go-fitz numbers pages from zero.
	img, err := doc.ImageDPI(n-1, f.DPI)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", n, err)
	}
	return img, nil
}
