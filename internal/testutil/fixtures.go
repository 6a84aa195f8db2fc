// Package testutil builds small in-memory documents for tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/go-pdf/fpdf"
)

// TextLine is a string drawn at a fixed position, in points from the top
// left corner.
type TextLine struct {
	X, Y float64
	Text string
}

// PDF returns a document with one A4 page per entry of pages. Each page's
// lines are drawn in the order given, which lets tests control content-stream
// order independently of the visual layout.
func PDF(t testing.TB, pages ...[]TextLine) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for _, lines := range pages {
		doc.AddPage()
		for _, l := range lines {
			doc.Text(l.X, l.Y, l.Text)
		}
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	return buf.Bytes()
}

// TextPDF puts each string on its own page as a single line.
func TextPDF(t testing.TB, texts ...string) []byte {
	t.Helper()
	pages := make([][]TextLine, 0, len(texts))
	for _, s := range texts {
		pages = append(pages, []TextLine{{X: 72, Y: 72, Text: s}})
	}
	return PDF(t, pages...)
}

// Image returns a w×h image with a solid fill and a dark top-left pixel so
// orientation changes are observable.
func Image(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	img.Set(0, 0, color.NRGBA{A: 255})
	return img
}

// PNG encodes Image(w, h).
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, Image(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// JPEG encodes Image(w, h) at quality 90.
func JPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Image(w, h), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}
