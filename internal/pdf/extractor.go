// Package pdfutil reads the native text layer of PDF documents.
package pdfutil

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

var (
	// ErrNoPages is returned for documents whose page tree is empty.
	ErrNoPages = errors.New("pdf has no pages")
)

// LineBreakDelta is how far the baseline has to move between two fragments
// before ordered extraction starts a new line.
const LineBreakDelta = 5.0

// Fragment is a run of text drawn at one position on a page.
type Fragment struct {
	X, Y float64
	S    string
}

// Page is the text found on one page.
type Page struct {
	Number    int
	Fragments []Fragment
}

// Text renders the page. With ordered set, fragments are sorted top to bottom
// then left to right and a new line starts whenever the baseline moves by
// more than LineBreakDelta. Otherwise fragments keep their content-stream
// order joined by single spaces.
func (p Page) Text(ordered bool) string {
	if !ordered {
		parts := make([]string, 0, len(p.Fragments))
		for _, f := range p.Fragments {
			parts = append(parts, f.S)
		}
		return strings.TrimSpace(strings.Join(parts, " "))
	}

	frags := append([]Fragment(nil), p.Fragments...)
	// sort.SliceStable keeps content order for fragments sharing a position.
	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].Y != frags[j].Y {
			return frags[i].Y > frags[j].Y
		}
		return frags[i].X < frags[j].X
	})
	var b strings.Builder
	for i, f := range frags {
		if i > 0 {
			if math.Abs(frags[i-1].Y-f.Y) > LineBreakDelta {
				b.WriteString("\n")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(f.S)
	}
	return strings.TrimSpace(b.String())
}

// ExtractPages reads every page of a PDF and returns its text fragments.
// Parser panics on malformed input are turned into errors.
func ExtractPages(data []byte) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader := bytes.NewReader(data)
	doc, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("new pdf reader: %w", err)
	}
	total := doc.NumPage()
	if total == 0 {
		return nil, ErrNoPages
	}
	pages = make([]Page, 0, total)
	for n := 1; n <= total; n++ {
		p := doc.Page(n)
		page := Page{Number: n}
		if !p.V.IsNull() {
			page.Fragments = runs(p.Content().Text)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// PlainText returns the text of every page joined by newlines, in content
// order.
func PlainText(data []byte) (string, error) {
	pages, err := ExtractPages(data)
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	for _, p := range pages {
		builder.WriteString(p.Text(false))
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// runs glues the per-glyph text items the parser reports into fragments.
// Consecutive glyphs on the same baseline that touch each other belong to
// the same run.
func runs(texts []pdf.Text) []Fragment {
	var out []Fragment
	var cur *Fragment
	var curEnd float64
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		if cur != nil && math.Abs(t.Y-cur.Y) < 0.5 && t.X >= curEnd-1 && t.X-curEnd <= adjacency(t.FontSize) {
			cur.S += t.S
			curEnd = t.X + t.W
			continue
		}
		if cur != nil {
			cur.S = strings.TrimSpace(cur.S)
			if cur.S != "" {
				out = append(out, *cur)
			}
		}
		cur = &Fragment{X: t.X, Y: t.Y, S: t.S}
		curEnd = t.X + t.W
	}
	if cur != nil {
		cur.S = strings.TrimSpace(cur.S)
		if cur.S != "" {
			out = append(out, *cur)
		}
	}
	return out
}

func adjacency(fontSize float64) float64 {
	if fontSize <= 0 {
		return 1
	}
	return fontSize * 0.15
}
