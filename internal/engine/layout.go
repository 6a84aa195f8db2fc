package engine

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
)

// TextLayout is the page geometry for text flowed into PDFs, in points.
type TextLayout struct {
	PageWidth  float64
	PageHeight float64
	Margin     float64
	FontSize   float64
}

// DefaultTextLayout is an A4 page with 50pt margins and 11pt Helvetica.
func DefaultTextLayout() TextLayout {
	return TextLayout{PageWidth: 595.28, PageHeight: 841.89, Margin: 50, FontSize: 11}
}

func (l TextLayout) normalize() TextLayout {
	def := DefaultTextLayout()
	if l.PageWidth <= 0 || l.PageHeight <= 0 {
		l.PageWidth, l.PageHeight = def.PageWidth, def.PageHeight
	}
	if l.FontSize <= 0 {
		l.FontSize = def.FontSize
	}
	if l.Margin < 0 || 2*l.Margin >= l.PageWidth || 2*l.Margin >= l.PageHeight {
		l.Margin = def.Margin
	}
	return l
}

func (l TextLayout) lineHeight() float64 {
	return l.FontSize * 1.4
}

// charsPerLine estimates how many characters fit across the text area. An
// average Helvetica glyph is about half the point size wide; real glyph
// metrics are not consulted.
func (l TextLayout) charsPerLine() int {
	n := int((l.PageWidth - 2*l.Margin) / (l.FontSize * 0.5))
	if n < 1 {
		return 1
	}
	return n
}

func (l TextLayout) linesPerPage() int {
	n := int((l.PageHeight - 2*l.Margin) / l.lineHeight())
	if n < 1 {
		return 1
	}
	return n
}

// wrap breaks text into lines of at most width characters, splitting on
// whitespace and hard-splitting words longer than a line.
func wrap(text string, width int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", "    ")
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		var line strings.Builder
		lineLen := 0
		for _, w := range words {
			for utf8.RuneCountInString(w) > width {
				if lineLen > 0 {
					out = append(out, line.String())
					line.Reset()
					lineLen = 0
				}
				r := []rune(w)
				out = append(out, string(r[:width]))
				w = string(r[width:])
			}
			wl := utf8.RuneCountInString(w)
			if wl == 0 {
				continue
			}
			if lineLen > 0 && lineLen+1+wl > width {
				out = append(out, line.String())
				line.Reset()
				lineLen = 0
			}
			if lineLen > 0 {
				line.WriteByte(' ')
				lineLen++
			}
			line.WriteString(w)
			lineLen += wl
		}
		if lineLen > 0 {
			out = append(out, line.String())
		}
	}
	return out
}

// paginate groups lines into pages. There is always at least one page.
func paginate(lines []string, perPage int) [][]string {
	if len(lines) == 0 {
		return [][]string{nil}
	}
	var pages [][]string
	for len(lines) > perPage {
		pages = append(pages, lines[:perPage])
		lines = lines[perPage:]
	}
	return append(pages, lines)
}

// renderText flows text onto as many pages as it needs. With singlePage set
// everything past the first page is dropped.
func (l TextLayout) renderText(text string, singlePage bool) ([]byte, error) {
	pages := paginate(wrap(text, l.charsPerLine()), l.linesPerPage())
	if singlePage {
		pages = pages[:1]
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: l.PageWidth, Ht: l.PageHeight},
	})
	doc.SetMargins(l.Margin, l.Margin, l.Margin)
	doc.SetAutoPageBreak(false, 0)
	doc.SetFont("Helvetica", "", l.FontSize)
	// Core fonts are cp1252; the translator maps UTF-8 onto it.
	tr := doc.UnicodeTranslatorFromDescriptor("")

	for _, page := range pages {
		doc.AddPage()
		y := l.Margin + l.FontSize
		for _, line := range page {
			if line != "" {
				doc.Text(l.Margin, y, tr(line))
			}
			y += l.lineHeight()
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
