package office

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

const odfOfficeNS = "urn:oasis:names:tc:opendocument:xmlns:office:1.0"

// readODT extracts paragraphs and headings from content.xml. Annotations are
// pulled out of the body and listed at the end unless comments are removed.
func readODT(data []byte, opts Options) (string, error) {
	part, err := readPart(data, "content.xml")
	if err != nil {
		return "", err
	}
	dec := xml.NewDecoder(bytes.NewReader(part))
	var (
		body   strings.Builder
		note   strings.Builder
		author strings.Builder
		notes  []string
		inBody bool
		inNote bool
		field  string // "creator" or "date" while inside annotation metadata
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse content.xml: %w", err)
		}
		out := &body
		if inNote {
			out = &note
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "text":
				if t.Name.Space == odfOfficeNS {
					inBody = true
				}
			case "annotation":
				inNote = true
				note.Reset()
				author.Reset()
			case "creator", "date":
				if inNote {
					field = t.Name.Local
				}
			case "s":
				n := 1
				if c, err := strconv.Atoi(attr(t, "c")); err == nil && c > 0 {
					n = c
				}
				out.WriteString(strings.Repeat(" ", n))
			case "tab":
				out.WriteString("\t")
			case "line-break":
				out.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "h":
				if inNote {
					note.WriteString(" ")
				} else if inBody {
					body.WriteString("\n")
				}
			case "creator", "date":
				field = ""
			case "annotation":
				inNote = false
				text := strings.TrimSpace(note.String())
				if text == "" {
					continue
				}
				if a := strings.TrimSpace(author.String()); a != "" {
					text = a + ": " + text
				}
				notes = append(notes, text)
			}
		case xml.CharData:
			switch {
			case inNote && field == "creator":
				author.Write(t)
			case inNote && field == "date":
			case inNote:
				note.Write(t)
			case inBody:
				body.Write(t)
			}
		}
	}
	if opts.Comments == model.CommentsRemove {
		return body.String(), nil
	}
	return appendComments(body.String(), notes), nil
}
