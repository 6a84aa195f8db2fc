package office

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

// readDOCX walks word/document.xml and keeps the text runs. Tracked
// insertions are dropped and deletions restored when changes are rejected.
func readDOCX(data []byte, opts Options) (string, error) {
	part, err := readPart(data, "word/document.xml")
	if err != nil {
		return "", err
	}
	reject := opts.Changes == model.DocxChangesReject
	body, err := wordText(part, reject)
	if err != nil {
		return "", err
	}
	if opts.Comments == model.CommentsRemove {
		return body, nil
	}
	comments, err := docxComments(data)
	if err != nil {
		return "", err
	}
	return appendComments(body, comments), nil
}

func wordText(part []byte, reject bool) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(part))
	var (
		b       strings.Builder
		inIns   int
		capture bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		skipping := reject && inIns > 0
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "ins":
				inIns++
			case "t":
				capture = !skipping
			case "delText":
				capture = reject
			case "tab":
				if !skipping {
					b.WriteString("\t")
				}
			case "br", "cr":
				if !skipping {
					b.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "ins":
				if inIns > 0 {
					inIns--
				}
			case "t", "delText":
				capture = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if capture {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

// docxComments returns "author: text" for every comment in word/comments.xml.
func docxComments(data []byte) ([]string, error) {
	part, err := readPart(data, "word/comments.xml")
	if errors.Is(err, ErrMissingPart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	dec := xml.NewDecoder(bytes.NewReader(part))
	var (
		out     []string
		author  string
		cur     strings.Builder
		inNote  bool
		capture bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse comments.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "comment":
				inNote = true
				author = attr(t, "author")
				cur.Reset()
			case "t":
				capture = inNote
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				capture = false
			case "p":
				if inNote && cur.Len() > 0 {
					cur.WriteString(" ")
				}
			case "comment":
				inNote = false
				text := strings.TrimSpace(cur.String())
				if text == "" {
					continue
				}
				if author != "" {
					text = author + ": " + text
				}
				out = append(out, text)
			}
		case xml.CharData:
			if capture {
				cur.Write(t)
			}
		}
	}
	return out, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
