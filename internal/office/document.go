// Package office reads text out of word processor files and spreadsheets and
// writes minimal DOCX packages. It covers the common structure of these
// formats only; layout, styles and embedded objects are ignored.
package office

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

var (
	// ErrUnsupported marks inputs whose container format cannot be read.
	ErrUnsupported = errors.New("unsupported file format")
	// ErrMissingPart is returned when a package lacks a required part.
	ErrMissingPart = errors.New("document part not found")
)

// Options tunes text extraction from word processor files.
type Options struct {
	Changes  model.DocxChanges
	Comments model.Comments
}

// OptionsFrom picks the extraction options out of conversion settings.
func OptionsFrom(s model.PreservationSettings) Options {
	return Options{Changes: s.DocxChanges, Comments: s.Comments}
}

// ExtractText returns the plain text of a document file, one paragraph per
// line.
func ExtractText(ref model.FileRef, opts Options) (string, error) {
	var (
		text string
		err  error
	)
	switch ref.Extension() {
	case "docx":
		text, err = readDOCX(ref.Data, opts)
	case "odt":
		text, err = readODT(ref.Data, opts)
	case "rtf":
		text, err = readRTF(ref.Data)
	case "doc":
		return "", fmt.Errorf("%w: legacy binary .doc files cannot be read, save the file as .docx", ErrUnsupported)
	default:
		return "", fmt.Errorf("%w: %q is not a document", ErrUnsupported, ref.Name)
	}
	if err != nil {
		return "", err
	}
	return tidy(text), nil
}

// readPart returns the contents of one member of a zip package.
func readPart(data []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
}

// tidy trims trailing spaces on each line and collapses runs of more than
// one blank line.
func tidy(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func appendComments(body string, comments []string) string {
	if len(comments) == 0 {
		return body
	}
	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n\nComments:\n")
	for _, c := range comments {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	return b.String()
}
