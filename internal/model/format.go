package model

import (
	"fmt"
	"strings"
)

// Format is a conversion target.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatPNG  Format = "png"
	FormatJPG  Format = "jpg"
	FormatTXT  Format = "txt"
	FormatCSV  Format = "csv"
	FormatDOCX Format = "docx"
)

// AllFormats is the fixed presentation order callers use to pick a default.
var AllFormats = []Format{FormatPDF, FormatPNG, FormatJPG, FormatTXT, FormatCSV, FormatDOCX}

// MIME types of the produced outputs.
const (
	MIMEPDF  = "application/pdf"
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEText = "text/plain"
	MIMECSV  = "text/csv"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEZip  = "application/zip"
)

// ParseFormat maps user input such as "PDF" or "jpeg" onto a Format.
func ParseFormat(s string) (Format, error) {
	v := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if v == "jpeg" {
		v = "jpg"
	}
	f := Format(v)
	if !f.Valid() {
		return "", fmt.Errorf("unknown target format %q", s)
	}
	return f, nil
}

// Valid reports whether f is one of the known targets.
func (f Format) Valid() bool {
	switch f {
	case FormatPDF, FormatPNG, FormatJPG, FormatTXT, FormatCSV, FormatDOCX:
		return true
	default:
		return false
	}
}

// Extension is the file extension (without dot) of outputs in this format.
func (f Format) Extension() string {
	return string(f)
}

// MIMEType returns the content type of outputs in this format.
func (f Format) MIMEType() string {
	switch f {
	case FormatPDF:
		return MIMEPDF
	case FormatPNG:
		return MIMEPNG
	case FormatJPG:
		return MIMEJPEG
	case FormatTXT:
		return MIMEText
	case FormatCSV:
		return MIMECSV
	case FormatDOCX:
		return MIMEDOCX
	default:
		return "application/octet-stream"
	}
}

// Label is the short human name shown next to a format.
func (f Format) Label() string {
	switch f {
	case FormatPDF:
		return "PDF Document"
	case FormatPNG:
		return "PNG Image"
	case FormatJPG:
		return "JPG Image"
	case FormatTXT:
		return "Plain Text"
	case FormatCSV:
		return "CSV Spreadsheet"
	case FormatDOCX:
		return "Word Document"
	default:
		return strings.ToUpper(string(f))
	}
}

// Description is a one-line explanation of the format.
func (f Format) Description() string {
	switch f {
	case FormatPDF:
		return "Portable document, one page per image or text flowed onto pages"
	case FormatPNG:
		return "Lossless image, one per PDF page"
	case FormatJPG:
		return "Compressed image, one per PDF page"
	case FormatTXT:
		return "Extracted plain text"
	case FormatCSV:
		return "Comma-separated values from the first sheet or a JSON array"
	case FormatDOCX:
		return "Minimal Word document with the extracted text"
	default:
		return ""
	}
}

// TargetFormatDescriptor describes one format offered for a batch.
type TargetFormatDescriptor struct {
	Format      Format `json:"format" yaml:"format"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
	// WillZip is true when the batch produces more outputs than inputs.
	WillZip bool   `json:"willZip" yaml:"willZip"`
	Warning string `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// CompatibilityGroup is one partition of a file set by category.
type CompatibilityGroup struct {
	ID              string                   `json:"id" yaml:"id"`
	Name            string                   `json:"name" yaml:"name"`
	Description     string                   `json:"description" yaml:"description"`
	Category        Category                 `json:"category" yaml:"category"`
	FileIDs         []string                 `json:"fileIds" yaml:"fileIds"`
	ValidFormats    []TargetFormatDescriptor `json:"validFormats" yaml:"validFormats"`
	SuggestedFormat Format                   `json:"suggestedFormat,omitempty" yaml:"suggestedFormat,omitempty"`
}
