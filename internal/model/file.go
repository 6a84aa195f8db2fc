// Package model contains simple struct definitions shared across packages.
package model

import (
	"bytes"
	"io"
	"path"
	"strings"
	"time"
)

// Category is the coarse semantic kind of an input file. In Go a type declared
// via "type X string" creates a new named type with string as the underlying
// representation, so a Category cannot be mixed up with a Format by accident.
type Category string

const (
	CategoryDocument     Category = "document"
	CategoryImage        Category = "image"
	CategorySpreadsheet  Category = "spreadsheet"
	CategoryPresentation Category = "presentation"
	CategoryText         Category = "text"
	CategoryPDF          Category = "pdf"
	CategoryUnknown      Category = "unknown"
)

// AllCategories lists every category, unknown last.
var AllCategories = []Category{
	CategoryPDF,
	CategoryImage,
	CategoryDocument,
	CategorySpreadsheet,
	CategoryPresentation,
	CategoryText,
	CategoryUnknown,
}

// FileRef is everything the conversion core needs to know about an input:
// a name, the declared MIME type and the raw bytes. No filesystem access is
// assumed anywhere downstream.
type FileRef struct {
	Name     string `json:"name" yaml:"name"`
	MIMEType string `json:"mimeType" yaml:"mimeType"`
	// Data is omitted from JSON output because of the "-" struct tag.
	Data []byte `json:"-" yaml:"-"`
}

// Open returns a fresh reader over the file contents. bytes.Reader implements
// io.ReadSeeker, which most parsers want.
func (f FileRef) Open() io.ReadSeeker {
	return bytes.NewReader(f.Data)
}

// Size reports the content length in bytes.
func (f FileRef) Size() int64 {
	return int64(len(f.Data))
}

// Extension returns the lower-cased extension without the leading dot.
func (f FileRef) Extension() string {
	ext := path.Ext(f.Name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// BaseName strips directories and the extension from the file name.
func (f FileRef) BaseName() string {
	base := path.Base(strings.ReplaceAll(f.Name, "\\", "/"))
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == "/" {
		return "file"
	}
	return base
}

// FileTypeInfo is the classification of one file. It is derived once and
// never changes afterwards.
type FileTypeInfo struct {
	Category  Category `json:"category" yaml:"category"`
	Extension string   `json:"extension" yaml:"extension"`
	MIMEType  string   `json:"mimeType" yaml:"mimeType"`
}

// Blob is a finished conversion output tagged with its MIME type.
type Blob struct {
	Name     string `json:"name" yaml:"name"`
	MIMEType string `json:"mimeType" yaml:"mimeType"`
	Data     []byte `json:"-" yaml:"-"`
}

// Size reports the blob length in bytes.
func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.Data))
}

// ItemStatus describes the lifecycle of a queued conversion.
type ItemStatus string

const (
	// const blocks group related symbolic names; each constant is strongly typed.
	StatusQueued     ItemStatus = "queued"
	StatusConverting ItemStatus = "converting"
	StatusCompleted  ItemStatus = "completed"
	StatusFailed     ItemStatus = "failed"
)

// Terminal reports whether the status ends a conversion attempt.
func (s ItemStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// BlobHandle names bytes held by a blob store until they are released.
type BlobHandle string

// QueueItem holds one file waiting for, undergoing or finished with
// conversion. Result and ResultHandle are set only when Status is completed
// and Error only when Status is failed. Result describes the output; its bytes
// stay in the blob store under ResultHandle.
type QueueItem struct {
	ID           string     `json:"id" yaml:"id"`
	File         FileRef    `json:"-" yaml:"-"`
	Filename     string     `json:"filename" yaml:"filename"`
	Size         int64      `json:"size" yaml:"size"`
	MIMEType     string     `json:"mimeType" yaml:"mimeType"`
	Status       ItemStatus `json:"status" yaml:"status"`
	Progress     int        `json:"progress" yaml:"progress"`
	Error        string     `json:"error,omitempty" yaml:"error,omitempty"`
	Result       *Blob      `json:"result,omitempty" yaml:"result,omitempty"`
	ResultHandle BlobHandle `json:"-" yaml:"-"`
	CreatedAt    time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" yaml:"updatedAt"`
}
