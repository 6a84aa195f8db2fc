// Package classify maps raw files onto semantic categories.
package classify

import (
	"strings"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

var (
	imageExtensions = set("png", "jpg", "jpeg", "gif", "bmp", "webp", "svg", "tif", "tiff", "heic", "ico")
	documentExts    = set("docx", "doc", "rtf", "odt")
	spreadsheetExts = set("xlsx", "xls", "csv", "ods")
	presentationExt = set("pptx", "ppt", "odp")
	textExtensions  = set("txt", "md", "json")
)

// Classify derives the category of a file from its name and declared MIME
// type. It never fails: anything unrecognised is CategoryUnknown. Rules are
// checked in a fixed order and the first match wins, so pdf and image
// matches are settled before the looser text/ prefix check.
func Classify(ref model.FileRef) model.FileTypeInfo {
	ext := ref.Extension()
	mime := normalizeMIME(ref.MIMEType)
	return model.FileTypeInfo{
		Category:  categorize(ext, mime),
		Extension: ext,
		MIMEType:  mime,
	}
}

// ClassifyContent behaves like Classify but falls back to sniffing the
// leading bytes when the name and MIME type say nothing useful.
func ClassifyContent(ref model.FileRef) model.FileTypeInfo {
	info := Classify(ref)
	if info.Category != model.CategoryUnknown {
		return info
	}
	kind := Sniff(ref.Data)
	if kind == KindUnknown {
		return info
	}
	info.Category = kind.Category()
	if info.MIMEType == "" || info.MIMEType == "application/octet-stream" {
		info.MIMEType = kind.MIMEType()
	}
	if info.Extension == "" {
		info.Extension = kind.String()
	}
	return info
}

func categorize(ext, mime string) model.Category {
	switch {
	case mime == model.MIMEPDF || ext == "pdf":
		return model.CategoryPDF
	case strings.HasPrefix(mime, "image/") || imageExtensions[ext]:
		return model.CategoryImage
	case documentExts[ext]:
		return model.CategoryDocument
	case spreadsheetExts[ext]:
		return model.CategorySpreadsheet
	case presentationExt[ext]:
		return model.CategoryPresentation
	case textExtensions[ext] || strings.HasPrefix(mime, "text/"):
		return model.CategoryText
	default:
		return model.CategoryUnknown
	}
}

// normalizeMIME lower-cases a content type and drops parameters such as
// "; charset=utf-8".
func normalizeMIME(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

func set(values ...string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}
