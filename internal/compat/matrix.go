// Package compat decides which conversions are legal. The matrix works on
// whole batches, the oracle on a single file; both read the same rule table
// so they always agree.
package compat

import (
	"github.com/dharsanguruparan/DocShift/internal/model"
)

const (
	warnPDFPages  = "PDFs will create one image per page"
	warnPDFToDOCX = "PDF to DOCX may alter layout (beta feature)"
)

// allows is the single rule table. Every format gets its own case so adding
// a format without deciding its rules is caught by the default branch.
func allows(c model.Category, f model.Format) bool {
	switch f {
	case model.FormatPDF:
		return c != model.CategoryUnknown
	case model.FormatPNG, model.FormatJPG:
		return c == model.CategoryImage || c == model.CategoryPDF
	case model.FormatTXT:
		switch c {
		case model.CategoryDocument, model.CategoryPDF, model.CategoryText, model.CategorySpreadsheet:
			return true
		}
		return false
	case model.FormatCSV:
		return c == model.CategorySpreadsheet || c == model.CategoryText
	case model.FormatDOCX:
		return c == model.CategoryText || c == model.CategoryPDF
	default:
		return false
	}
}

// ValidTargets returns the formats every file in the batch can be converted
// to, in model.AllFormats order. An empty batch gets no targets.
func ValidTargets(infos []model.FileTypeInfo) []model.TargetFormatDescriptor {
	if len(infos) == 0 {
		return nil
	}
	var (
		anyPDF      bool
		anyWorkbook bool
	)
	for _, info := range infos {
		if info.Category == model.CategoryPDF {
			anyPDF = true
		}
		if info.Extension == "xlsx" || info.Extension == "xls" {
			anyWorkbook = true
		}
	}

	out := make([]model.TargetFormatDescriptor, 0, len(model.AllFormats))
	for _, f := range model.AllFormats {
		if !allowedForAll(infos, f) {
			continue
		}
		d := model.TargetFormatDescriptor{
			Format:      f,
			Label:       f.Label(),
			Description: f.Description(),
		}
		switch f {
		case model.FormatPNG, model.FormatJPG:
			if anyPDF {
				d.WillZip = true
				d.Warning = warnPDFPages
			}
		case model.FormatCSV:
			d.WillZip = anyWorkbook
		case model.FormatDOCX:
			if anyPDF {
				d.Warning = warnPDFToDOCX
			}
		case model.FormatPDF, model.FormatTXT:
		}
		out = append(out, d)
	}
	return out
}

// Offers reports whether target appears in ValidTargets(infos).
func Offers(infos []model.FileTypeInfo, target model.Format) bool {
	return len(infos) > 0 && allowedForAll(infos, target)
}

// Partition splits a batch into the indices that can reach target and the
// ones that cannot.
func Partition(infos []model.FileTypeInfo, target model.Format) (convertible, incompatible []int) {
	for i, info := range infos {
		if ConversionError(info, target) == "" {
			convertible = append(convertible, i)
		} else {
			incompatible = append(incompatible, i)
		}
	}
	return convertible, incompatible
}

func allowedForAll(infos []model.FileTypeInfo, f model.Format) bool {
	for _, info := range infos {
		if !allows(info.Category, f) {
			return false
		}
	}
	return true
}
