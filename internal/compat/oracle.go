package compat

import (
	"fmt"
	"strings"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

// ConversionError explains why info cannot be converted to target. An empty
// string means the conversion is allowed.
//
// Well-known dead ends get a message that points at a working alternative;
// every other combination the rule table rejects gets a generic message.
func ConversionError(info model.FileTypeInfo, target model.Format) string {
	if msg := specificError(info.Category, target); msg != "" {
		return msg
	}
	if !target.Valid() {
		return fmt.Sprintf("Unsupported target format %q.", string(target))
	}
	if !allows(info.Category, target) {
		return fmt.Sprintf("Cannot convert %s files to %s.", describe(info), strings.ToUpper(string(target)))
	}
	return ""
}

func specificError(c model.Category, target model.Format) string {
	switch c {
	case model.CategoryUnknown:
		return "This file type is not supported for conversion. Only PDF, image, office document, spreadsheet, presentation and text files can be converted."
	case model.CategoryText:
		switch target {
		case model.FormatPNG, model.FormatJPG:
			return fmt.Sprintf("Text files cannot be converted to %s directly. Convert to PDF instead, then export the PDF pages as images.", strings.ToUpper(string(target)))
		}
	case model.CategoryImage:
		switch target {
		case model.FormatDOCX:
			return "Images cannot be converted to DOCX. Convert the image to PDF instead."
		case model.FormatCSV, "xlsx":
			return fmt.Sprintf("Images contain no tabular data and cannot be converted to %s. Convert the image to PDF instead.", strings.ToUpper(string(target)))
		}
	case model.CategoryPDF, model.CategoryDocument, model.CategorySpreadsheet, model.CategoryPresentation:
	}
	return ""
}

func describe(info model.FileTypeInfo) string {
	if info.Extension != "" {
		return strings.ToUpper(info.Extension)
	}
	return string(info.Category)
}
