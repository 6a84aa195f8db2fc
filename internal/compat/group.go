package compat

import (
	"fmt"
	"time"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

// Entry is one classified file taking part in grouping.
type Entry struct {
	ID   string
	Info model.FileTypeInfo
}

// Group partitions entries by category, one group per category present, in
// order of first appearance. Group ids carry a clock suffix and are labels
// only; nothing should key on them.
func Group(entries []Entry) []model.CompatibilityGroup {
	return groupAt(entries, time.Now())
}

func groupAt(entries []Entry, now time.Time) []model.CompatibilityGroup {
	index := make(map[model.Category]int)
	members := make(map[model.Category][]model.FileTypeInfo)
	var groups []model.CompatibilityGroup
	for _, e := range entries {
		c := e.Info.Category
		i, ok := index[c]
		if !ok {
			name, desc := groupText(c)
			i = len(groups)
			index[c] = i
			groups = append(groups, model.CompatibilityGroup{
				ID:          fmt.Sprintf("%s-%d", c, now.UnixMilli()),
				Name:        name,
				Description: desc,
				Category:    c,
			})
		}
		groups[i].FileIDs = append(groups[i].FileIDs, e.ID)
		members[c] = append(members[c], e.Info)
	}
	for i := range groups {
		c := groups[i].Category
		groups[i].ValidFormats = ValidTargets(members[c])
		groups[i].SuggestedFormat = suggested(c)
	}
	return groups
}

func groupText(c model.Category) (string, string) {
	switch c {
	case model.CategoryPDF:
		return "PDF Documents", "PDF files can be exported as images, text or Word documents"
	case model.CategoryImage:
		return "Images", "Images can be combined into PDFs or re-encoded"
	case model.CategoryDocument:
		return "Documents", "Word processor files can be converted to PDF or plain text"
	case model.CategorySpreadsheet:
		return "Spreadsheets", "Spreadsheets can be exported as CSV, text or PDF"
	case model.CategoryPresentation:
		return "Presentations", "Presentations can only be converted to a placeholder PDF"
	case model.CategoryText:
		return "Text Files", "Text files can be converted to PDF, DOCX or CSV"
	case model.CategoryUnknown:
		return "Unsupported Files", "These files cannot be converted"
	default:
		return string(c), ""
	}
}

func suggested(c model.Category) model.Format {
	switch c {
	case model.CategoryPDF:
		return model.FormatPNG
	case model.CategorySpreadsheet:
		return model.FormatCSV
	case model.CategoryImage, model.CategoryDocument, model.CategoryPresentation, model.CategoryText:
		return model.FormatPDF
	case model.CategoryUnknown:
		return ""
	default:
		return ""
	}
}
