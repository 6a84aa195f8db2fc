package office

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

// FirstSheet returns the rows of the first worksheet of a spreadsheet file.
// CSV files are a single sheet.
func FirstSheet(ref model.FileRef) ([][]string, error) {
	switch ref.Extension() {
	case "csv":
		r := csv.NewReader(bytes.NewReader(ref.Data))
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		rows, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		return rows, nil
	case "xlsx":
		return firstWorkbookSheet(ref)
	case "xls", "ods":
		return nil, fmt.Errorf("%w: .%s workbooks cannot be read, save the file as .xlsx or .csv", ErrUnsupported, ref.Extension())
	default:
		return nil, fmt.Errorf("%w: %q is not a spreadsheet", ErrUnsupported, ref.Name)
	}
}

func firstWorkbookSheet(ref model.FileRef) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(ref.Data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %q has no sheets", ref.Name)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// CSV renders rows as comma-separated text without a trailing newline.
func CSV(rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// FirstSheetCSV is FirstSheet followed by CSV.
func FirstSheetCSV(ref model.FileRef) (string, error) {
	rows, err := FirstSheet(ref)
	if err != nil {
		return "", err
	}
	return CSV(rows)
}
