package engine

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dharsanguruparan/DocShift/internal/model"
	"github.com/dharsanguruparan/DocShift/internal/office"
)

func (e *Engine) toText(ctx context.Context, j *job) (*model.Blob, error) {
	j.progress.report(10)
	switch j.info.Category {
	case model.CategoryPDF:
		text, err := e.pdfText(ctx, j)
		if err != nil {
			return nil, err
		}
		return j.blob([]byte(text)), nil
	case model.CategoryDocument:
		text, err := office.ExtractText(j.file, office.OptionsFrom(j.settings))
		if err != nil {
			return nil, fail("could not read document text", err)
		}
		return j.blob([]byte(text)), nil
	case model.CategorySpreadsheet:
		text, err := office.FirstSheetCSV(j.file)
		if err != nil {
			return nil, fail("could not read spreadsheet", err)
		}
		return j.blob([]byte(text)), nil
	case model.CategoryText:
		return j.blob(j.file.Data), nil
	case model.CategoryImage, model.CategoryPresentation, model.CategoryUnknown:
		return nil, fail("unsupported input", nil)
	default:
		return nil, fail("unsupported input", nil)
	}
}

func (e *Engine) toCSV(ctx context.Context, j *job) (*model.Blob, error) {
	j.progress.report(10)
	switch j.info.Category {
	case model.CategorySpreadsheet:
		if j.info.Extension == "csv" {
			return j.blob(j.file.Data), nil
		}
		text, err := office.FirstSheetCSV(j.file)
		if err != nil {
			return nil, fail("could not read spreadsheet", err)
		}
		return j.blob([]byte(text)), nil
	case model.CategoryText:
		if j.info.Extension != "json" {
			return nil, fail("only JSON text files can be converted to CSV", nil)
		}
		text, err := jsonToCSV(j.file.Data)
		if err != nil {
			return nil, fail("could not convert JSON to CSV", err)
		}
		return j.blob([]byte(text)), nil
	case model.CategoryPDF, model.CategoryImage, model.CategoryDocument, model.CategoryPresentation, model.CategoryUnknown:
		return nil, fail("unsupported input", nil)
	default:
		return nil, fail("unsupported input", nil)
	}
}

func (e *Engine) toDOCX(ctx context.Context, j *job) (*model.Blob, error) {
	j.progress.report(10)
	var paragraphs []string
	switch j.info.Category {
	case model.CategoryPDF:
		text, err := e.pdfText(ctx, j)
		if err != nil {
			return nil, err
		}
		paragraphs = office.Paragraphs(text, j.settings.Fidelity == model.FidelityBest)
	case model.CategoryText:
		paragraphs = office.Paragraphs(decodeText(j.file.Data), false)
	case model.CategoryImage, model.CategoryDocument, model.CategorySpreadsheet, model.CategoryPresentation, model.CategoryUnknown:
		return nil, fail("unsupported input", nil)
	default:
		return nil, fail("unsupported input", nil)
	}
	j.progress.report(80)
	data, err := office.WriteDOCX(paragraphs)
	if err != nil {
		return nil, fail("could not write DOCX", err)
	}
	return j.blob(data), nil
}

var errNotObjectArray = errors.New("JSON input must be an array of objects")

// jsonToCSV turns an array of objects into CSV. The header is the first
// object's keys in document order; every cell is the JSON encoding of the
// value, so strings keep their quotes. Keys missing from later objects give
// empty cells.
func jsonToCSV(data []byte) (string, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return "", errNotObjectArray
	}
	if len(elems) == 0 {
		return "", fmt.Errorf("%w: the array is empty", errNotObjectArray)
	}
	var header []string
	lines := make([]string, 0, len(elems)+1)
	for i, raw := range elems {
		keys, values, err := decodeObject(raw)
		if err != nil {
			return "", fmt.Errorf("%w: element %d is not an object", errNotObjectArray, i)
		}
		if i == 0 {
			header = keys
			row, err := csvRow(header)
			if err != nil {
				return "", err
			}
			lines = append(lines, row)
		}
		cells := make([]string, len(header))
		for c, key := range header {
			if v, ok := values[key]; ok {
				cells[c] = v
			}
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n"), nil
}

// csvRow renders fields as one CSV record, quoting those that contain a
// separator, a quote or a line break.
func csvRow(fields []string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// decodeObject reads one JSON object keeping key order. Values come back
// re-encoded in compact form.
func decodeObject(raw json.RawMessage) ([]string, map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errNotObjectArray
	}
	var keys []string
	values := make(map[string]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, errNotObjectArray
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, v); err != nil {
			return nil, nil, err
		}
		if _, dup := values[key]; !dup {
			keys = append(keys, key)
		}
		values[key] = compact.String()
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	return keys, values, nil
}
