package engine

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/DocShift/internal/model"
	"github.com/dharsanguruparan/DocShift/internal/office"
	"github.com/dharsanguruparan/DocShift/internal/testutil"
)

func TestMain(m *testing.M) {
	api.DisableConfigDir()
	os.Exit(m.Run())
}

type fakeRasterizer struct {
	pages int
	err   error
}

func (f fakeRasterizer) PageCount([]byte) (int, error) {
	return f.pages, f.err
}

func (f fakeRasterizer) RenderPage(_ []byte, n int) (image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	return testutil.Image(10+n, 20), nil
}

type fakeRecognizer struct {
	texts []string
	err   error
	calls int
}

func (f *fakeRecognizer) Recognize(context.Context, []byte) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.texts) == 0 {
		return "", nil
	}
	return f.texts[(f.calls-1)%len(f.texts)], nil
}

type recorder struct {
	values []int
}

func (r *recorder) fn(v int) {
	r.values = append(r.values, v)
}

func assertProgress(t *testing.T, values []int) {
	t.Helper()
	require.NotEmpty(t, values)
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1], "progress regressed: %v", values)
	}
	assert.Equal(t, 100, values[len(values)-1])
}

func settings(f model.Fidelity) *model.PreservationSettings {
	s := model.DefaultSettings()
	s.Fidelity = f
	return &s
}

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	n, err := api.PageCount(bytes.NewReader(data), nil)
	require.NoError(t, err)
	return n
}

const longText = "The quarterly report covers revenue, expenses and the outlook for next year in detail."

func TestConvertValidationFailsBeforeProgress(t *testing.T) {
	e := New()
	tests := []struct {
		file   model.FileRef
		target model.Format
	}{
		{model.FileRef{Name: "notes.txt", Data: []byte("hi")}, model.FormatPNG},
		{model.FileRef{Name: "photo.png", Data: testutil.PNG(t, 2, 2)}, model.FormatDOCX},
		{model.FileRef{Name: "blob.bin", Data: []byte{1}}, model.FormatPDF},
		{model.FileRef{Name: "letter.docx"}, model.FormatJPG},
	}
	for _, tt := range tests {
		var rec recorder
		blob, err := e.Convert(context.Background(), tt.file, tt.target, rec.fn, nil)
		assert.Nil(t, blob)
		require.Error(t, err)
		assert.True(t, IsValidation(err), err.Error())
		assert.Empty(t, rec.values, tt.file.Name)

		var ce *ConversionError
		require.ErrorAs(t, err, &ce)
		assert.NotEmpty(t, ce.Message())
	}
}

func TestConvertShortCircuit(t *testing.T) {
	e := New()
	pdfData := testutil.TextPDF(t, "hello")
	tests := []struct {
		file   model.FileRef
		target model.Format
	}{
		{model.FileRef{Name: "doc.pdf", Data: pdfData}, model.FormatPDF},
		{model.FileRef{Name: "pic.png", Data: testutil.PNG(t, 3, 3)}, model.FormatPNG},
		{model.FileRef{Name: "pic.jpeg", Data: testutil.JPEG(t, 3, 3)}, model.FormatJPG},
		{model.FileRef{Name: "a.txt", Data: []byte("plain text")}, model.FormatTXT},
		{model.FileRef{Name: "rows.csv", Data: []byte("a,b\n1,2\n")}, model.FormatCSV},
	}
	for _, tt := range tests {
		var rec recorder
		blob, err := e.Convert(context.Background(), tt.file, tt.target, rec.fn, nil)
		require.NoError(t, err, tt.file.Name)
		assert.Equal(t, tt.file.Data, blob.Data, tt.file.Name)
		assert.Equal(t, []int{100}, rec.values, tt.file.Name)
		assert.Equal(t, tt.target.MIMEType(), blob.MIMEType)
	}
}

func TestConvertPDFToPDFIsIdempotent(t *testing.T) {
	e := New()
	src := model.FileRef{Name: "doc.pdf", Data: testutil.TextPDF(t, "hello")}
	first, err := e.Convert(context.Background(), src, model.FormatPDF, nil, nil)
	require.NoError(t, err)
	second, err := e.Convert(context.Background(), model.FileRef{Name: first.Name, Data: first.Data}, model.FormatPDF, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, "doc.pdf", first.Name)
}

func TestConvertJSONToCSV(t *testing.T) {
	e := New()
	file := model.FileRef{Name: "data.json", Data: []byte(`[{"a":1,"b":"x"}, {"a":2,"b":"y"}]`)}
	var rec recorder
	blob, err := e.Convert(context.Background(), file, model.FormatCSV, rec.fn, nil)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\"x\"\n2,\"y\"", string(blob.Data))
	assert.Equal(t, "data.csv", blob.Name)
	assert.Equal(t, model.MIMECSV, blob.MIMEType)
	assertProgress(t, rec.values)
}

func TestConvertJSONToCSVRejectsOtherShapes(t *testing.T) {
	e := New()
	for _, body := range []string{`{"a":1}`, `[1,2,3]`, `[]`, `not json`, `[{"a":1}, "x"]`} {
		_, err := e.Convert(context.Background(), model.FileRef{Name: "data.json", Data: []byte(body)}, model.FormatCSV, nil, nil)
		require.Error(t, err, body)
		assert.False(t, IsValidation(err))
		assert.ErrorIs(t, err, errNotObjectArray, body)
		assert.Contains(t, err.Error(), "array of objects")
	}

	_, err := e.Convert(context.Background(), model.FileRef{Name: "notes.md", Data: []byte("# hi")}, model.FormatCSV, nil, nil)
	assert.ErrorContains(t, err, "only JSON")
}

func TestJSONToCSVKeepsKeyOrderAndNesting(t *testing.T) {
	out, err := jsonToCSV([]byte(`[{"z":true,"a":{"k": [1, 2]}},{"a":null}]`))
	require.NoError(t, err)
	assert.Equal(t, "z,a\ntrue,{\"k\":[1,2]}\n,null", out)
}

func TestJSONToCSVQuotesHeaderKeys(t *testing.T) {
	out, err := jsonToCSV([]byte(`[{"last, first":"x","say \"hi\"":1,"plain":2}]`))
	require.NoError(t, err)
	assert.Equal(t, "\"last, first\",\"say \"\"hi\"\"\",plain\n\"x\",1,2", out)
}

func TestConvertLogsPreservationSettings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := New(WithLogger(logger))

	s := model.DefaultSettings()
	s.PDFForms = model.PDFFormsFlatten
	_, err := e.Convert(context.Background(), model.FileRef{Name: "notes.txt", Data: []byte("hello")}, model.FormatPDF, nil, &s)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "pdf_forms=flatten")
	assert.Contains(t, buf.String(), "file=notes.txt")
}

func TestPDFTextFallsBackToOCR(t *testing.T) {
	rec := &fakeRecognizer{texts: []string{"Recognized words from the scanned page"}}
	e := New(WithRasterizer(fakeRasterizer{pages: 1}), WithRecognizer(rec))
	file := model.FileRef{Name: "scan.pdf", Data: testutil.TextPDF(t, "Hi")}

	var progress recorder
	blob, err := e.Convert(context.Background(), file, model.FormatTXT, progress.fn, settings(model.FidelityBalanced))
	require.NoError(t, err)
	assert.Equal(t, "Recognized words from the scanned page", string(blob.Data))
	assert.Equal(t, 1, rec.calls)
	assertProgress(t, progress.values)

	// Fast fidelity keeps the thin text layer and never runs OCR.
	rec.calls = 0
	blob, err = e.Convert(context.Background(), file, model.FormatTXT, nil, settings(model.FidelityFast))
	require.NoError(t, err)
	assert.Equal(t, "Hi", string(blob.Data))
	assert.Zero(t, rec.calls)
}

func TestPDFTextOCRFailureUsesPlaceholder(t *testing.T) {
	rec := &fakeRecognizer{err: errors.New("engine crashed")}
	e := New(WithRasterizer(fakeRasterizer{pages: 2}), WithRecognizer(rec))
	file := model.FileRef{Name: "scan.pdf", Data: testutil.TextPDF(t, "", "")}

	var progress recorder
	blob, err := e.Convert(context.Background(), file, model.FormatTXT, progress.fn, nil)
	require.NoError(t, err)
	assert.Equal(t, OCRPlaceholder, string(blob.Data))
	assert.Equal(t, 2, rec.calls)
	assertProgress(t, progress.values)
}

func TestPDFTextCorruptInput(t *testing.T) {
	rec := &fakeRecognizer{texts: []string{"text recovered by ocr"}}
	e := New(WithRasterizer(fakeRasterizer{pages: 1}), WithRecognizer(rec))
	file := model.FileRef{Name: "broken.pdf", Data: []byte("%PDF-1.4 garbage")}

	blob, err := e.Convert(context.Background(), file, model.FormatTXT, nil, settings(model.FidelityBest))
	require.NoError(t, err)
	assert.Equal(t, "text recovered by ocr", string(blob.Data))

	_, err = e.Convert(context.Background(), file, model.FormatTXT, nil, settings(model.FidelityFast))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not extract PDF text")
	assert.False(t, IsValidation(err))
}

func TestPDFTextMultiPageSeparators(t *testing.T) {
	rec := &fakeRecognizer{}
	e := New(WithRasterizer(fakeRasterizer{pages: 2}), WithRecognizer(rec))
	file := model.FileRef{Name: "two.pdf", Data: testutil.TextPDF(t, longText, "Second page text")}

	blob, err := e.Convert(context.Background(), file, model.FormatTXT, nil, settings(model.FidelityBest))
	require.NoError(t, err)
	text := string(blob.Data)
	assert.True(t, strings.HasPrefix(text, "--- Page 1 ---\n"+longText), text)
	assert.Contains(t, text, "\n\n--- Page 2 ---\nSecond page text")
	assert.Zero(t, rec.calls)
}

func TestConvertImageToPDF(t *testing.T) {
	e := New()
	var rec recorder
	blob, err := e.Convert(context.Background(), model.FileRef{Name: "photo.png", Data: testutil.PNG(t, 120, 80)}, model.FormatPDF, rec.fn, nil)
	require.NoError(t, err)
	assert.Equal(t, "photo.pdf", blob.Name)
	assert.Equal(t, model.MIMEPDF, blob.MIMEType)
	assertProgress(t, rec.values)

	dims, err := api.PageDims(bytes.NewReader(blob.Data), nil)
	require.NoError(t, err)
	require.Len(t, dims, 1)
	assert.InDelta(t, 120, dims[0].Width, 0.5)
	assert.InDelta(t, 80, dims[0].Height, 0.5)
}

func TestConvertImageToJPG(t *testing.T) {
	e := New()
	s := model.DefaultSettings()
	s.ImageHandling = model.ImageLossy
	s.ImageQuality = 40
	var rec recorder
	blob, err := e.Convert(context.Background(), model.FileRef{Name: "art.png", Data: testutil.PNG(t, 16, 9)}, model.FormatJPG, rec.fn, &s)
	require.NoError(t, err)
	assert.Equal(t, "art.jpg", blob.Name)
	assertProgress(t, rec.values)

	img, err := jpeg.Decode(bytes.NewReader(blob.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 9), img.Bounds())
	// The caller's settings are left untouched.
	assert.Equal(t, 40, s.ImageQuality)
}

func TestConvertPDFToImages(t *testing.T) {
	e := New(WithRasterizer(fakeRasterizer{pages: 3}))
	var rec recorder
	blob, err := e.Convert(context.Background(), model.FileRef{Name: "deck.pdf", Data: testutil.TextPDF(t, "a", "b", "c")}, model.FormatPNG, rec.fn, nil)
	require.NoError(t, err)
	assert.Equal(t, "deck.zip", blob.Name)
	assert.Equal(t, model.MIMEZip, blob.MIMEType)
	assertProgress(t, rec.values)

	zr, err := zip.NewReader(bytes.NewReader(blob.Data), int64(len(blob.Data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"deck-page-1.png", "deck-page-2.png", "deck-page-3.png"}, names)

	single := New(WithRasterizer(fakeRasterizer{pages: 1}))
	blob, err = single.Convert(context.Background(), model.FileRef{Name: "one.pdf", Data: testutil.TextPDF(t, "a")}, model.FormatJPG, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "one.jpg", blob.Name)
	_, err = jpeg.Decode(bytes.NewReader(blob.Data))
	assert.NoError(t, err)
}

func TestConvertTextToPDFPaginates(t *testing.T) {
	e := New()
	text := strings.Repeat(longText+"\n", 120)
	var rec recorder
	blob, err := e.Convert(context.Background(), model.FileRef{Name: "long.txt", Data: []byte(text)}, model.FormatPDF, rec.fn, nil)
	require.NoError(t, err)
	assertProgress(t, rec.values)
	assert.Greater(t, pageCount(t, blob.Data), 1)
}

func TestConvertSpreadsheetToPDFIsOnePage(t *testing.T) {
	e := New()
	var rows strings.Builder
	for i := 0; i < 200; i++ {
		rows.WriteString("alpha,beta,gamma\n")
	}
	blob, err := e.Convert(context.Background(), model.FileRef{Name: "big.csv", Data: []byte(rows.String())}, model.FormatPDF, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pageCount(t, blob.Data))
}

func TestConvertPresentationToPlaceholderPDF(t *testing.T) {
	e := New()
	blob, err := e.Convert(context.Background(), model.FileRef{Name: "deck.pptx", Data: []byte("PK")}, model.FormatPDF, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pageCount(t, blob.Data))
}

func TestConvertDocumentToText(t *testing.T) {
	docx, err := office.WriteDOCX([]string{"Dear reader,", "Thanks."})
	require.NoError(t, err)
	e := New()
	blob, err := e.Convert(context.Background(), model.FileRef{Name: "letter.docx", Data: docx}, model.FormatTXT, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Dear reader,\nThanks.", string(blob.Data))
	assert.Equal(t, model.MIMEText, blob.MIMEType)

	_, err = e.Convert(context.Background(), model.FileRef{Name: "letter.docx", Data: []byte("junk")}, model.FormatTXT, nil, nil)
	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindConversion, ce.Kind)
	assert.Contains(t, ce.Message(), "could not read document text")
}

func TestConvertTextToDOCX(t *testing.T) {
	e := New()
	var rec recorder
	blob, err := e.Convert(context.Background(), model.FileRef{Name: "notes.md", Data: []byte("# Title\nbody line")}, model.FormatDOCX, rec.fn, nil)
	require.NoError(t, err)
	assert.Equal(t, "notes.docx", blob.Name)
	assert.Equal(t, model.MIMEDOCX, blob.MIMEType)
	assertProgress(t, rec.values)

	text, err := office.ExtractText(model.FileRef{Name: blob.Name, Data: blob.Data}, office.Options{})
	require.NoError(t, err)
	assert.Equal(t, "# Title\nbody line", text)
}

func TestConvertPDFToDOCXReflowsWithBestFidelity(t *testing.T) {
	e := New()
	data := testutil.PDF(t, []testutil.TextLine{
		{X: 72, Y: 100, Text: "A sentence that was wrapped"},
		{X: 72, Y: 114, Text: "across two lines of the page."},
		{X: 72, Y: 160, Text: "A second paragraph follows after a gap."},
	})
	blob, err := e.Convert(context.Background(), model.FileRef{Name: "paper.pdf", Data: data}, model.FormatDOCX, nil, settings(model.FidelityBest))
	require.NoError(t, err)

	text, err := office.ExtractText(model.FileRef{Name: "paper.docx", Data: blob.Data}, office.Options{})
	require.NoError(t, err)
	assert.Equal(t, "A sentence that was wrapped across two lines of the page. A second paragraph follows after a gap.", text)
}

func TestConvertSpreadsheetToText(t *testing.T) {
	e := New()
	blob, err := e.Convert(context.Background(), model.FileRef{Name: "rows.csv", Data: []byte("a,b\n1,2\n")}, model.FormatTXT, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2", string(blob.Data))
}

func TestConvertPassesThroughTextForTXT(t *testing.T) {
	e := New()
	body := []byte(`{"keep": "as is"}`)
	blob, err := e.Convert(context.Background(), model.FileRef{Name: "cfg.json", Data: body}, model.FormatTXT, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, body, blob.Data)
	assert.Equal(t, "cfg.txt", blob.Name)
}

func TestConvertHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Convert(ctx, model.FileRef{Name: "a.md", Data: []byte("x")}, model.FormatPDF, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProgressReporter(t *testing.T) {
	var rec recorder
	p := newProgress(rec.fn)
	for _, v := range []int{-5, 10, 10, 5, 40, 140, 100} {
		p.report(v)
	}
	assert.Equal(t, []int{0, 10, 40, 100}, rec.values)
	newProgress(nil).report(50)
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"aaa bb", "cc", "", "dddddd", "d"}, wrap("aaa bb cc\n\nddddddd", 6))
	assert.Equal(t, []string{"ab", "cd", "e"}, wrap("abcde", 2))
	pages := paginate([]string{"1", "2", "3"}, 2)
	assert.Equal(t, [][]string{{"1", "2"}, {"3"}}, pages)
	assert.Len(t, paginate(nil, 5), 1)
}
