package office

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

func buildZip(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const trackedDocument = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve">world </w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">The </w:t></w:r><w:ins w:author="a"><w:r><w:t>new</w:t></w:r></w:ins><w:del w:author="a"><w:r><w:delText>old</w:delText></w:r></w:del><w:r><w:t xml:space="preserve"> plan</w:t></w:r></w:p>
</w:body></w:document>`

const commentsPart = `<?xml version="1.0"?>
<w:comments xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:comment w:id="0" w:author="Dana"><w:p><w:r><w:t>Check this</w:t></w:r></w:p></w:comment>
</w:comments>`

func TestExtractDOCX(t *testing.T) {
	data := buildZip(t, map[string]string{
		"word/document.xml": trackedDocument,
		"word/comments.xml": commentsPart,
	})
	ref := model.FileRef{Name: "plan.docx", Data: data}

	text, err := ExtractText(ref, Options{Changes: model.DocxChangesAccept, Comments: model.CommentsRemove})
	require.NoError(t, err)
	assert.Equal(t, "Hello\tworld\nThe new plan", text)

	text, err = ExtractText(ref, Options{Changes: model.DocxChangesReject, Comments: model.CommentsRemove})
	require.NoError(t, err)
	assert.Equal(t, "Hello\tworld\nThe old plan", text)

	text, err = ExtractText(ref, Options{Changes: model.DocxChangesKeep, Comments: model.CommentsKeep})
	require.NoError(t, err)
	assert.Equal(t, "Hello\tworld\nThe new plan\n\nComments:\n- Dana: Check this", text)
}

func TestExtractDOCXMissingPart(t *testing.T) {
	data := buildZip(t, map[string]string{"other.xml": "<x/>"})
	_, err := ExtractText(model.FileRef{Name: "bad.docx", Data: data}, Options{})
	assert.ErrorIs(t, err, ErrMissingPart)

	_, err = ExtractText(model.FileRef{Name: "bad.docx", Data: []byte("not zip")}, Options{})
	assert.Error(t, err)
}

func TestWriteDOCXRoundTrip(t *testing.T) {
	data, err := WriteDOCX([]string{"First <paragraph> & more", "", "tab\there"})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/_rels/document.xml.rels"}, names)

	text, err := ExtractText(model.FileRef{Name: "out.docx", Data: data}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "First <paragraph> & more\n\ntab\there", text)
}

func TestParagraphs(t *testing.T) {
	text := "--- Page 1 ---\nA wrapped\nsentence.\n\nNext one.\n--- Page 2 ---\nTail"
	assert.Equal(t, []string{"--- Page 1 ---", "A wrapped sentence.", "Next one.", "--- Page 2 ---", "Tail"}, Paragraphs(text, true))
	assert.Len(t, Paragraphs(text, false), 7)
}

func TestExtractODT(t *testing.T) {
	content := `<?xml version="1.0"?>` +
		`<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" xmlns:dc="http://purl.org/dc/elements/1.1/">` +
		`<office:body><office:text>` +
		`<text:h>Title</text:h>` +
		`<text:p>One<text:s text:c="2"/>two<text:tab/>three<office:annotation><dc:creator>Lee</dc:creator><dc:date>2024-01-01</dc:date><text:p>Nice</text:p></office:annotation></text:p>` +
		`</office:text></office:body></office:document-content>`
	ref := model.FileRef{Name: "notes.odt", Data: buildZip(t, map[string]string{"content.xml": content})}

	text, err := ExtractText(ref, Options{Comments: model.CommentsKeep})
	require.NoError(t, err)
	assert.Equal(t, "Title\nOne  two\tthree\n\nComments:\n- Lee: Nice", text)

	text, err = ExtractText(ref, Options{Comments: model.CommentsRemove})
	require.NoError(t, err)
	assert.Equal(t, "Title\nOne  two\tthree", text)
}

func TestExtractRTF(t *testing.T) {
	rtf := `{\rtf1\ansi\deff0{\fonttbl{\f0 Times New Roman;}}{\*\generator Writer;}` + "\n" +
		`\f0\fs24 Hello {\b bold} caf\'e9\par Line\tab two \u8364?\par}`
	text, err := ExtractText(model.FileRef{Name: "memo.rtf", Data: []byte(rtf)}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Hello bold café\nLine\ttwo €", text)

	_, err = ExtractText(model.FileRef{Name: "memo.rtf", Data: []byte("plain")}, Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := ExtractText(model.FileRef{Name: "old.doc"}, Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = ExtractText(model.FileRef{Name: "a.txt"}, Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFirstSheetCSV(t *testing.T) {
	text, err := FirstSheetCSV(model.FileRef{Name: "rows.csv", Data: []byte("a,b\n1,\"x,y\"\n")})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\"x,y\"", text)

	_, err = FirstSheet(model.FileRef{Name: "legacy.xls"})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFirstSheetWorkbook(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "name"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "qty"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "bolt"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 4))
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Other", "A1", "ignored"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := FirstSheet(model.FileRef{Name: "stock.xlsx", Data: buf.Bytes()})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"name", "qty"}, {"bolt", "4"}}, rows)
}
