package model

import (
	"go/format"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"pdf":   FormatPDF,
		"PDF":   FormatPDF,
		".png":  FormatPNG,
		"jpeg":  FormatJPG,
		"JPG":   FormatJPG,
		" txt ": FormatTXT,
		"docx":  FormatDOCX,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestRotationAdd(t *testing.T) {
	assert.Equal(t, Rotation(90), Rotation(0).Add(90))
	assert.Equal(t, Rotation(0), Rotation(270).Add(90))
	assert.Equal(t, Rotation(270), Rotation(0).Add(-90))
	assert.Equal(t, Rotation(180), Rotation(90).Add(450))
	assert.True(t, Rotation(270).Swaps())
	assert.False(t, Rotation(180).Swaps())
	assert.False(t, Rotation(45).Valid())
}

func TestSettingsNormalize(t *testing.T) {
	s := PreservationSettings{Fidelity: "weird", ImageQuality: 140}.Normalize()
	assert.Equal(t, FidelityBalanced, s.Fidelity)
	assert.Equal(t, PDFFormsKeep, s.PDFForms)
	assert.Equal(t, DocxChangesKeep, s.DocxChanges)
	assert.Equal(t, CommentsKeep, s.Comments)
	assert.Equal(t, ImageAuto, s.ImageHandling)
	assert.Equal(t, 100, s.ImageQuality)

	assert.Equal(t, DefaultSettings(), ResolveSettings(nil))
}

func TestFileRefNames(t *testing.T) {
	ref := FileRef{Name: "reports/Q3.Final.PDF"}
	assert.Equal(t, "pdf", ref.Extension())
	assert.Equal(t, "Q3.Final", ref.BaseName())
	assert.Equal(t, "file", FileRef{}.BaseName())
	assert.Equal(t, "notes", FileRef{Name: `C:\tmp\notes.txt`}.BaseName())
}

func TestPageDataCount(t *testing.T) {
	whole := PageData{Kind: PageKindPDF, TotalPages: 3}
	assert.True(t, whole.WholeDocument())
	assert.Equal(t, 3, whole.PageCount())

	single := PageData{Kind: PageKindPDF, PageNumber: 2, TotalPages: 3}
	assert.Equal(t, 1, single.PageCount())
	assert.Equal(t, 1, PageData{Kind: PageKindImage}.PageCount())
}

func TestFileSourceIsFormatted(t *testing.T) {
	src, err := os.ReadFile("file.go")
	require.NoError(t, err)
	formatted, err := format.Source(src)
	require.NoError(t, err)
	assert.Equal(t, string(formatted), string(src))
}
