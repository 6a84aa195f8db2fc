package archive

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	data, err := Build([]Entry{
		{Name: "report.pdf", Data: []byte("one")},
		{Name: "report.pdf", Data: []byte("two")},
		{Name: "../escape.txt", Data: []byte("three")},
		{Name: "report.pdf", Data: []byte("four")},
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	got := map[string]string{}
	var order []string
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		got[f.Name] = string(b)
		order = append(order, f.Name)
	}
	assert.Equal(t, []string{"report.pdf", "report-1.pdf", "escape.txt", "report-2.pdf"}, order)
	assert.Equal(t, "two", got["report-1.pdf"])
	assert.Equal(t, "four", got["report-2.pdf"])
}

func TestName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, "converted-20240309-140507.zip", Name(ts))
}

func TestEntries(t *testing.T) {
	data, err := Build([]Entry{
		{Name: "deck-page-1.png", Data: []byte("p1")},
		{Name: "deck-page-2.png", Data: []byte("p2")},
	})
	require.NoError(t, err)

	entries, err := Entries(data)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Name: "deck-page-1.png", Data: []byte("p1")},
		{Name: "deck-page-2.png", Data: []byte("p2")},
	}, entries)

	_, err = Entries([]byte("not a zip"))
	assert.Error(t, err)
}
