package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), cfg.Settings())
	assert.Equal(t, "tesseract", cfg.OCR.Backend)
	assert.Equal(t, []string{"eng"}, cfg.OCR.Languages)
	assert.Equal(t, time.Minute, cfg.OCR.Timeout)
	assert.Equal(t, 150.0, cfg.Raster.DPI)
	assert.Equal(t, 11.0, cfg.Text.FontSize)
	assert.Equal(t, int64(100<<20), cfg.MaxFileBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.File)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fidelity: best
image_handling: lossy
image_quality: 140
ocr:
  backend: HTTP
  endpoint: http://localhost:8884/ocr
  languages: [eng, deu]
text:
  font_size: 9
`), 0o600))
	t.Setenv("DOCSHIFT_COMMENTS", "remove")
	t.Setenv("DOCSHIFT_OCR_TIMEOUT", "5s")
	t.Setenv("DOCSHIFT_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)

	s := cfg.Settings()
	assert.Equal(t, model.FidelityBest, s.Fidelity)
	assert.Equal(t, model.ImageLossy, s.ImageHandling)
	assert.Equal(t, 100, s.ImageQuality)
	assert.Equal(t, model.CommentsRemove, s.Comments)
	assert.Equal(t, model.DocxChangesKeep, s.DocxChanges)

	assert.Equal(t, "http", cfg.OCR.Backend)
	assert.Equal(t, "http://localhost:8884/ocr", cfg.OCR.Endpoint)
	assert.Equal(t, []string{"eng", "deu"}, cfg.OCR.Languages)
	assert.Equal(t, 5*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, 9.0, cfg.Text.FontSize)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DOCSHIFT_FIDELITY", "ultra")
	t.Setenv("DOCSHIFT_RASTER_DPI", "-3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, model.FidelityBalanced, cfg.Settings().Fidelity)
	assert.Equal(t, 150.0, cfg.Raster.DPI)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
