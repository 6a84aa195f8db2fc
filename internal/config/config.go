// Package config centralizes how DocShift reads its settings and exposes them
// as strongly typed Go values. Values come from defaults, an optional
// docshift.yaml and DOCSHIFT_* environment variables, in rising priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

// Config represents runtime configuration. Struct fields in Go begin with
// capital letters when they must be exported (visible to other packages).
// The embedded PreservationSettings are read from top-level keys.
type Config struct {
	model.PreservationSettings `mapstructure:",squash"`

	OCR          OCR    `mapstructure:"ocr"`
	Raster       Raster `mapstructure:"raster"`
	Text         Text   `mapstructure:"text"`
	MaxFileBytes int64  `mapstructure:"max_file_bytes"`
	Log          Log    `mapstructure:"log"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// OCR selects the recognition backend.
type OCR struct {
	Backend   string        `mapstructure:"backend"`
	Languages []string      `mapstructure:"languages"`
	Endpoint  string        `mapstructure:"endpoint"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Raster controls PDF page rendering.
type Raster struct {
	DPI float64 `mapstructure:"dpi"`
}

// Text controls how plain text is laid out on PDF pages.
type Text struct {
	FontSize float64 `mapstructure:"font_size"`
	Margin   float64 `mapstructure:"margin"`
}

// Log controls the CLI logger.
type Log struct {
	Level string `mapstructure:"level"`
}

const (
	envPrefix  = "DOCSHIFT"
	configName = "docshift"

	// const declares compile-time constants; shifts work on integers so
	// 100 << 20 equals 100 * 2^20 bytes.
	defaultMaxFileBytes = 100 << 20
	defaultOCRTimeout   = 60 * time.Second
	defaultDPI          = 150.0
	defaultFontSize     = 11.0
	defaultMargin       = 50.0
)

// setDefaults registers every key so environment variables are seen by
// Unmarshal even when no config file mentions them.
func setDefaults(v *viper.Viper) {
	def := model.DefaultSettings()
	v.SetDefault("fidelity", string(def.Fidelity))
	v.SetDefault("pdf_forms", string(def.PDFForms))
	v.SetDefault("docx_changes", string(def.DocxChanges))
	v.SetDefault("comments", string(def.Comments))
	v.SetDefault("image_handling", string(def.ImageHandling))
	v.SetDefault("image_quality", def.ImageQuality)
	v.SetDefault("ocr.backend", "tesseract")
	v.SetDefault("ocr.languages", []string{"eng"})
	v.SetDefault("ocr.endpoint", "")
	v.SetDefault("ocr.timeout", defaultOCRTimeout)
	v.SetDefault("raster.dpi", defaultDPI)
	v.SetDefault("text.font_size", defaultFontSize)
	v.SetDefault("text.margin", defaultMargin)
	v.SetDefault("max_file_bytes", defaultMaxFileBytes)
	v.SetDefault("log.level", "info")
}

// Load reads configuration. With path empty it looks for docshift.yaml in the
// working directory and in ~/.config/docshift; a missing file is fine. An
// explicit path must exist. It follows Go's convention of returning
// (value, error) so callers can handle failures rather than panicking.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}
	v.SetEnvPrefix(envPrefix)
	// DOCSHIFT_OCR_BACKEND maps onto ocr.backend.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.normalize()
	return cfg, nil
}

// normalize falls back to defaults for values that make no sense.
func (c *Config) normalize() {
	c.PreservationSettings = c.PreservationSettings.Normalize()
	c.OCR.Backend = strings.ToLower(strings.TrimSpace(c.OCR.Backend))
	if len(c.OCR.Languages) == 0 {
		c.OCR.Languages = []string{"eng"}
	}
	if c.OCR.Timeout <= 0 {
		c.OCR.Timeout = defaultOCRTimeout
	}
	if c.Raster.DPI <= 0 {
		c.Raster.DPI = defaultDPI
	}
	if c.Text.FontSize <= 0 {
		c.Text.FontSize = defaultFontSize
	}
	if c.Text.Margin < 0 {
		c.Text.Margin = defaultMargin
	}
	if c.MaxFileBytes <= 0 {
		c.MaxFileBytes = defaultMaxFileBytes
	}
}

// Settings returns the normalised preservation settings.
func (c *Config) Settings() model.PreservationSettings {
	return c.PreservationSettings.Normalize()
}
