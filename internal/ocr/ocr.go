// Package ocr recognises text in raster images. Recognition is best effort:
// callers treat every error as "no text found" rather than a failure.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrDisabled   = errors.New("ocr is disabled")
	ErrEmptyImage = errors.New("image data cannot be empty")
	ErrNoEndpoint = errors.New("ocr endpoint cannot be empty")
)

// Recognizer extracts text from one encoded image (PNG or JPEG). An
// implementation must not carry state from one call into the next.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Backend names accepted by New.
const (
	BackendTesseract = "tesseract"
	BackendHTTP      = "http"
	BackendNone      = "none"
)

// Config selects and tunes a backend.
type Config struct {
	Backend   string
	Languages []string
	Endpoint  string
	Timeout   time.Duration
}

// New builds the recognizer named by cfg.Backend.
func New(cfg Config) (Recognizer, error) {
	switch cfg.Backend {
	case BackendTesseract, "":
		return NewTesseract(cfg.Languages...), nil
	case BackendHTTP:
		if cfg.Endpoint == "" {
			return nil, ErrNoEndpoint
		}
		return NewHTTP(cfg.Endpoint, WithTimeout(cfg.Timeout), WithLanguages(cfg.Languages...)), nil
	case BackendNone:
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown ocr backend %q", cfg.Backend)
	}
}

// Disabled never recognises anything.
type Disabled struct{}

// Recognize implements Recognizer.
func (Disabled) Recognize(context.Context, []byte) (string, error) {
	return "", ErrDisabled
}

// Func adapts a plain function to Recognizer.
type Func func(ctx context.Context, image []byte) (string, error)

// Recognize implements Recognizer.
func (f Func) Recognize(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}
