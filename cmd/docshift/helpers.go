package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dharsanguruparan/DocShift/internal/assemble"
	"github.com/dharsanguruparan/DocShift/internal/classify"
	"github.com/dharsanguruparan/DocShift/internal/config"
	"github.com/dharsanguruparan/DocShift/internal/engine"
	"github.com/dharsanguruparan/DocShift/internal/model"
	"github.com/dharsanguruparan/DocShift/internal/ocr"
	"github.com/dharsanguruparan/DocShift/internal/raster"
)

const loadConcurrency = 4

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// loadFiles reads every path concurrently and keeps argument order. Files
// larger than the configured limit are rejected.
func loadFiles(ctx context.Context, paths []string, maxBytes int64) ([]model.FileRef, error) {
	refs := make([]model.FileRef, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(loadConcurrency)
	for i, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ref, err := loadFile(path, maxBytes)
			if err != nil {
				return err
			}
			refs[i] = ref
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

func loadFile(path string, maxBytes int64) (model.FileRef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.FileRef{}, err
	}
	if info.IsDir() {
		return model.FileRef{}, fmt.Errorf("%s is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return model.FileRef{}, fmt.Errorf("%s is %d bytes, over the %d byte limit", path, info.Size(), maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FileRef{}, err
	}
	return model.FileRef{
		Name:     filepath.Base(path),
		MIMEType: detectMIME(path, data),
		Data:     data,
	}, nil
}

// detectMIME prefers the content signature and falls back to the extension.
func detectMIME(path string, data []byte) string {
	if kind := classify.Sniff(data); kind != classify.KindUnknown {
		return kind.MIMEType()
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return ""
}

func newRecognizer(cfg *config.Config) (ocr.Recognizer, error) {
	return ocr.New(ocr.Config{
		Backend:   cfg.OCR.Backend,
		Languages: cfg.OCR.Languages,
		Endpoint:  cfg.OCR.Endpoint,
		Timeout:   cfg.OCR.Timeout,
	})
}

func textLayout(cfg *config.Config) engine.TextLayout {
	layout := engine.DefaultTextLayout()
	layout.FontSize = cfg.Text.FontSize
	layout.Margin = cfg.Text.Margin
	return layout
}

func buildEngine(opts *cliOptions) (*engine.Engine, error) {
	rec, err := newRecognizer(opts.cfg)
	if err != nil {
		return nil, err
	}
	return engine.New(
		engine.WithRasterizer(raster.NewFitz(opts.cfg.Raster.DPI)),
		engine.WithRecognizer(rec),
		engine.WithTextLayout(textLayout(opts.cfg)),
		engine.WithLogger(opts.logger),
	), nil
}

func buildAssembler(opts *cliOptions) (*assemble.Assembler, error) {
	rec, err := newRecognizer(opts.cfg)
	if err != nil {
		return nil, err
	}
	return assemble.New(
		assemble.WithRasterizer(raster.NewFitz(opts.cfg.Raster.DPI)),
		assemble.WithRecognizer(rec),
		assemble.WithLogger(opts.logger),
	), nil
}

// writeBlob stores blob in dir without overwriting files written earlier in
// the same run.
func writeBlob(dir string, blob model.Blob, written map[string]bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := filepath.Base(blob.Name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	path := filepath.Join(dir, name)
	for i := 1; written[path]; i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}
	if err := os.WriteFile(path, blob.Data, 0o644); err != nil {
		return "", err
	}
	written[path] = true
	return path, nil
}

// progressPrinter writes "label 42%" lines, skipping repeats.
func progressPrinter(w io.Writer, label string) func(int) {
	last := -1
	return func(v int) {
		if v == last {
			return
		}
		last = v
		fmt.Fprintf(w, "%s %3d%%\n", label, v)
	}
}
