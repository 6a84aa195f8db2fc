package assemble

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/dharsanguruparan/DocShift/internal/classify"
	"github.com/dharsanguruparan/DocShift/internal/model"
	"github.com/dharsanguruparan/DocShift/internal/raster"
)

// LoadPages turns a file into page units. A PDF becomes one unit per page,
// or a single whole-document unit when asSingleItem is set; an image is
// always one unit.
func (a *Assembler) LoadPages(ref model.FileRef, asSingleItem bool) ([]model.PageData, error) {
	info := classify.ClassifyContent(ref)
	switch info.Category {
	case model.CategoryPDF:
		return a.loadPDF(ref, asSingleItem)
	case model.CategoryImage:
		page, err := a.loadImage(ref)
		if err != nil {
			return nil, err
		}
		return []model.PageData{page}, nil
	case model.CategoryDocument, model.CategorySpreadsheet, model.CategoryPresentation,
		model.CategoryText, model.CategoryUnknown:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ref.Name)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ref.Name)
	}
}

func (a *Assembler) loadPDF(ref model.FileRef, asSingleItem bool) ([]model.PageData, error) {
	dims, err := api.PageDims(bytes.NewReader(ref.Data), pdfConfig())
	if err != nil {
		return nil, fmt.Errorf("read pages of %s: %w", ref.Name, err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPages, ref.Name)
	}
	unit := model.PageData{
		ID:         newID(ref),
		Filename:   ref.Name,
		Kind:       model.PageKindPDF,
		Source:     ref,
		TotalPages: len(dims),
		Width:      dims[0].Width,
		Height:     dims[0].Height,
	}
	if len(dims) == 1 {
		unit.PageNumber = 1
	}
	if asSingleItem || len(dims) == 1 {
		unit.Thumbnail = a.pdfThumbnail(ref, 1)
		return []model.PageData{unit}, nil
	}
	return a.expand(unit, dims), nil
}

func (a *Assembler) loadImage(ref model.FileRef) (model.PageData, error) {
	w, h, err := a.codec.Dimensions(ref.Data)
	if err != nil {
		return model.PageData{}, fmt.Errorf("read image %s: %w", ref.Name, err)
	}
	page := model.PageData{
		ID:         newID(ref),
		Filename:   ref.Name,
		Kind:       model.PageKindImage,
		Source:     ref,
		PageNumber: 1,
		TotalPages: 1,
		Width:      float64(w),
		Height:     float64(h),
	}
	if a.thumbSize > 0 {
		if img, _, err := a.codec.Decode(ref.Data); err == nil {
			page.Thumbnail = a.encodeThumbnail(img)
		}
	}
	return page, nil
}

// Expand splits a whole-document unit into one unit per page. Units that
// already stand for a single page come back unchanged.
func (a *Assembler) Expand(page model.PageData) ([]model.PageData, error) {
	if !page.WholeDocument() {
		return []model.PageData{page}, nil
	}
	dims, err := api.PageDims(bytes.NewReader(page.Source.Data), pdfConfig())
	if err != nil {
		return nil, fmt.Errorf("read pages of %s: %w", page.Filename, err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPages, page.Filename)
	}
	return a.expand(page, dims), nil
}

func (a *Assembler) expand(whole model.PageData, dims []types.Dim) []model.PageData {
	out := make([]model.PageData, len(dims))
	for i, d := range dims {
		n := i + 1
		out[i] = model.PageData{
			ID:         fmt.Sprintf("%s-p%d", whole.ID, n),
			Filename:   whole.Filename,
			Kind:       model.PageKindPDF,
			Source:     whole.Source,
			PageNumber: n,
			TotalPages: len(dims),
			Rotation:   whole.Rotation,
			Width:      d.Width,
			Height:     d.Height,
			Thumbnail:  a.pdfThumbnail(whole.Source, n),
		}
	}
	return out
}

// PrepareMerge expands multi-page documents when they are merged together
// with other units, because merging works page by page. autoSplit reports
// whether anything was expanded so callers can tell the user.
func (a *Assembler) PrepareMerge(pages []model.PageData) (expanded []model.PageData, autoSplit bool, err error) {
	if len(pages) < 2 {
		return pages, false, nil
	}
	expanded = make([]model.PageData, 0, len(pages))
	for _, p := range pages {
		if !p.WholeDocument() || p.PageCount() < 2 {
			expanded = append(expanded, p)
			continue
		}
		units, err := a.Expand(p)
		if err != nil {
			return nil, false, err
		}
		a.logger.Info("expanded multi-page document for merge",
			slog.String("file", p.Filename), slog.Int("pages", len(units)))
		expanded = append(expanded, units...)
		autoSplit = true
	}
	return expanded, autoSplit, nil
}

func (a *Assembler) pdfThumbnail(ref model.FileRef, n int) []byte {
	if a.thumbSize <= 0 {
		return nil
	}
	img, err := a.rasterizer.RenderPage(ref.Data, n)
	if err != nil {
		a.logger.Debug("thumbnail render failed", slog.String("file", ref.Name), slog.Int("page", n), slog.Any("error", err))
		return nil
	}
	return a.encodeThumbnail(img)
}

func (a *Assembler) encodeThumbnail(img image.Image) []byte {
	data, err := a.codec.Encode(raster.Thumbnail(img, a.thumbSize), raster.EncodingPNG, 0)
	if err != nil {
		return nil
	}
	return data
}

func newID(ref model.FileRef) string {
	return ref.BaseName() + "-" + uuid.NewString()
}
