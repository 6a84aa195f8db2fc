package assemble

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

const defaultSplitName = "split.pdf"

// Split writes the selected pages into a new PDF. Every selected unit must be
// a page of the same source PDF. Pages keep the order of the list, not of the
// source, and each carries its own rotation. Selecting a whole-document unit
// selects all of its pages.
func (a *Assembler) Split(ctx context.Context, pages []model.PageData, selectedIDs []string, filename string) (*model.Blob, error) {
	selected, err := selection(pages, selectedIDs)
	if err != nil {
		return nil, err
	}
	source := selected[0].Source
	var (
		order     []string
		rotations []model.Rotation
	)
	for _, p := range selected {
		if p.Kind != model.PageKindPDF {
			return nil, fmt.Errorf("%w: %s is not a PDF page", ErrMixedSources, p.Filename)
		}
		if p.Source.Name != source.Name || !bytes.Equal(p.Source.Data, source.Data) {
			return nil, fmt.Errorf("%w: %s and %s", ErrMixedSources, source.Name, p.Source.Name)
		}
		numbers := []int{p.PageNumber}
		if p.WholeDocument() {
			n, err := pageCount(p.Source.Data)
			if err != nil {
				return nil, fmt.Errorf("count pages: %w", err)
			}
			numbers = numbers[:0]
			for i := 1; i <= n; i++ {
				numbers = append(numbers, i)
			}
		}
		for _, n := range numbers {
			order = append(order, strconv.Itoa(n))
			rotations = append(rotations, p.Rotation)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := transform(source.Data, func(rs io.ReadSeeker, w io.Writer, conf *pdfmodel.Configuration) error {
		return api.Collect(rs, w, order, conf)
	})
	if err != nil {
		return nil, fmt.Errorf("collect pages: %w", err)
	}
	if data, err = rotatePages(data, rotations); err != nil {
		return nil, err
	}
	a.logger.Info("split pages", slog.String("file", source.Name), slog.Int("pages", len(order)))
	return &model.Blob{Name: pdfName(filename, defaultSplitName), MIMEType: model.MIMEPDF, Data: data}, nil
}

// Burst writes every page of a PDF unit into a PDF of its own, named
// <base>-page-<n>.pdf.
func (a *Assembler) Burst(ctx context.Context, page model.PageData) ([]model.Blob, error) {
	units, err := a.Expand(page)
	if err != nil {
		return nil, err
	}
	out := make([]model.Blob, 0, len(units))
	for _, u := range units {
		if u.Kind != model.PageKindPDF {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, u.Filename)
		}
		blob, err := a.Split(ctx, units, []string{u.ID}, fmt.Sprintf("%s-page-%d.pdf", u.Source.BaseName(), u.PageNumber))
		if err != nil {
			return nil, err
		}
		out = append(out, *blob)
	}
	return out, nil
}

// selection resolves ids against the working list and returns the chosen
// units in list order.
func selection(pages []model.PageData, ids []string) ([]model.PageData, error) {
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	known := make(map[string]bool, len(pages))
	for _, p := range pages {
		known[p.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPage, id)
		}
	}
	var out []model.PageData
	for _, p := range pages {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

// rotatePages turns output page i by rotations[i], one pdfcpu pass per
// distinct angle.
func rotatePages(data []byte, rotations []model.Rotation) ([]byte, error) {
	byAngle := make(map[model.Rotation][]string)
	var angles []model.Rotation
	for i, r := range rotations {
		if r == 0 {
			continue
		}
		if _, seen := byAngle[r]; !seen {
			angles = append(angles, r)
		}
		byAngle[r] = append(byAngle[r], strconv.Itoa(i+1))
	}
	for _, r := range angles {
		var err error
		data, err = transform(data, func(rs io.ReadSeeker, w io.Writer, conf *pdfmodel.Configuration) error {
			return api.Rotate(rs, w, int(r), byAngle[r], conf)
		})
		if err != nil {
			return nil, fmt.Errorf("rotate pages: %w", err)
		}
	}
	return data, nil
}
