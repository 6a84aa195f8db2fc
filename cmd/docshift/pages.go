package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/DocShift/internal/archive"
	"github.com/dharsanguruparan/DocShift/internal/assemble"
	"github.com/dharsanguruparan/DocShift/internal/model"
	"github.com/dharsanguruparan/DocShift/internal/tui"
)

type mergeFlags struct {
	output  string
	ocr     bool
	quality int
	rotate  []string
}

func newMergeCmd(opts *cliOptions) *cobra.Command {
	var flags mergeFlags
	cmd := &cobra.Command{
		Use:   "merge <file>...",
		Short: "Merge PDFs and images, in argument order, into one PDF",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rotations, err := parseRotations(flags.rotate, len(args))
			if err != nil {
				return err
			}
			refs, err := loadFiles(ctx, args, opts.cfg.MaxFileBytes)
			if err != nil {
				return err
			}
			asm, err := buildAssembler(opts)
			if err != nil {
				return err
			}

			var units []model.PageData
			for i, ref := range refs {
				loaded, err := asm.LoadPages(ref, true)
				if err != nil {
					return err
				}
				for j := range loaded {
					loaded[j].Rotation = loaded[j].Rotation.Add(rotations[i+1])
				}
				units = append(units, loaded...)
			}
			units, autoSplit, err := asm.PrepareMerge(units)
			if err != nil {
				return err
			}
			if autoSplit {
				opts.logger.Info("multi-page documents were split into pages for merging")
			}

			res, err := asm.Export(ctx, units, assembleOptions(flags), progressPrinter(opts.stderr, "merge"))
			if err != nil {
				return err
			}
			path := flags.output
			if path == "" {
				path = res.Blob.Name
			}
			if err := os.WriteFile(path, res.Blob.Data, 0o644); err != nil {
				return err
			}

			rows := []tui.SummaryRow{
				{Label: "Pages", Value: strconv.Itoa(res.Pages)},
				{Label: "Output", Value: path},
			}
			if flags.ocr {
				rows = append(rows, tui.SummaryRow{Label: "OCR skipped", Value: strconv.Itoa(res.OCRSkipped)})
			}
			fmt.Fprintln(opts.stdout, tui.RenderSummary(rows))
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default merged.pdf)")
	cmd.Flags().BoolVar(&flags.ocr, "ocr", false, "add an invisible text layer recognised from each page")
	cmd.Flags().IntVar(&flags.quality, "quality", 0, "recompress image pages as JPEG at this quality (1-100)")
	cmd.Flags().StringSliceVar(&flags.rotate, "rotate", nil, "rotate input N clockwise, as N:degrees (e.g. 2:90)")
	return cmd
}

type splitFlags struct {
	output string
	pages  string
	rotate []string
	burst  bool
	zip    bool
}

func newSplitCmd(opts *cliOptions) *cobra.Command {
	var flags splitFlags
	cmd := &cobra.Command{
		Use:   "split <file.pdf>",
		Short: "Extract pages of a PDF, or burst it into one PDF per page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !flags.burst && flags.pages == "" {
				return fmt.Errorf("choose pages with --pages or use --burst")
			}
			refs, err := loadFiles(ctx, args, opts.cfg.MaxFileBytes)
			if err != nil {
				return err
			}
			asm, err := buildAssembler(opts)
			if err != nil {
				return err
			}

			if flags.burst {
				whole, err := asm.LoadPages(refs[0], true)
				if err != nil {
					return err
				}
				blobs, err := asm.Burst(ctx, whole[0])
				if err != nil {
					return err
				}
				return writeBurst(opts, flags, blobs)
			}

			units, err := asm.LoadPages(refs[0], false)
			if err != nil {
				return err
			}
			numbers, err := parsePageList(flags.pages, len(units))
			if err != nil {
				return err
			}
			rotations, err := parseRotations(flags.rotate, len(units))
			if err != nil {
				return err
			}
			list := make([]model.PageData, len(numbers))
			ids := make([]string, len(numbers))
			for i, n := range numbers {
				list[i] = units[n-1]
				list[i].Rotation = list[i].Rotation.Add(rotations[n])
				ids[i] = list[i].ID
			}
			blob, err := asm.Split(ctx, list, ids, outputName(flags.output))
			if err != nil {
				return err
			}
			path := flags.output
			if path == "" {
				path = blob.Name
			}
			if err := os.WriteFile(path, blob.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(opts.stdout, tui.RenderSummary([]tui.SummaryRow{
				{Label: "Pages", Value: strconv.Itoa(len(numbers))},
				{Label: "Output", Value: path},
			}))
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file, or directory with --burst")
	cmd.Flags().StringVar(&flags.pages, "pages", "", "pages to keep, in output order (e.g. 3,1,5-7)")
	cmd.Flags().StringSliceVar(&flags.rotate, "rotate", nil, "rotate page N clockwise, as N:degrees (e.g. 1:180)")
	cmd.Flags().BoolVar(&flags.burst, "burst", false, "write every page to its own PDF")
	cmd.Flags().BoolVar(&flags.zip, "zip", false, "with --burst, pack the pages into one zip archive")
	return cmd
}

func writeBurst(opts *cliOptions, flags splitFlags, blobs []model.Blob) error {
	dir := flags.output
	if dir == "" {
		dir = "."
	}
	written := make(map[string]bool)
	var paths []string
	if flags.zip {
		entries := make([]archive.Entry, len(blobs))
		for i, b := range blobs {
			entries[i] = archive.Entry{Name: b.Name, Data: b.Data}
		}
		data, err := archive.Build(entries)
		if err != nil {
			return err
		}
		path, err := writeBlob(dir, model.Blob{Name: archive.Name(time.Now()), MIMEType: model.MIMEZip, Data: data}, written)
		if err != nil {
			return err
		}
		paths = append(paths, path)
	} else {
		for _, b := range blobs {
			path, err := writeBlob(dir, b, written)
			if err != nil {
				return err
			}
			paths = append(paths, path)
		}
	}
	rows := []tui.SummaryRow{{Label: "Pages", Value: strconv.Itoa(len(blobs))}}
	for _, p := range paths {
		rows = append(rows, tui.SummaryRow{Label: "Output", Value: filepath.ToSlash(p)})
	}
	fmt.Fprintln(opts.stdout, tui.RenderSummary(rows))
	return nil
}

func assembleOptions(flags mergeFlags) assemble.ExportOptions {
	return assemble.ExportOptions{
		OCR:          flags.ocr,
		ImageQuality: min(max(flags.quality, 0), 100),
		Filename:     outputName(flags.output),
	}
}

// outputName is the file name part of an -o value, or "" for the default.
func outputName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

// parseRotations reads N:degrees pairs into a map keyed by the 1-based
// position N, which must be within 1..limit.
func parseRotations(values []string, limit int) (map[int]int, error) {
	out := make(map[int]int, len(values))
	for _, v := range values {
		pos, deg, ok := strings.Cut(v, ":")
		if !ok {
			return nil, fmt.Errorf("rotation %q: want N:degrees", v)
		}
		n, err := strconv.Atoi(strings.TrimSpace(pos))
		if err != nil || n < 1 || n > limit {
			return nil, fmt.Errorf("rotation %q: position must be 1..%d", v, limit)
		}
		d, err := strconv.Atoi(strings.TrimSpace(deg))
		if err != nil || d%90 != 0 {
			return nil, fmt.Errorf("rotation %q: degrees must be a multiple of 90", v)
		}
		out[n] += d
	}
	return out, nil
}

// parsePageList reads "3,1,5-7" into page numbers in the order given.
// Descending ranges such as "7-5" are allowed.
func parsePageList(s string, total int) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, to, isRange := strings.Cut(part, "-")
		first, err := pageNumber(from, total)
		if err != nil {
			return nil, err
		}
		last := first
		if isRange {
			if last, err = pageNumber(to, total); err != nil {
				return nil, err
			}
		}
		step := 1
		if last < first {
			step = -1
		}
		for n := first; ; n += step {
			out = append(out, n)
			if n == last {
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no pages in %q", s)
	}
	return out, nil
}

func pageNumber(s string, total int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > total {
		return 0, fmt.Errorf("page %q: must be 1..%d", s, total)
	}
	return n, nil
}
