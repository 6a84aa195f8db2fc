package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dharsanguruparan/DocShift/internal/model"
	"github.com/dharsanguruparan/DocShift/internal/processing"
	"github.com/dharsanguruparan/DocShift/internal/tui"
)

type convertFlags struct {
	target string
	outDir string
	zip    bool
	report string
	plain  bool
}

// convertReport is what --report writes.
type convertReport struct {
	Target    model.Format               `yaml:"target"`
	Settings  model.PreservationSettings `yaml:"settings"`
	Total     int                        `yaml:"total"`
	Completed int                        `yaml:"completed"`
	Failed    int                        `yaml:"failed"`
	Outputs   []string                   `yaml:"outputs,omitempty"`
	Items     []model.QueueItem          `yaml:"items"`
}

func newConvertCmd(opts *cliOptions) *cobra.Command {
	var flags convertFlags
	cmd := &cobra.Command{
		Use:   "convert --to <format> <file>...",
		Short: "Convert a batch of files to one target format",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := model.ParseFormat(flags.target)
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), opts, flags, target, args)
		},
	}
	cmd.Flags().StringVar(&flags.target, "to", "", "target format (pdf, docx, txt, jpg, png, csv)")
	cmd.Flags().StringVarP(&flags.outDir, "out", "o", ".", "directory for converted files")
	cmd.Flags().BoolVar(&flags.zip, "zip", false, "write every result into one zip archive")
	cmd.Flags().StringVar(&flags.report, "report", "", "write a YAML report of the batch to this file")
	cmd.Flags().BoolVar(&flags.plain, "plain", false, "print progress lines instead of the interactive view")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runConvert(ctx context.Context, opts *cliOptions, flags convertFlags, target model.Format, paths []string) error {
	refs, err := loadFiles(ctx, paths, opts.cfg.MaxFileBytes)
	if err != nil {
		return err
	}

	interactive := !flags.plain
	logger := opts.logger
	if interactive {
		// Log lines would tear the live view.
		logger = slog.New(slog.DiscardHandler)
	}
	conv, err := buildEngine(&cliOptions{cfg: opts.cfg, logger: logger})
	if err != nil {
		return err
	}

	settings := opts.cfg.Settings()
	var (
		events chan processing.Event
		qopts  = []processing.Option{processing.WithLogger(logger)}
	)
	if interactive {
		events = make(chan processing.Event, 16)
		qopts = append(qopts, processing.WithEvents(events))
	} else {
		qopts = append(qopts, processing.WithBatchProgress(func(done, total int) {
			fmt.Fprintf(opts.stderr, "[%d/%d] converted\n", done, total)
		}))
	}
	q := processing.New(conv, qopts...)
	q.Add(refs...)

	var summary processing.BatchSummary
	if interactive {
		summary, err = convertWithView(ctx, q, events, target, &settings, len(refs), opts.stdout)
	} else {
		summary, err = q.ConvertAll(ctx, target, &settings)
	}
	if err != nil {
		var rejected *processing.BatchRejectedError
		if errors.As(err, &rejected) {
			return fmt.Errorf("nothing converted: %s cannot become %s: %s", rejected.Filename, target.Label(), rejected.Reason)
		}
		return err
	}

	outputs, err := writeResults(q, flags)
	if err != nil {
		return err
	}
	if flags.report != "" {
		if err := writeReport(flags.report, convertReport{
			Target:    target,
			Settings:  settings,
			Total:     summary.Total,
			Completed: summary.Completed,
			Failed:    summary.Failed,
			Outputs:   outputs,
			Items:     q.Items(),
		}); err != nil {
			return err
		}
	}

	rows := []tui.SummaryRow{
		{Label: "Target", Value: target.Label()},
		{Label: "Files", Value: strconv.Itoa(summary.Total)},
		{Label: "Converted", Value: strconv.Itoa(summary.Completed)},
		{Label: "Failed", Value: strconv.Itoa(summary.Failed)},
	}
	for _, item := range q.Items() {
		if item.Status == model.StatusFailed {
			rows = append(rows, tui.SummaryRow{Label: item.Filename, Value: item.Error})
		}
	}
	for _, path := range outputs {
		rows = append(rows, tui.SummaryRow{Label: "Output", Value: path})
	}
	fmt.Fprintln(opts.stdout, tui.RenderSummary(rows))

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Total)
	}
	return nil
}

// convertWithView runs the batch while a bubbletea program renders its
// events. Quitting the view cancels the batch.
func convertWithView(ctx context.Context, q *processing.Queue, events chan processing.Event, target model.Format, settings *model.PreservationSettings, total int, out io.Writer) (processing.BatchSummary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(tui.NewModel(events, target, total), tea.WithOutput(out), tea.WithContext(ctx))
	uiDone := make(chan error, 1)
	go func() {
		_, err := program.Run()
		cancel()
		uiDone <- err
	}()

	summary, err := q.ConvertAll(ctx, target, settings)
	close(events)
	uiErr := <-uiDone
	if err != nil {
		return summary, err
	}
	if uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		return summary, uiErr
	}
	return summary, nil
}

func writeResults(q *processing.Queue, flags convertFlags) ([]string, error) {
	written := make(map[string]bool)
	if flags.zip {
		blob, err := q.Archive()
		if errors.Is(err, processing.ErrNoResults) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		path, err := writeBlob(flags.outDir, *blob, written)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	results, err := q.Results()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(results))
	for _, blob := range results {
		path, err := writeBlob(flags.outDir, blob, written)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeReport(path string, report convertReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
