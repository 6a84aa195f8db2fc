package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/DocShift/internal/config"
)

// cliOptions is shared by every subcommand. PersistentPreRunE fills cfg and
// logger before any RunE runs.
type cliOptions struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand(&cliOptions{stdout: os.Stdout, stderr: os.Stderr})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "docshift: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docshift",
		Short: "Convert, merge and split documents locally",
		Long: `DocShift classifies files, tells you which formats they can be converted to,
converts batches of them and assembles PDFs from pages and images. Nothing leaves
the machine unless an HTTP OCR endpoint is configured.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			opts.cfg = cfg
			opts.logger = newLogger(opts.stderr, parseLevel(cfg.Log.Level))
			if cfg.File != "" {
				opts.logger.Debug("using config file", slog.String("path", cfg.File))
			}
			return nil
		},
	}
	cmd.SetOut(opts.stdout)
	cmd.SetErr(opts.stderr)
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./docshift.yaml or ~/.config/docshift/docshift.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.AddCommand(
		newClassifyCmd(opts),
		newTargetsCmd(opts),
		newConvertCmd(opts),
		newMergeCmd(opts),
		newSplitCmd(opts),
	)
	return cmd
}
