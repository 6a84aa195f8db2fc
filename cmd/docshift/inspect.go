package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/DocShift/internal/classify"
	"github.com/dharsanguruparan/DocShift/internal/compat"
	"github.com/dharsanguruparan/DocShift/internal/model"
	"github.com/dharsanguruparan/DocShift/internal/tui"
)

func newClassifyCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file>...",
		Short: "Show the category of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := loadFiles(cmd.Context(), args, opts.cfg.MaxFileBytes)
			if err != nil {
				return err
			}
			rows := make([][]string, len(refs))
			for i, ref := range refs {
				info := classify.ClassifyContent(ref)
				rows[i] = []string{ref.Name, string(info.Category), info.Extension, info.MIMEType}
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderTable([]string{"FILE", "CATEGORY", "EXT", "MIME"}, rows))
			return nil
		},
	}
}

func newTargetsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "targets <file>...",
		Short: "List formats the whole batch can be converted to, and per-category groups",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := loadFiles(cmd.Context(), args, opts.cfg.MaxFileBytes)
			if err != nil {
				return err
			}
			infos := make([]model.FileTypeInfo, len(refs))
			entries := make([]compat.Entry, len(refs))
			for i, ref := range refs {
				infos[i] = classify.ClassifyContent(ref)
				entries[i] = compat.Entry{ID: ref.Name, Info: infos[i]}
			}
			out := cmd.OutOrStdout()

			targets := compat.ValidTargets(infos)
			if len(targets) == 0 {
				fmt.Fprintln(out, "No format fits every file; convert the groups below separately.")
			} else {
				rows := make([][]string, len(targets))
				for i, d := range targets {
					zip := ""
					if d.WillZip {
						zip = "yes"
					}
					rows[i] = []string{string(d.Format), d.Label, zip, d.Warning}
				}
				fmt.Fprintln(out, tui.RenderTable([]string{"FORMAT", "LABEL", "ZIP", "NOTE"}, rows))
			}

			fmt.Fprintln(out)
			groups := compat.Group(entries)
			rows := make([][]string, len(groups))
			for i, g := range groups {
				formats := make([]string, len(g.ValidFormats))
				for j, d := range g.ValidFormats {
					formats[j] = string(d.Format)
				}
				rows[i] = []string{g.Name, strings.Join(g.FileIDs, ", "), strings.Join(formats, " "), string(g.SuggestedFormat)}
			}
			fmt.Fprintln(out, tui.RenderTable([]string{"GROUP", "FILES", "FORMATS", "SUGGESTED"}, rows))
			return nil
		},
	}
}
