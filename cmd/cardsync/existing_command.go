package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"cardsync/internal/ingestrun"
)

type existingReport struct {
	Source   string `json:"source"`
	Existing int    `json:"existing"`
	Names    int    `json:"names_scanned"`
	Pages    int    `json:"pages"`
	Degraded bool   `json:"degraded"`
	Error    string `json:"error,omitempty"`
}

func newExistingCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "existing [source]",
		Short: "Count target ids already present in the existence index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			src, err := cfg.Source(name)
			if err != nil {
				return err
			}
			logger, _, err := ctx.newLogger(false)
			if err != nil {
				return err
			}

			pipeline, err := ingestrun.Build(cmd.Context(), cfg, src, "", logger)
			if err != nil {
				return err
			}
			defer pipeline.Close()

			snap := pipeline.Oracle.ExistingIDs(cmd.Context())
			report := existingReport{
				Source:   src.Name,
				Existing: snap.Len(),
				Names:    snap.Names,
				Pages:    snap.Pages,
				Degraded: snap.Degraded,
			}
			if snap.Err != nil {
				report.Error = snap.Err.Error()
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			printLines(out, renderSectionHeader("Existing "+src.Name, colorize)...)
			printLines(out,
				renderValueLine("Index", cfg.Storage.Index),
				renderValueLine("Existing ids", strconv.Itoa(report.Existing)),
				renderValueLine("Names scanned", strconv.Itoa(report.Names)),
				renderValueLine("Pages", strconv.Itoa(report.Pages)),
				degradedLine("Listing", report.Degraded, report.Error, colorize),
			)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the snapshot as JSON")
	return cmd
}
