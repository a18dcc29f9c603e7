package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cardsync/internal/config"
)

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List configured sources and their identifier ranges",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, cfg.Sources)
			}
			out := cmd.OutOrStdout()
			if len(cfg.Sources) == 0 {
				fmt.Fprintln(out, "No sources configured (add [[sources]] to the config file)")
				return nil
			}
			rows := make([][]string, 0, len(cfg.Sources))
			for _, src := range cfg.Sources {
				rows = append(rows, []string{
					src.Name,
					src.Kind,
					src.Language,
					fmt.Sprintf("[%d, %d)", src.OffsetBase, src.RangeEnd()),
					src.KeyLayout,
					shapeOf(src),
					yesNo(src.Register),
				})
			}
			fmt.Fprintln(out, renderTable([]tableColumn{
				{Header: "Name"},
				{Header: "Kind"},
				{Header: "Language"},
				{Header: "Target ids"},
				{Header: "Layout"},
				{Header: "Output"},
				{Header: "Register"},
			}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print sources as JSON")
	return cmd
}

func shapeOf(src config.Source) string {
	return src.FitPolicy + " " + strconv.Itoa(src.Width) + "x" + strconv.Itoa(src.Height) + " " + src.Codec
}
