package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cardsync/internal/state"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect locally recorded artifacts and runs",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerRunsCommand(ctx))
	return ledgerCmd
}

func (c *commandContext) withLedger(fn func(*state.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := state.Open(cfg.LedgerPath())
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var source string
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List landed artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *state.Store) error {
				artifacts, err := store.List(cmd.Context(), state.ListOptions{Source: source, Limit: limit})
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, artifacts)
				}
				out := cmd.OutOrStdout()
				if len(artifacts) == 0 {
					fmt.Fprintln(out, "No artifacts recorded")
					return nil
				}
				rows := make([][]string, 0, len(artifacts))
				for _, a := range artifacts {
					rows = append(rows, []string{
						a.Target.String(),
						a.Source,
						a.CardNumber,
						a.Key,
						humanize.IBytes(uint64(max(a.Bytes, 0))),
						humanize.Time(a.UpdatedAt),
					})
				}
				fmt.Fprintln(out, renderTable([]tableColumn{
					{Header: "Target", Align: alignRight},
					{Header: "Source"},
					{Header: "Card"},
					{Header: "Key", MaxWidth: 60},
					{Header: "Size", Align: alignRight},
					{Header: "Updated"},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "Only list artifacts for this source")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print artifacts as JSON")
	return cmd
}

func newLedgerRunsCommand(ctx *commandContext) *cobra.Command {
	var source string
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *state.Store) error {
				runs, err := store.Runs(cmd.Context(), source, limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						r.StartedAt.Local().Format(time.DateTime),
						r.Source,
						strconv.Itoa(r.Candidates),
						strconv.Itoa(r.Written),
						strconv.Itoa(r.Partial),
						strconv.Itoa(r.Failed),
						strconv.Itoa(r.Skipped),
						humanize.IBytes(uint64(max(r.Bytes, 0))),
						runFlags(r),
					})
				}
				fmt.Fprintln(out, renderTable([]tableColumn{
					{Header: "Started"},
					{Header: "Source"},
					{Header: "Candidates", Align: alignRight},
					{Header: "Written", Align: alignRight},
					{Header: "Partial", Align: alignRight},
					{Header: "Failed", Align: alignRight},
					{Header: "Skipped", Align: alignRight},
					{Header: "Bytes", Align: alignRight},
					{Header: "Notes"},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "Only list runs for this source")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	return cmd
}

func runFlags(r state.Run) string {
	var notes []string
	if r.DryRun {
		notes = append(notes, "dry run")
	}
	if r.CatalogDegraded {
		notes = append(notes, "catalog degraded")
	}
	if r.ExistingDegraded {
		notes = append(notes, "index degraded")
	}
	return strings.Join(notes, ", ")
}
