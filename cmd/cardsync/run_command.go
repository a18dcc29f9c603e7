package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"cardsync/internal/catalog"
	"cardsync/internal/ingestrun"
	"cardsync/internal/logging"
)

// errRunProblems is returned with --fail-on-error when any item failed.
var errRunProblems = errors.New("run finished with failed or partial items")

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		source        string
		concurrency   int
		groupIDs      []int64
		setCodes      []string
		limit         int
		dryRun        bool
		mappingFile   string
		writeMapping  bool
		jsonOutput    bool
		failOnError   bool
		skipPreflight bool
	)

	cmd := &cobra.Command{
		Use:   "run [source]",
		Short: "Ingest new card images for a source",
		Long: `Reads the source catalog, skips cards whose images already exist, and
fetches, resizes, stores, and registers the rest with a bounded worker pool.

Runs are idempotent: a second run over an unchanged catalog writes nothing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if source != "" && !strings.EqualFold(source, args[0]) {
					return fmt.Errorf("source given twice: %q and %q", args[0], source)
				}
				source = args[0]
			}
			src, err := cfg.Source(source)
			if err != nil {
				return err
			}
			if mappingFile == "" && writeMapping {
				mappingFile = cfg.MappingPath(src.Name)
			}

			logger, logPath, err := ctx.newLogger(true)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, runErr := ingestrun.Run(runCtx, cfg, ingestrun.Options{
				Source:      src.Name,
				Concurrency: concurrency,
				Filters: catalog.Filters{
					GroupIDs: groupIDs,
					SetCodes: setCodes,
					Limit:    limit,
				},
				DryRun:        dryRun,
				MappingFile:   mappingFile,
				SkipPreflight: skipPreflight,
			}, logger)
			if summary.RunID == "" {
				// Nothing ran; the error came from setup.
				return runErr
			}
			if runErr != nil {
				logging.WarnWithContext(logger, "run interrupted", "run_interrupted",
					logging.Error(runErr),
					logging.Hint("rerun the command; completed items will be skipped"),
					logging.Impact("remaining items were reported as skipped"))
			}

			if jsonOutput {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				renderRunSummary(out, summary, logPath, shouldColorize(out))
			}

			if runErr != nil {
				return runErr
			}
			if failOnError && summary.HasProblems() {
				return errRunProblems
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&source, "source", "s", "", "Configured source to ingest (optional with a single source)")
	flags.IntVarP(&concurrency, "concurrency", "j", 0, "Worker count (overrides source and pipeline settings)")
	flags.Int64SliceVar(&groupIDs, "group-ids", nil, "Only ingest cards from these catalog group ids")
	flags.StringSliceVar(&setCodes, "set-codes", nil, "Only ingest cards whose set name starts with these codes")
	flags.IntVar(&limit, "limit", 0, "Process at most this many candidates")
	flags.BoolVar(&dryRun, "dry-run", false, "Reconcile and report without fetching or writing")
	flags.StringVar(&mappingFile, "mapping-file", "", "Write the source/target id mapping to this JSON file")
	flags.BoolVar(&writeMapping, "write-mapping", false, "Write the mapping file to its default state directory location")
	flags.BoolVar(&jsonOutput, "json", false, "Print the run summary as JSON")
	flags.BoolVar(&failOnError, "fail-on-error", false, "Exit non-zero when any item failed or was only partially registered")
	flags.BoolVar(&skipPreflight, "skip-preflight", false, "Skip directory, disk space, and reachability checks")
	return cmd
}
