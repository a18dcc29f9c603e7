package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cardsync/internal/ingestrun"
	"cardsync/internal/preflight"
)

var errPreflightFailed = errors.New("one or more required checks failed")

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor [source]",
		Short: "Check directories, disk space, and remote reachability for a source",
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

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			printLines(out, renderSectionHeader("Doctor "+src.Name, colorize)...)

			var remotes []preflight.Remote
			pipeline, buildErr := ingestrun.Build(cmd.Context(), cfg, src, "", logger)
			if buildErr != nil {
				printLines(out, renderStatusLine("Pipeline", statusError, buildErr.Error(), colorize))
			} else {
				defer pipeline.Close()
				remotes = pipeline.Remotes()
				printLines(out, renderStatusLine("Pipeline", statusOK, "assembled", colorize))
			}

			results := preflight.RunAll(cmd.Context(), cfg, src, remotes...)
			for _, r := range results {
				printLines(out, renderStatusLine(r.Name, resultKind(r), r.Detail, colorize))
			}

			if buildErr != nil {
				return fmt.Errorf("build pipeline: %w", buildErr)
			}
			if len(preflight.Failed(results)) > 0 {
				return errPreflightFailed
			}
			return nil
		},
	}
}

func resultKind(r preflight.Result) statusKind {
	switch {
	case r.Passed:
		return statusOK
	case r.Optional:
		return statusWarn
	default:
		return statusError
	}
}
