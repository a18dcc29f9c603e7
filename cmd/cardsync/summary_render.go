package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"cardsync/internal/ingest"
)

// maxProblemRows bounds the problem table in human output; JSON lists all.
const maxProblemRows = 10

func renderRunSummary(w io.Writer, summary ingest.RunSummary, logPath string, colorize bool) {
	title := "Run " + summary.Source
	if summary.DryRun {
		title += " (dry run)"
	}
	printLines(w, renderSectionHeader(title, colorize)...)
	printLines(w,
		renderValueLine("Run ID", summary.RunID),
		renderValueLine("Duration", summary.Duration.Round(time.Millisecond).String()),
		renderValueLine("Candidates", strconv.Itoa(summary.Candidates)),
		renderValueLine("Already present", strconv.Itoa(summary.Existing)),
		renderValueLine("Processed", strconv.Itoa(summary.Work)),
		renderValueLine("Written", fmt.Sprintf("%d (%s)", summary.Success+summary.Partial, humanize.IBytes(uint64(max(summary.Bytes, 0))))),
	)
	printLines(w,
		countLine("Success", summary.Success, statusOK, colorize),
		countLine("Partial", summary.Partial, statusWarn, colorize),
		countLine("Failed", summary.Failure, statusError, colorize),
		renderStatusLine("Skipped", statusInfo, strconv.Itoa(summary.Skipped), colorize),
		degradedLine("Catalog", summary.CatalogDegraded, summary.CatalogError, colorize),
		degradedLine("Existence index", summary.ExistingDegraded, summary.ExistingError, colorize),
	)
	if logPath != "" {
		printLines(w, renderValueLine("Log", logPath))
	}

	if len(summary.Problems) == 0 {
		return
	}
	fmt.Fprintln(w)
	printLines(w, renderSectionHeader("Problems", colorize)...)
	fmt.Fprintln(w, renderProblems(summary.Problems, maxProblemRows))
	if extra := len(summary.Problems) - maxProblemRows; extra > 0 {
		fmt.Fprintf(w, "... and %d more (use --json for the full list)\n", extra)
	}
}

func countLine(label string, count int, nonZero statusKind, colorize bool) string {
	kind := statusOK
	if count > 0 {
		kind = nonZero
	}
	return renderStatusLine(label, kind, strconv.Itoa(count), colorize)
}

func degradedLine(label string, degraded bool, detail string, colorize bool) string {
	if !degraded {
		return renderStatusLine(label, statusOK, "complete", colorize)
	}
	msg := "degraded"
	if detail = strings.TrimSpace(detail); detail != "" {
		msg += ": " + detail
	}
	return renderStatusLine(label, statusWarn, msg, colorize)
}

func renderProblems(problems []ingest.Outcome, limit int) string {
	if limit > 0 && len(problems) > limit {
		problems = problems[:limit]
	}
	rows := make([][]string, 0, len(problems))
	for _, p := range problems {
		rows = append(rows, []string{
			p.Target.String(),
			p.Label(),
			string(p.Kind),
			string(p.Reason),
			p.Message,
		})
	}
	return renderTable([]tableColumn{
		{Header: "Target", Align: alignRight},
		{Header: "Card", MaxWidth: 40},
		{Header: "Outcome"},
		{Header: "Reason"},
		{Header: "Error", MaxWidth: 60},
	}, rows)
}
