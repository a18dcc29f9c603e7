package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cardsync/internal/catalog"
	"cardsync/internal/existing"
	"cardsync/internal/ident"
	"cardsync/internal/logging"
	"cardsync/internal/mapping"
	"cardsync/internal/reconcile"
	"cardsync/internal/services"
	"cardsync/internal/state"
)

// CatalogReader reads the candidate list.
type CatalogReader interface {
	FetchAll(ctx context.Context, filters catalog.Filters) catalog.Result
}

// ExistenceOracle snapshots what is already stored.
type ExistenceOracle interface {
	ExistingIDs(ctx context.Context) existing.Snapshot
}

// RunRecorder persists run summaries.
type RunRecorder interface {
	RecordRun(ctx context.Context, r state.Run) error
}

// Options control one run.
type Options struct {
	Concurrency int
	Filters     catalog.Filters
	DryRun      bool
	NewestFirst bool
}

// RunnerConfig wires a Runner for one source.
type RunnerConfig struct {
	Source    string
	Mapper    ident.Mapper
	Catalog   CatalogReader
	Oracle    ExistenceOracle
	Processor ItemProcessor
	// Mapping and Recorder are optional.
	Mapping  *mapping.File
	Recorder RunRecorder
	Logger   *slog.Logger
}

// Runner executes end-to-end runs for one source.
type Runner struct {
	cfg    RunnerConfig
	driver *Driver
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

// NewRunner validates cfg and constructs a Runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	switch {
	case cfg.Catalog == nil:
		return nil, errors.New("runner: catalog reader is required")
	case cfg.Oracle == nil:
		return nil, errors.New("runner: existence oracle is required")
	case cfg.Processor == nil:
		return nil, errors.New("runner: processor is required")
	}
	return &Runner{
		cfg:    cfg,
		driver: NewDriver(cfg.Processor, cfg.Logger),
		logger: logging.NewComponentLogger(cfg.Logger, "runner"),
		newID:  uuid.NewString,
		now:    time.Now,
	}, nil
}

// Run reads the catalog, reconciles it against the store, and processes the
// missing items. Catalog and existence failures degrade the run instead of
// aborting it. The error is non-nil only when ctx ends the run early; the
// summary is valid either way.
func (r *Runner) Run(ctx context.Context, opts Options) (RunSummary, error) {
	summary := RunSummary{
		RunID:     r.newID(),
		Source:    r.cfg.Source,
		StartedAt: r.now(),
		DryRun:    opts.DryRun,
	}
	ctx = services.WithRunID(ctx, summary.RunID)
	ctx = services.WithSource(ctx, r.cfg.Source)
	ctx = WithDryRun(ctx, opts.DryRun)
	logger := logging.WithContext(ctx, r.logger)

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_started"),
		logging.Bool("dry_run", opts.DryRun),
		logging.Int("concurrency", ClampConcurrency(opts.Concurrency)))

	result := r.cfg.Catalog.FetchAll(ctx, opts.Filters)
	summary.Candidates = len(result.Items)
	summary.CatalogDegraded = result.Degraded
	if result.Err != nil {
		summary.CatalogError = result.Err.Error()
	}
	logger.Info("catalog read",
		logging.String(logging.FieldEventType, "catalog_read"),
		logging.Int("items", len(result.Items)),
		logging.Int("pages", result.Pages),
		logging.Int("duplicates", result.Duplicates),
		logging.Int("filtered", result.Filtered),
		logging.Bool("degraded", result.Degraded))

	snap := r.cfg.Oracle.ExistingIDs(ctx)
	summary.ExistingDegraded = snap.Degraded
	if snap.Err != nil {
		summary.ExistingError = snap.Err.Error()
	}

	plan := reconcile.Reconcile(result.Items, snap, r.cfg.Mapper)
	if opts.NewestFirst {
		reconcile.SortNewestFirst(plan.Work)
	}
	summary.Existing = len(plan.Present)
	summary.Work = len(plan.Work)
	logger.Info("reconciled",
		logging.String(logging.FieldEventType, "reconciled"),
		logging.Int("existing_known", snap.Len()),
		logging.Int("present", len(plan.Present)),
		logging.Int("work", len(plan.Work)),
		logging.Int("rejected", len(plan.Rejected)))

	for _, w := range plan.Present {
		summary.Add(skipped(w.Item, w.Target, ReasonExists))
	}
	for _, rej := range plan.Rejected {
		summary.Add(Outcome{Item: rej.Item}.withError(rej.Err))
	}

	processed := r.driver.Run(ctx, plan.Work, opts.Concurrency)
	summary.merge(processed)
	summary.Duration = r.now().Sub(summary.StartedAt)

	r.saveMapping(logger, summary)
	r.recordRun(ctx, logger, summary)

	logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_finished"),
		logging.Int("success", summary.Success),
		logging.Int("failure", summary.Failure),
		logging.Int("partial", summary.Partial),
		logging.Int("skipped", summary.Skipped),
		logging.Int64("bytes", summary.Bytes),
		logging.Bool("degraded", summary.Degraded()),
		logging.Duration("duration", summary.Duration))

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Runner) saveMapping(logger *slog.Logger, summary RunSummary) {
	if r.cfg.Mapping == nil || summary.DryRun {
		return
	}
	for _, o := range summary.Outcomes {
		if !o.Landed() {
			continue
		}
		r.cfg.Mapping.Add(mapping.Entry{
			SourceID:   o.Item.SourceID,
			TargetID:   int64(o.Target),
			GroupID:    o.Item.GroupID,
			CardNumber: o.Item.CardNumber,
			Name:       o.Item.DisplayName,
			Key:        o.Key,
			Bytes:      o.Bytes,
		})
	}
	if err := r.cfg.Mapping.Save(); err != nil {
		logging.WarnWithContext(logger, "mapping file not saved",
			"mapping_save_failed",
			logging.Error(err),
			logging.Hint("check the mapping file path and permissions"),
			logging.Impact("downstream registration lacks this run's entries"))
	}
}

func (r *Runner) recordRun(ctx context.Context, logger *slog.Logger, summary RunSummary) {
	if r.cfg.Recorder == nil {
		return
	}
	// Record even when ctx was cancelled so interrupted runs are visible.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := r.cfg.Recorder.RecordRun(recordCtx, state.Run{
		RunID:            summary.RunID,
		Source:           summary.Source,
		StartedAt:        summary.StartedAt,
		FinishedAt:       summary.StartedAt.Add(summary.Duration),
		DryRun:           summary.DryRun,
		Candidates:       summary.Candidates,
		Written:          summary.Success + summary.Partial,
		Skipped:          summary.Skipped,
		Partial:          summary.Partial,
		Failed:           summary.Failure,
		Bytes:            summary.Bytes,
		CatalogDegraded:  summary.CatalogDegraded,
		ExistingDegraded: summary.ExistingDegraded,
	})
	if err != nil {
		logging.WarnWithContext(logger, "run summary not recorded",
			"run_record_failed",
			logging.Error(err),
			logging.Hint("check the ledger database"),
			logging.Impact("cardsync ledger runs will not list this run"))
	}
}
