package ingest

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"cardsync/internal/logging"
	"cardsync/internal/reconcile"
)

const (
	// DefaultConcurrency is the worker count when none is configured.
	DefaultConcurrency = 4
	// MaxConcurrency caps the worker pool.
	MaxConcurrency = 64
)

// ItemProcessor processes one work item. Implementations must be safe for
// concurrent use and must not touch other items.
type ItemProcessor interface {
	Process(ctx context.Context, w reconcile.WorkItem) Outcome
}

// Driver runs work items on a fixed worker pool.
type Driver struct {
	processor ItemProcessor
	logger    *slog.Logger
}

// NewDriver constructs a Driver.
func NewDriver(processor ItemProcessor, logger *slog.Logger) *Driver {
	return &Driver{
		processor: processor,
		logger:    logging.NewComponentLogger(logger, "driver"),
	}
}

// ClampConcurrency bounds n to [1, MaxConcurrency]; n <= 0 selects the default.
func ClampConcurrency(n int) int {
	switch {
	case n <= 0:
		return DefaultConcurrency
	case n > MaxConcurrency:
		return MaxConcurrency
	default:
		return n
	}
}

// Run processes items with at most concurrency in flight and returns the
// folded outcomes. Each item yields exactly one Outcome. After ctx is
// cancelled, items not yet started are reported as skipped/cancelled.
func (d *Driver) Run(ctx context.Context, items []reconcile.WorkItem, concurrency int) RunSummary {
	var summary RunSummary
	if len(items) == 0 {
		return summary
	}
	workers := min(ClampConcurrency(concurrency), len(items))

	jobs := make(chan reconcile.WorkItem, len(items))
	for _, item := range items {
		jobs <- item
	}
	close(jobs)

	outcomes := make(chan Outcome, workers)
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for job := range jobs {
				outcomes <- d.process(ctx, job)
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(outcomes)
	}()

	d.logger.Info("dispatching work",
		logging.String(logging.FieldEventType, "dispatch_started"),
		logging.Int("items", len(items)),
		logging.Int("workers", workers))

	sampler := logging.NewProgressSampler(5)
	done := 0
	for out := range outcomes {
		summary.Add(out)
		done++
		if sampler.ShouldLog(done, len(items)) {
			d.logger.Info("ingest progress",
				logging.String(logging.FieldEventType, "ingest_progress"),
				logging.Int("done", done),
				logging.Int("total", len(items)),
				logging.Float64("percent", logging.Percent(done, len(items))),
				logging.Int("success", summary.Success),
				logging.Int("failure", summary.Failure),
				logging.Int("partial", summary.Partial),
				logging.Int("skipped", summary.Skipped))
		}
	}
	return summary
}

func (d *Driver) process(ctx context.Context, job reconcile.WorkItem) Outcome {
	if ctx.Err() != nil {
		return skipped(job.Item, job.Target, ReasonCancelled)
	}
	out := d.processor.Process(ctx, job)
	// A failure caused by cancellation is not the item's fault.
	if out.Kind == KindFailure && ctx.Err() != nil {
		out.Kind = KindSkipped
		out.Reason = ReasonCancelled
	}
	return out
}
