package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cardsync/internal/fetch"
	"cardsync/internal/imaging"
	"cardsync/internal/keys"
	"cardsync/internal/locate"
	"cardsync/internal/logging"
	"cardsync/internal/reconcile"
	"cardsync/internal/registry"
	"cardsync/internal/services"
	"cardsync/internal/store"
)

// Transformer converts fetched bytes into the encoded artifact.
type Transformer interface {
	Transform(raw []byte) (imaging.Output, error)
}

// Deps are the collaborators a Processor drives.
type Deps struct {
	Locator     locate.Locator
	Fetcher     fetch.Source
	Transformer Transformer
	Writer      store.Writer
	// Registrar is optional; nil skips registration.
	Registrar registry.Registrar
	// Ledger is an optional local record of landed artifacts. Its failures
	// are logged and do not change the outcome.
	Ledger registry.Registrar
}

// ProcessorOptions describe the source a Processor serves.
type ProcessorOptions struct {
	Source   string
	Language string
	Bucket   string
	Layout   keys.Layout
}

// Processor runs single work items through the pipeline steps.
type Processor struct {
	deps   Deps
	opts   ProcessorOptions
	logger *slog.Logger
}

// NewProcessor validates deps and returns a Processor.
func NewProcessor(deps Deps, opts ProcessorOptions, logger *slog.Logger) (*Processor, error) {
	switch {
	case deps.Locator == nil:
		return nil, errors.New("processor: locator is required")
	case deps.Fetcher == nil:
		return nil, errors.New("processor: fetcher is required")
	case deps.Transformer == nil:
		return nil, errors.New("processor: transformer is required")
	case deps.Writer == nil:
		return nil, errors.New("processor: writer is required")
	}
	return &Processor{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "processor"),
	}, nil
}

// Process runs one item. It never returns an error; failures are encoded in
// the Outcome.
func (p *Processor) Process(ctx context.Context, w reconcile.WorkItem) Outcome {
	start := time.Now()
	out := Outcome{
		Kind:   KindSuccess,
		Target: w.Target,
		Item:   w.Item,
		Key:    p.opts.Layout.Key(w.Target, w.Item.GroupID),
	}
	ctx = services.WithTargetID(ctx, int64(w.Target))

	out = p.run(ctx, w, out)
	out.Elapsed = time.Since(start)
	p.log(ctx, out)
	return out
}

func (p *Processor) run(ctx context.Context, w reconcile.WorkItem, out Outcome) Outcome {
	url, err := p.deps.Locator.Locate(w.Item)
	if err != nil {
		return out.withError(services.Wrap(services.ErrLocate, "locate", "resolve url", w.Item.Label(), err))
	}
	out.URL = url

	if DryRunFromContext(ctx) {
		out.Kind = KindSkipped
		out.Reason = ReasonDryRun
		return out
	}

	raw, err := p.deps.Fetcher.Get(ctx, url)
	if err != nil {
		return out.withError(services.Wrap(services.ErrFetch, "fetch", "download", url, err))
	}

	img, err := p.deps.Transformer.Transform(raw)
	if err != nil {
		return out.withError(services.Wrap(services.ErrTransform, "transform", "encode", "", err))
	}

	if err := p.deps.Writer.Put(ctx, out.Key, img.Data, img.ContentType); err != nil {
		return out.withError(services.Wrap(services.ErrPersist, "persist", "put", out.Key, err))
	}
	out.Bytes = int64(len(img.Data))
	out.ContentType = img.ContentType

	rec := p.record(ctx, out)
	if p.deps.Ledger != nil {
		if err := p.deps.Ledger.Upsert(ctx, rec); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, p.logger), "ledger record failed",
				"ledger_record_failed",
				logging.String("key", out.Key),
				logging.Error(err),
				logging.Hint("check the state directory and ledger.db permissions"),
				logging.Impact("the next run may re-download this item"))
		}
	}
	if p.deps.Registrar != nil {
		if err := p.deps.Registrar.Upsert(ctx, rec); err != nil {
			return out.withError(services.Wrap(services.ErrRegister, "register", "upsert", out.Key, err))
		}
	}
	return out
}

func (p *Processor) record(ctx context.Context, out Outcome) registry.Record {
	runID, _ := services.RunIDFromContext(ctx)
	return registry.Record{
		Target:      out.Target,
		Source:      p.opts.Source,
		Language:    p.opts.Language,
		Key:         out.Key,
		Bucket:      p.opts.Bucket,
		ContentType: out.ContentType,
		Bytes:       out.Bytes,
		SourceID:    out.Item.SourceID,
		GroupID:     out.Item.GroupID,
		CardNumber:  out.Item.CardNumber,
		RunID:       runID,
	}
}

func (p *Processor) log(ctx context.Context, out Outcome) {
	logger := logging.WithContext(ctx, p.logger)
	attrs := []logging.Attr{
		logging.String("label", out.Label()),
		logging.String("key", out.Key),
		logging.Duration("elapsed", out.Elapsed),
	}
	switch out.Kind {
	case KindSuccess:
		logger.DebugContext(ctx, "item landed", logging.Args(append(attrs, logging.Int64("bytes", out.Bytes))...)...)
	case KindSkipped:
		logger.DebugContext(ctx, "item skipped", logging.Args(append(attrs, logging.String("reason", string(out.Reason)))...)...)
	case KindPartial:
		logging.WarnWithContext(logger, "item landed but registration failed", "item_partial",
			append(attrs,
				logging.String("reason", string(out.Reason)),
				logging.Error(out.Err),
				logging.Hint("re-run registration; the artifact is already stored"),
				logging.Impact("artifact is not yet visible to downstream consumers"))...)
	default:
		logging.WarnWithContext(logger, "item failed", "item_failed",
			append(attrs,
				logging.String("reason", string(out.Reason)),
				logging.Error(out.Err),
				logging.Hint(hintFor(out.Reason)),
				logging.Impact("item skipped this run; the next run retries it"))...)
	}
}

func hintFor(reason Reason) string {
	switch reason {
	case ReasonLocateFailed:
		return "check the source locator settings and the item's set code or image url"
	case ReasonFetchFailed:
		return "check that the image url is reachable"
	case ReasonTransformFailed:
		return "the fetched bytes are not a supported image"
	case ReasonPersistFailed:
		return "check storage credentials, permissions, and free space"
	default:
		return "check logs for details"
	}
}
