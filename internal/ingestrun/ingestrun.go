// Package ingestrun assembles a source's pipeline from configuration and
// runs it under the per-source run lock.
package ingestrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cardsync/internal/catalog"
	"cardsync/internal/catalog/jsonfile"
	"cardsync/internal/catalog/supabase"
	"cardsync/internal/config"
	"cardsync/internal/existing"
	"cardsync/internal/fetch"
	"cardsync/internal/ident"
	"cardsync/internal/imaging"
	"cardsync/internal/ingest"
	"cardsync/internal/keys"
	"cardsync/internal/locate"
	"cardsync/internal/logging"
	"cardsync/internal/mapping"
	"cardsync/internal/postgrest"
	"cardsync/internal/preflight"
	"cardsync/internal/registry"
	"cardsync/internal/runlock"
	"cardsync/internal/services"
	"cardsync/internal/state"
	"cardsync/internal/store"
)

// Options configures one invocation.
type Options struct {
	Source        string
	Concurrency   int
	Filters       catalog.Filters
	DryRun        bool
	MappingFile   string
	SkipPreflight bool
}

// Pipeline holds the wired components for one source.
type Pipeline struct {
	Source    config.Source
	Mapper    ident.Mapper
	Layout    keys.Layout
	Catalog   *catalog.Reader
	Oracle    *existing.Oracle
	Processor *ingest.Processor
	Runner    *ingest.Runner
	Ledger    *state.Store

	remotes []preflight.Remote
	closers []func()
}

// Build wires every collaborator for src. Callers must Close the pipeline.
func Build(ctx context.Context, cfg *config.Config, src config.Source, mappingFile string, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	p := &Pipeline{
		Source: src,
		Mapper: ident.Mapper{OffsetBase: src.OffsetBase, RangeSize: src.RangeSize},
		Layout: keys.Layout{
			Kind:       src.KeyLayout,
			Prefix:     src.KeyPrefix,
			CategoryID: src.CategoryID,
			Ext:        keys.ExtForCodec(src.Codec),
		},
	}
	if err := p.build(ctx, cfg, mappingFile, logger); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) build(ctx context.Context, cfg *config.Config, mappingFile string, logger *slog.Logger) error {
	src := p.Source

	ledger, err := state.Open(cfg.LedgerPath())
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	p.Ledger = ledger
	p.closers = append(p.closers, func() { _ = ledger.Close() })

	var api *postgrest.Client
	if strings.TrimSpace(cfg.Catalog.BaseURL) != "" {
		api, err = postgrest.New(cfg.Catalog.BaseURL, cfg.Catalog.APIKey, time.Duration(cfg.Catalog.TimeoutSeconds)*time.Second)
		if err != nil {
			return fmt.Errorf("catalog client: %w", err)
		}
		p.remotes = append(p.remotes, preflight.Remote{Name: "Catalog API", Pinger: api, Optional: src.Kind != config.KindPostgREST})
	}

	source, err := catalogSource(src, api)
	if err != nil {
		return err
	}
	p.Catalog = catalog.NewReader(source, cfg.Catalog.PageSize, logger)

	objects, err := p.objectStore(cfg)
	if err != nil {
		return err
	}

	index, err := p.index(cfg, objects, api)
	if err != nil {
		return err
	}
	p.Oracle = existing.NewOracle(index, p.Layout, p.Mapper, existing.DefaultPageSize, logger)

	registrar, err := p.registrar(ctx, cfg, api)
	if err != nil {
		return err
	}

	locator, err := locate.New(src.Locator, src.CDNBaseURL, src.URLTemplate)
	if err != nil {
		return fmt.Errorf("source %s locator: %w", src.Name, err)
	}

	deps := ingest.Deps{
		Locator: locator,
		Fetcher: fetch.NewHTTPSource(
			time.Duration(cfg.Pipeline.FetchTimeoutSeconds)*time.Second,
			fetch.WithMaxBytes(cfg.Pipeline.MaxImageBytes),
			fetch.WithUserAgent(cfg.Pipeline.UserAgent),
		),
		Transformer: imaging.Transformer{
			FitPolicy: src.FitPolicy,
			Width:     src.Width,
			Height:    src.Height,
			Codec:     src.Codec,
			Quality:   src.Quality,
		},
		Writer:    objects,
		Registrar: registrar,
	}
	if cfg.Registry.Backend != config.RegistryLedger || !src.Register {
		deps.Ledger = ledger
	}
	p.Processor, err = ingest.NewProcessor(deps, ingest.ProcessorOptions{
		Source:   src.Name,
		Language: src.Language,
		Bucket:   cfg.Storage.Bucket,
		Layout:   p.Layout,
	}, logger)
	if err != nil {
		return err
	}

	var mapFile *mapping.File
	if strings.TrimSpace(mappingFile) != "" {
		path, err := config.ExpandPath(mappingFile)
		if err != nil {
			return fmt.Errorf("mapping file: %w", err)
		}
		mapFile = mapping.Open(path, logger)
	}

	p.Runner, err = ingest.NewRunner(ingest.RunnerConfig{
		Source:    src.Name,
		Mapper:    p.Mapper,
		Catalog:   p.Catalog,
		Oracle:    p.Oracle,
		Processor: p.Processor,
		Mapping:   mapFile,
		Recorder:  ledger,
		Logger:    logger,
	})
	return err
}

func catalogSource(src config.Source, api *postgrest.Client) (catalog.Source, error) {
	switch src.Kind {
	case config.KindJSONFile:
		return jsonfile.New(src.CatalogFile, src.CategoryID), nil
	case config.KindPostgREST:
		if api == nil {
			return nil, services.Wrap(services.ErrConfiguration, "catalog", src.Name, "postgrest source requires catalog.base_url", nil)
		}
		return supabase.New(api, supabase.Options{Language: src.Language, IDOffset: src.OffsetBase}), nil
	default:
		return nil, fmt.Errorf("source %s: unsupported kind %q", src.Name, src.Kind)
	}
}

func (p *Pipeline) objectStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageS3:
		s3, err := store.NewS3(store.S3Options{
			Endpoint:     cfg.Storage.Endpoint,
			Region:       cfg.Storage.Region,
			Bucket:       cfg.Storage.Bucket,
			AccessKey:    cfg.Storage.AccessKey,
			SecretKey:    cfg.Storage.SecretKey,
			UseSSL:       cfg.Storage.UseSSL,
			CacheControl: cfg.Storage.CacheControl,
			ListPrefix:   p.Layout.ListPrefix(),
		})
		if err != nil {
			return nil, err
		}
		p.remotes = append(p.remotes, preflight.Remote{Name: "Object store", Pinger: s3})
		return s3, nil
	default:
		return store.NewLocal(cfg.Storage.LocalDir)
	}
}

func (p *Pipeline) index(cfg *config.Config, objects store.Store, api *postgrest.Client) (existing.Index, error) {
	var remote existing.Index
	if api != nil {
		remote = existing.NewPostgRESTIndex(api, cfg.Registry.ObjectsTable, cfg.Storage.Bucket)
	}
	switch cfg.Storage.Index {
	case config.IndexPostgREST:
		if remote == nil {
			return nil, services.Wrap(services.ErrConfiguration, "existing", "index", "postgrest index requires catalog.base_url", nil)
		}
		return remote, nil
	case config.IndexLedger:
		return p.Ledger, nil
	case config.IndexAll:
		members := []existing.Index{objects, p.Ledger}
		if remote != nil {
			members = append(members, remote)
		}
		return existing.NewUnion(members...), nil
	default:
		return objects, nil
	}
}

func (p *Pipeline) registrar(ctx context.Context, cfg *config.Config, api *postgrest.Client) (registry.Registrar, error) {
	if !p.Source.Register {
		return nil, nil
	}
	switch cfg.Registry.Backend {
	case config.RegistryPostgREST:
		if api == nil {
			return nil, services.Wrap(services.ErrConfiguration, "registry", "postgrest", "requires catalog.base_url", nil)
		}
		return registry.NewPostgRESTRegistrar(api, cfg.Registry.ObjectsTable, cfg.Registry.LinksTable, cfg.Storage.CacheControl), nil
	case config.RegistryPostgres:
		pg, err := registry.OpenPostgres(ctx, cfg.Registry.DatabaseURL, cfg.Registry.ObjectsTable, cfg.Registry.LinksTable, cfg.Storage.CacheControl)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, pg.Close)
		p.remotes = append(p.remotes, preflight.Remote{Name: "Registry database", Pinger: pg})
		return pg, nil
	case config.RegistryLedger:
		return p.Ledger, nil
	default:
		return nil, nil
	}
}

// Remotes lists the network dependencies for preflight checks.
func (p *Pipeline) Remotes() []preflight.Remote {
	return append([]preflight.Remote(nil), p.remotes...)
}

// Close releases resources in reverse order of acquisition.
func (p *Pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	p.closers = nil
}

// Run resolves the source, takes its run lock, runs preflight, and executes
// one ingestion run.
func Run(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (ingest.RunSummary, error) {
	if cfg == nil {
		return ingest.RunSummary{}, errors.New("config is required")
	}
	src, err := cfg.Source(opts.Source)
	if err != nil {
		return ingest.RunSummary{}, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return ingest.RunSummary{}, err
	}

	lock, err := runlock.Acquire(cfg.LockPath(src.Name))
	if err != nil {
		return ingest.RunSummary{}, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logging.WarnWithContext(logger, "run lock not released", "runlock_release_failed",
				logging.Error(err),
				logging.Hint("remove the lock file if no cardsync process is running"),
				logging.Impact("the next run for this source may refuse to start"))
		}
	}()

	pipeline, err := Build(ctx, cfg, src, opts.MappingFile, logger)
	if err != nil {
		return ingest.RunSummary{}, err
	}
	defer pipeline.Close()

	if !opts.SkipPreflight {
		results := preflight.RunAll(ctx, cfg, src, pipeline.Remotes()...)
		if failed := preflight.Failed(results); len(failed) > 0 {
			details := make([]string, 0, len(failed))
			for _, r := range failed {
				details = append(details, r.Name+": "+r.Detail)
			}
			return ingest.RunSummary{}, services.Wrap(services.ErrConfiguration, "preflight", src.Name, strings.Join(details, "; "), nil)
		}
	}

	return pipeline.Runner.Run(ctx, ingest.Options{
		Concurrency: Concurrency(cfg, src, opts.Concurrency),
		Filters:     opts.Filters,
		DryRun:      opts.DryRun,
		NewestFirst: src.NewestFirst,
	})
}

// Concurrency resolves the worker count: flag, then source override, then
// the pipeline default.
func Concurrency(cfg *config.Config, src config.Source, flag int) int {
	switch {
	case flag > 0:
		return ingest.ClampConcurrency(flag)
	case src.Concurrency > 0:
		return ingest.ClampConcurrency(src.Concurrency)
	default:
		return ingest.ClampConcurrency(cfg.Pipeline.Concurrency)
	}
}
