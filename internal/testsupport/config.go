package testsupport

import (
	"path/filepath"
	"testing"

	"cardsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test,
// local storage, and no sources unless options add them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Storage.Backend = config.StorageLocal
	cfgVal.Storage.LocalDir = filepath.Join(base, "images")
	cfgVal.Storage.Index = config.IndexStore
	cfgVal.Registry.Backend = config.RegistryNone
	cfgVal.Pipeline.MaxImageBytes = 1 << 20

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithSource appends a source, filling unset fields with test defaults.
func WithSource(src config.Source) ConfigOption {
	return func(b *configBuilder) {
		if src.Name == "" {
			src.Name = "test"
		}
		if src.Kind == "" {
			src.Kind = config.KindJSONFile
		}
		if src.CatalogFile == "" {
			src.CatalogFile = filepath.Join(b.baseDir, src.Name+".json")
		}
		if src.RangeSize == 0 {
			src.RangeSize = 100_000_000
		}
		if src.KeyLayout == "" {
			src.KeyLayout = config.LayoutFlat
		}
		if src.Locator == "" {
			src.Locator = config.LocatorDirect
		}
		if src.FitPolicy == "" {
			src.FitPolicy = config.FitThumbnail
		}
		if src.Width == 0 {
			src.Width = 64
		}
		if src.Height == 0 {
			src.Height = 64
		}
		if src.Codec == "" {
			src.Codec = config.CodecPNG
		}
		if src.Quality == 0 {
			src.Quality = 85
		}
		b.cfg.Sources = append(b.cfg.Sources, src)
	}
}

// WithConcurrency sets the pipeline worker count.
func WithConcurrency(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Concurrency = n
	}
}

// WithLedger selects the SQLite ledger as index and registry.
func WithLedger() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Index = config.IndexLedger
		b.cfg.Registry.Backend = config.RegistryLedger
	}
}

// BaseDir returns the temp directory backing cfg.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
