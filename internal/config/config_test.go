package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cardsync/internal/config"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CARDSYNC_CATALOG_KEY", "SUPABASE_KEY", "CARDSYNC_S3_ACCESS_KEY", "CARDSYNC_S3_SECRET_KEY", "CARDSYNC_DATABASE_URL"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearCredentialEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "cardsync")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Storage.Backend != config.StorageLocal {
		t.Fatalf("expected local storage by default, got %q", cfg.Storage.Backend)
	}
	if cfg.Registry.Backend != config.RegistryNone {
		t.Fatalf("expected no registry by default, got %q", cfg.Registry.Backend)
	}
	if cfg.Pipeline.Concurrency != 4 {
		t.Fatalf("unexpected default concurrency: %d", cfg.Pipeline.Concurrency)
	}
	if cfg.Pipeline.FetchTimeoutSeconds != 30 {
		t.Fatalf("unexpected fetch timeout: %d", cfg.Pipeline.FetchTimeoutSeconds)
	}
	if len(cfg.Sources) != 0 {
		t.Fatalf("expected no sources by default, got %d", len(cfg.Sources))
	}
	if cfg.LedgerPath() != filepath.Join(wantState, "ledger.db") {
		t.Fatalf("unexpected ledger path: %q", cfg.LedgerPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Storage.LocalDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPathAppliesSourceDefaults(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cardsync.toml")

	type source struct {
		Name        string `toml:"name"`
		Kind        string `toml:"kind"`
		CatalogFile string `toml:"catalog_file"`
		OffsetBase  int64  `toml:"offset_base"`
		Codec       string `toml:"codec"`
	}
	type payload struct {
		Pipeline struct {
			Concurrency int `toml:"concurrency"`
		} `toml:"pipeline"`
		Sources []source `toml:"sources"`
	}
	custom := payload{}
	custom.Pipeline.Concurrency = 12
	custom.Sources = []source{{
		Name:        " Chinese ",
		Kind:        "JSONFILE",
		CatalogFile: filepath.Join(tempDir, "cards.json"),
		OffsetBase:  200_000_000,
		Codec:       "jpg",
	}}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Pipeline.Concurrency != 12 {
		t.Fatalf("expected concurrency override, got %d", cfg.Pipeline.Concurrency)
	}
	src, err := cfg.Source("chinese")
	if err != nil {
		t.Fatalf("Source returned error: %v", err)
	}
	if src.Kind != config.KindJSONFile {
		t.Fatalf("expected kind normalized, got %q", src.Kind)
	}
	if src.Codec != config.CodecJPEG {
		t.Fatalf("expected jpg alias to normalize to jpeg, got %q", src.Codec)
	}
	if src.Width != 734 || src.Height != 1024 || src.Quality != 85 {
		t.Fatalf("unexpected image defaults: %dx%d q%d", src.Width, src.Height, src.Quality)
	}
	if src.FitPolicy != config.FitThumbnail {
		t.Fatalf("expected thumbnail fit by default, got %q", src.FitPolicy)
	}
	if src.RangeEnd() != 300_000_000 {
		t.Fatalf("unexpected range end: %d", src.RangeEnd())
	}
	if cfg.LockPath("chinese") != filepath.Join(cfg.Paths.StateDir, "chinese.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath("chinese"))
	}
}

func TestEnvVarFallbacksForCredentials(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SUPABASE_KEY", "supabase-key")
	t.Setenv("CARDSYNC_S3_ACCESS_KEY", "access")
	t.Setenv("CARDSYNC_S3_SECRET_KEY", "secret")
	t.Setenv("CARDSYNC_DATABASE_URL", "postgres://localhost/cards")

	configPath := filepath.Join(t.TempDir(), "cardsync.toml")
	content := `
[catalog]
base_url = "https://example.test/rest/v1/"

[storage]
backend = "s3"
endpoint = "minio.local:9000"
bucket = "cards"

[registry]
backend = "postgres"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Catalog.APIKey != "supabase-key" {
		t.Fatalf("expected catalog key from SUPABASE_KEY, got %q", cfg.Catalog.APIKey)
	}
	if cfg.Catalog.BaseURL != "https://example.test/rest/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Catalog.BaseURL)
	}
	if cfg.Storage.AccessKey != "access" || cfg.Storage.SecretKey != "secret" {
		t.Fatalf("unexpected s3 credentials: %q/%q", cfg.Storage.AccessKey, cfg.Storage.SecretKey)
	}
	if cfg.Registry.DatabaseURL != "postgres://localhost/cards" {
		t.Fatalf("unexpected database url: %q", cfg.Registry.DatabaseURL)
	}
}

func TestConfigFileCredentialTakesPrecedenceOverEnv(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CARDSYNC_CATALOG_KEY", "env-key")

	configPath := filepath.Join(t.TempDir(), "cardsync.toml")
	content := "[catalog]\nbase_url = \"https://example.test\"\napi_key = \"file-key\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Catalog.APIKey != "file-key" {
		t.Fatalf("expected config file key to win, got %q", cfg.Catalog.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read sample: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "your_catalog_api_key_here") {
		t.Fatal("expected sample config to contain api key placeholder")
	}

	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config should be valid TOML: %v", err)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("expected two sample sources, got %d", len(cfg.Sources))
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Catalog.BaseURL = "https://example.test"
		cfg.Catalog.APIKey = "key"
		cfg.Sources = []config.Source{
			{Name: "korean", Kind: config.KindPostgREST, Language: "ko", OffsetBase: 100_000_000, RangeSize: 100_000_000, CategoryID: 100087, KeyLayout: config.LayoutCategoryGroup, Locator: config.LocatorKorean, FitPolicy: config.FitThumbnail, Width: 734, Height: 1024, Codec: config.CodecWebP, Quality: 75},
			{Name: "chinese", Kind: config.KindJSONFile, CatalogFile: "/tmp/cards.json", OffsetBase: 200_000_000, RangeSize: 100_000_000, KeyLayout: config.LayoutFlat, Locator: config.LocatorDirect, FitPolicy: config.FitAxis, Width: 734, Height: 1024, Codec: config.CodecWebP, Quality: 85},
		}
		return cfg
	}

	valid := base()
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected base config to validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"overlapping ranges", func(c *config.Config) { c.Sources[1].OffsetBase = 150_000_000 }, "overlap"},
		{"duplicate names", func(c *config.Config) { c.Sources[1].Name = "korean" }, "more than once"},
		{"bad storage backend", func(c *config.Config) { c.Storage.Backend = "ftp" }, "storage.backend"},
		{"s3 without credentials", func(c *config.Config) {
			c.Storage.Backend = config.StorageS3
			c.Storage.Endpoint = "minio:9000"
		}, "access_key"},
		{"postgres without url", func(c *config.Config) { c.Registry.Backend = config.RegistryPostgres }, "database_url"},
		{"template without url", func(c *config.Config) { c.Sources[1].Locator = config.LocatorTemplate }, "url_template"},
		{"category layout without category", func(c *config.Config) { c.Sources[0].CategoryID = 0 }, "category_id"},
		{"bad fit policy", func(c *config.Config) { c.Sources[0].FitPolicy = "stretch" }, "fit_policy"},
		{"quality out of range", func(c *config.Config) { c.Sources[0].Quality = 101 }, "quality"},
		{"jsonfile without file", func(c *config.Config) { c.Sources[1].CatalogFile = "" }, "catalog_file"},
		{"postgrest without key", func(c *config.Config) { c.Catalog.APIKey = "" }, "catalog.api_key"},
		{"concurrency too high", func(c *config.Config) { c.Pipeline.Concurrency = 65 }, "pipeline.concurrency"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestSourceLookup(t *testing.T) {
	cfg := config.Default()
	cfg.Sources = []config.Source{{Name: "korean"}, {Name: "chinese"}}
	if _, err := cfg.Source(""); err == nil {
		t.Fatal("expected error when multiple sources and no name")
	}
	if _, err := cfg.Source("missing"); err == nil {
		t.Fatal("expected error for unknown source")
	}
	src, err := cfg.Source("KOREAN")
	if err != nil || src.Name != "korean" {
		t.Fatalf("unexpected lookup result: %+v %v", src, err)
	}
	if got := strings.Join(cfg.SourceNames(), ","); got != "korean,chinese" {
		t.Fatalf("unexpected source names: %q", got)
	}
}
