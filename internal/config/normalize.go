package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeRegistry()
	c.normalizePipeline()
	c.normalizeLogging()
	return c.normalizeSources()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	c.Catalog.APIKey = strings.TrimSpace(c.Catalog.APIKey)
	if c.Catalog.APIKey == "" {
		c.Catalog.APIKey = firstEnv("CARDSYNC_CATALOG_KEY", "SUPABASE_KEY")
	}
	if c.Catalog.PageSize <= 0 {
		c.Catalog.PageSize = defaultCatalogPageSize
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		c.Catalog.TimeoutSeconds = defaultCatalogTimeout
	}
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	c.Storage.Index = strings.ToLower(strings.TrimSpace(c.Storage.Index))
	if c.Storage.Index == "" {
		c.Storage.Index = defaultStorageIndex
	}
	if strings.TrimSpace(c.Storage.LocalDir) == "" {
		c.Storage.LocalDir = defaultLocalStorageDir
	}
	var err error
	if c.Storage.LocalDir, err = expandPath(c.Storage.LocalDir); err != nil {
		return fmt.Errorf("storage.local_dir: %w", err)
	}
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	if c.Storage.AccessKey == "" {
		c.Storage.AccessKey = strings.TrimSpace(os.Getenv("CARDSYNC_S3_ACCESS_KEY"))
	}
	if c.Storage.SecretKey == "" {
		c.Storage.SecretKey = strings.TrimSpace(os.Getenv("CARDSYNC_S3_SECRET_KEY"))
	}
	if strings.TrimSpace(c.Storage.CacheControl) == "" {
		c.Storage.CacheControl = defaultCacheControl
	}
	return nil
}

func (c *Config) normalizeRegistry() {
	c.Registry.Backend = strings.ToLower(strings.TrimSpace(c.Registry.Backend))
	if c.Registry.Backend == "" {
		c.Registry.Backend = defaultRegistryBackend
	}
	c.Registry.DatabaseURL = strings.TrimSpace(c.Registry.DatabaseURL)
	if c.Registry.DatabaseURL == "" {
		c.Registry.DatabaseURL = firstEnv("CARDSYNC_DATABASE_URL")
	}
	if strings.TrimSpace(c.Registry.ObjectsTable) == "" {
		c.Registry.ObjectsTable = defaultObjectsTable
	}
	if strings.TrimSpace(c.Registry.LinksTable) == "" {
		c.Registry.LinksTable = defaultLinksTable
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Concurrency <= 0 {
		c.Pipeline.Concurrency = defaultPipelineConcurrency
	}
	if c.Pipeline.FetchTimeoutSeconds <= 0 {
		c.Pipeline.FetchTimeoutSeconds = defaultFetchTimeout
	}
	if c.Pipeline.MaxImageBytes <= 0 {
		c.Pipeline.MaxImageBytes = defaultMaxImageBytes
	}
	if strings.TrimSpace(c.Pipeline.UserAgent) == "" {
		c.Pipeline.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeSources() error {
	for i := range c.Sources {
		src := &c.Sources[i]
		src.Name = strings.ToLower(strings.TrimSpace(src.Name))
		src.Kind = strings.ToLower(strings.TrimSpace(src.Kind))
		src.Language = strings.TrimSpace(src.Language)
		src.KeyLayout = strings.ToLower(strings.TrimSpace(src.KeyLayout))
		src.KeyPrefix = strings.Trim(strings.TrimSpace(src.KeyPrefix), "/")
		src.Locator = strings.ToLower(strings.TrimSpace(src.Locator))
		src.FitPolicy = strings.ToLower(strings.TrimSpace(src.FitPolicy))
		src.Codec = strings.ToLower(strings.TrimSpace(src.Codec))
		if src.Codec == "jpg" {
			src.Codec = CodecJPEG
		}
		src.CDNBaseURL = strings.TrimRight(strings.TrimSpace(src.CDNBaseURL), "/")
		applySourceDefaults(src)
		if strings.TrimSpace(src.CatalogFile) != "" {
			expanded, err := expandPath(src.CatalogFile)
			if err != nil {
				return fmt.Errorf("sources[%d].catalog_file: %w", i, err)
			}
			src.CatalogFile = expanded
		}
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
