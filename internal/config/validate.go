package config

import (
	"errors"
	"fmt"
	"strings"

	"cardsync/internal/ident"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateRegistry(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateSources()
}

func (c *Config) validateCatalog() error {
	if c.Catalog.PageSize > 1000 {
		return errors.New("catalog.page_size must be at most 1000")
	}
	if c.Catalog.BaseURL != "" && !hasHTTPScheme(c.Catalog.BaseURL) {
		return fmt.Errorf("catalog.base_url %q must start with http:// or https://", c.Catalog.BaseURL)
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageLocal:
		if c.Storage.LocalDir == "" {
			return errors.New("storage.local_dir must be set when storage.backend is local")
		}
	case StorageS3:
		if c.Storage.Endpoint == "" {
			return errors.New("storage.endpoint must be set when storage.backend is s3")
		}
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket must be set when storage.backend is s3")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return errors.New("storage.access_key and storage.secret_key are required for s3. Set CARDSYNC_S3_ACCESS_KEY and CARDSYNC_S3_SECRET_KEY or edit the config file")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported (use local or s3)", c.Storage.Backend)
	}
	switch c.Storage.Index {
	case IndexStore, IndexLedger:
	case IndexPostgREST, IndexAll:
		if err := c.requireCatalogAPI("storage.index=" + c.Storage.Index); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage.index %q is not supported (use store, postgrest, ledger, or all)", c.Storage.Index)
	}
	return nil
}

func (c *Config) validateRegistry() error {
	switch c.Registry.Backend {
	case RegistryNone, RegistryLedger:
	case RegistryPostgREST:
		if err := c.requireCatalogAPI("registry.backend=postgrest"); err != nil {
			return err
		}
	case RegistryPostgres:
		if c.Registry.DatabaseURL == "" {
			return errors.New("registry.database_url is required for the postgres registry. Set CARDSYNC_DATABASE_URL or edit the config file")
		}
	default:
		return fmt.Errorf("registry.backend %q is not supported (use none, postgrest, postgres, or ledger)", c.Registry.Backend)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Concurrency > MaxConcurrency {
		return fmt.Errorf("pipeline.concurrency must be at most %d", MaxConcurrency)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateSources() error {
	seen := make(map[string]struct{}, len(c.Sources))
	ranges := make([]ident.Range, 0, len(c.Sources))
	for i, src := range c.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		if src.Name == "" {
			return fmt.Errorf("%s.name must be set", field)
		}
		if _, dup := seen[src.Name]; dup {
			return fmt.Errorf("%s.name %q is configured more than once", field, src.Name)
		}
		seen[src.Name] = struct{}{}
		field = fmt.Sprintf("sources.%s", src.Name)

		if err := c.validateSource(field, src); err != nil {
			return err
		}
		ranges = append(ranges, ident.Range{Name: src.Name, Start: src.OffsetBase, Size: src.RangeSize})
	}
	if err := ident.ValidateRanges(ranges); err != nil {
		return fmt.Errorf("sources: %w", err)
	}
	return nil
}

func (c *Config) validateSource(field string, src Source) error {
	switch src.Kind {
	case KindPostgREST:
		if err := c.requireCatalogAPI(field + ".kind=postgrest"); err != nil {
			return err
		}
		if src.Language == "" {
			return fmt.Errorf("%s.language must be set for postgrest sources", field)
		}
	case KindJSONFile:
		if strings.TrimSpace(src.CatalogFile) == "" {
			return fmt.Errorf("%s.catalog_file must be set for jsonfile sources", field)
		}
	default:
		return fmt.Errorf("%s.kind %q is not supported (use postgrest or jsonfile)", field, src.Kind)
	}
	if src.OffsetBase < 0 {
		return fmt.Errorf("%s.offset_base must be non-negative", field)
	}
	if src.RangeSize <= 0 {
		return fmt.Errorf("%s.range_size must be positive", field)
	}
	if src.OffsetBase > (1<<63-1)-src.RangeSize {
		return fmt.Errorf("%s.offset_base + range_size overflows", field)
	}
	switch src.KeyLayout {
	case LayoutFlat:
	case LayoutCategoryGroup:
		if src.CategoryID <= 0 {
			return fmt.Errorf("%s.category_id must be set for the category_group key layout", field)
		}
	default:
		return fmt.Errorf("%s.key_layout %q is not supported (use flat or category_group)", field, src.KeyLayout)
	}
	switch src.Locator {
	case LocatorDirect:
	case LocatorKorean:
		if src.CDNBaseURL != "" && !hasHTTPScheme(src.CDNBaseURL) {
			return fmt.Errorf("%s.cdn_base_url %q must start with http:// or https://", field, src.CDNBaseURL)
		}
	case LocatorTemplate:
		if strings.TrimSpace(src.URLTemplate) == "" {
			return fmt.Errorf("%s.url_template must be set for the template locator", field)
		}
	default:
		return fmt.Errorf("%s.locator %q is not supported (use korean, direct, or template)", field, src.Locator)
	}
	switch src.FitPolicy {
	case FitThumbnail, FitAxis:
	default:
		return fmt.Errorf("%s.fit_policy %q is not supported (use thumbnail or fit_axis)", field, src.FitPolicy)
	}
	if src.Width <= 0 || src.Height <= 0 {
		return fmt.Errorf("%s.width and height must be positive", field)
	}
	switch src.Codec {
	case CodecWebP, CodecJPEG, CodecPNG:
	default:
		return fmt.Errorf("%s.codec %q is not supported (use webp, jpeg, or png)", field, src.Codec)
	}
	if src.Quality < 1 || src.Quality > 100 {
		return fmt.Errorf("%s.quality must be between 1 and 100", field)
	}
	if src.Concurrency < 0 || src.Concurrency > MaxConcurrency {
		return fmt.Errorf("%s.concurrency must be between 0 and %d", field, MaxConcurrency)
	}
	return nil
}

func (c *Config) requireCatalogAPI(context string) error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url must be set when %s", context)
	}
	if c.Catalog.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("catalog.api_key is required when %s. Set CARDSYNC_CATALOG_KEY env var or edit %s (create with 'cardsync config init')", context, defaultPath)
	}
	return nil
}

func hasHTTPScheme(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
