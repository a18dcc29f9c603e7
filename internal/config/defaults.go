package config

const (
	defaultConfigPath          = "~/.config/cardsync/config.toml"
	defaultStateDir            = "~/.local/share/cardsync"
	defaultLogDir              = "~/.local/share/cardsync/logs"
	defaultLocalStorageDir     = "~/.local/share/cardsync/images"
	defaultLogRetentionDays    = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultCatalogPageSize     = 1000
	defaultCatalogTimeout      = 30
	defaultStorageBackend      = StorageLocal
	defaultStorageIndex        = IndexStore
	defaultStorageBucket       = "card-images"
	defaultStorageRegion       = "us-east-1"
	defaultCacheControl        = "public, max-age=31536000"
	defaultRegistryBackend     = RegistryNone
	defaultObjectsTable        = "storage.objects"
	defaultLinksTable          = "card_language_links"
	defaultPipelineConcurrency = 4
	defaultFetchTimeout        = 30
	defaultMaxImageBytes       = 20 << 20
	defaultUserAgent           = "cardsync/dev"
	defaultRangeSize           = 100_000_000
	defaultImageWidth          = 734
	defaultImageHeight         = 1024
	defaultImageQuality        = 85

	// MaxConcurrency bounds worker pools regardless of configuration.
	MaxConcurrency = 64
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Existence index selections.
const (
	IndexStore     = "store"
	IndexPostgREST = "postgrest"
	IndexLedger    = "ledger"
	IndexAll       = "all"
)

// Registry backends.
const (
	RegistryNone      = "none"
	RegistryPostgREST = "postgrest"
	RegistryPostgres  = "postgres"
	RegistryLedger    = "ledger"
)

// Catalog source kinds.
const (
	KindPostgREST = "postgrest"
	KindJSONFile  = "jsonfile"
)

// Key layouts.
const (
	LayoutFlat          = "flat"
	LayoutCategoryGroup = "category_group"
)

// Locators.
const (
	LocatorKorean   = "korean"
	LocatorDirect   = "direct"
	LocatorTemplate = "template"
)

// Fit policies.
const (
	FitThumbnail = "thumbnail"
	FitAxis      = "fit_axis"
)

// Codecs.
const (
	CodecWebP = "webp"
	CodecJPEG = "jpeg"
	CodecPNG  = "png"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Catalog: Catalog{
			PageSize:       defaultCatalogPageSize,
			TimeoutSeconds: defaultCatalogTimeout,
		},
		Storage: Storage{
			Backend:      defaultStorageBackend,
			LocalDir:     defaultLocalStorageDir,
			Bucket:       defaultStorageBucket,
			Region:       defaultStorageRegion,
			UseSSL:       true,
			CacheControl: defaultCacheControl,
			Index:        defaultStorageIndex,
		},
		Registry: Registry{
			Backend:      defaultRegistryBackend,
			ObjectsTable: defaultObjectsTable,
			LinksTable:   defaultLinksTable,
		},
		Pipeline: Pipeline{
			Concurrency:         defaultPipelineConcurrency,
			FetchTimeoutSeconds: defaultFetchTimeout,
			MaxImageBytes:       defaultMaxImageBytes,
			UserAgent:           defaultUserAgent,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

// applySourceDefaults fills unset per-source fields.
func applySourceDefaults(src *Source) {
	if src.Kind == "" {
		src.Kind = KindPostgREST
	}
	if src.RangeSize == 0 {
		src.RangeSize = defaultRangeSize
	}
	if src.KeyLayout == "" {
		src.KeyLayout = LayoutFlat
	}
	if src.Locator == "" {
		src.Locator = LocatorDirect
	}
	if src.FitPolicy == "" {
		src.FitPolicy = FitThumbnail
	}
	if src.Width == 0 {
		src.Width = defaultImageWidth
	}
	if src.Height == 0 {
		src.Height = defaultImageHeight
	}
	if src.Codec == "" {
		src.Codec = CodecWebP
	}
	if src.Quality == 0 {
		src.Quality = defaultImageQuality
	}
}
