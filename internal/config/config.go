package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains local directories used for state and logs.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Catalog contains connection settings for the PostgREST catalog API.
type Catalog struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	PageSize       int    `toml:"page_size"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Storage describes where processed images land and how existing keys are listed.
type Storage struct {
	Backend      string `toml:"backend"`
	LocalDir     string `toml:"local_dir"`
	Bucket       string `toml:"bucket"`
	Endpoint     string `toml:"endpoint"`
	Region       string `toml:"region"`
	AccessKey    string `toml:"access_key"`
	SecretKey    string `toml:"secret_key"`
	UseSSL       bool   `toml:"use_ssl"`
	CacheControl string `toml:"cache_control"`
	// Index selects the existence source: "store", "postgrest", "ledger", or "all".
	Index string `toml:"index"`
}

// Registry selects the metadata registrar.
type Registry struct {
	Backend      string `toml:"backend"`
	DatabaseURL  string `toml:"database_url"`
	ObjectsTable string `toml:"objects_table"`
	LinksTable   string `toml:"links_table"`
}

// Pipeline contains worker pool and fetch settings.
type Pipeline struct {
	Concurrency         int    `toml:"concurrency"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	MaxImageBytes       int64  `toml:"max_image_bytes"`
	UserAgent           string `toml:"user_agent"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Source describes one card catalog and how its images are named and shaped.
//
// OffsetBase and RangeSize reserve the target identifier range
// [OffsetBase, OffsetBase+RangeSize) for this source. Ranges of distinct
// sources must not overlap.
type Source struct {
	Name        string `toml:"name"`
	Kind        string `toml:"kind"`
	Language    string `toml:"language"`
	CatalogFile string `toml:"catalog_file"`
	OffsetBase  int64  `toml:"offset_base"`
	RangeSize   int64  `toml:"range_size"`
	CategoryID  int64  `toml:"category_id"`

	KeyLayout string `toml:"key_layout"`
	KeyPrefix string `toml:"key_prefix"`

	Locator     string `toml:"locator"`
	URLTemplate string `toml:"url_template"`
	CDNBaseURL  string `toml:"cdn_base_url"`

	FitPolicy string `toml:"fit_policy"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Codec     string `toml:"codec"`
	Quality   int    `toml:"quality"`

	Register    bool `toml:"register"`
	NewestFirst bool `toml:"newest_first"`
	Concurrency int  `toml:"concurrency"`
}

// RangeEnd returns the exclusive upper bound of the source identifier range.
func (s Source) RangeEnd() int64 {
	return s.OffsetBase + s.RangeSize
}

// Config encapsulates all configuration values for cardsync.
//
// Configuration sections by subsystem:
//   - Paths: state (ledger, locks, mapping files) and log directories
//   - Catalog: PostgREST catalog endpoint and credentials
//   - Storage: target store backend and existence index
//   - Registry: metadata registrar backend
//   - Pipeline: worker pool size, fetch timeout, and size cap
//   - Logging: log format, level, and retention
//   - Sources: one entry per card catalog
type Config struct {
	Paths    Paths    `toml:"paths"`
	Catalog  Catalog  `toml:"catalog"`
	Storage  Storage  `toml:"storage"`
	Registry Registry `toml:"registry"`
	Pipeline Pipeline `toml:"pipeline"`
	Logging  Logging  `toml:"logging"`
	Sources  []Source `toml:"sources"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cardsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories, plus the local
// storage directory when the local backend is selected.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Storage.Backend == StorageLocal && strings.TrimSpace(c.Storage.LocalDir) != "" {
		if err := os.MkdirAll(c.Storage.LocalDir, 0o755); err != nil {
			return fmt.Errorf("create storage directory %q: %w", c.Storage.LocalDir, err)
		}
	}
	return nil
}

// Source returns the named source configuration.
func (c *Config) Source(name string) (Source, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		if len(c.Sources) == 1 {
			return c.Sources[0], nil
		}
		return Source{}, errors.New("source name required when more than one source is configured")
	}
	for _, src := range c.Sources {
		if src.Name == name {
			return src, nil
		}
	}
	return Source{}, fmt.Errorf("source %q not configured (see [[sources]] in the config file)", name)
}

// SourceNames lists configured source names in file order.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for _, src := range c.Sources {
		names = append(names, src.Name)
	}
	return names
}

// LedgerPath returns the SQLite ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// LockPath returns the advisory run lock for a source.
func (c *Config) LockPath(source string) string {
	return filepath.Join(c.Paths.StateDir, source+".lock")
}

// MappingPath returns the default mapping file location for a source.
func (c *Config) MappingPath(source string) string {
	return filepath.Join(c.Paths.StateDir, source+"-mapping.json")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
