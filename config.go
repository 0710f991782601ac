package pubgen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/hujson"

	"github.com/eringen/pubgen/markdown"
)

// ConfigFileName is the project config looked up in the working directory.
const ConfigFileName = "pubgen.json"

// Config holds all configuration for a pubgen site. Relative paths are
// resolved against SiteDir.
type Config struct {
	SiteDir   string `json:"site_dir,omitempty"`   // Site root (default ".")
	IndexPath string `json:"index_path,omitempty"` // Index artifact (default "js/articles.js")
	OutputDir string `json:"output_dir,omitempty"` // Rendered pages (default "html")

	Author             string `json:"author,omitempty"`              // Default author (default "Sept3rd")
	SummaryPlaceholder string `json:"summary_placeholder,omitempty"` // Used when no summary is derivable
	DateDisplayLayout  string `json:"date_display_layout,omitempty"` // Go layout for dateDisplay

	PageTemplate string `json:"page_template,omitempty"` // Optional placeholder page template
	CatalogPath  string `json:"catalog_path,omitempty"`  // Optional SQLite mirror of the index
	DataExport   string `json:"data_export,omitempty"`   // Optional plain JSON copy of the index

	SiteName    string `json:"site_name,omitempty"`   // Feed title (default "Blog")
	SiteURL     string `json:"site_url,omitempty"`    // Canonical URL (default "http://localhost:3000")
	Description string `json:"description,omitempty"` // Feed description
	Addr        string `json:"addr,omitempty"`        // Preview listen address (default ":3000")
	CacheTTL    string `json:"cache_ttl,omitempty"`   // Preview cache TTL (default "5s")

	// Now is the clock used for default dates and slug fallbacks.
	Now func() time.Time `json:"-"`
}

func (c *Config) setDefaults() {
	if c.SiteDir == "" {
		c.SiteDir = "."
	}
	if c.IndexPath == "" {
		c.IndexPath = filepath.Join("js", "articles.js")
	}
	if c.OutputDir == "" {
		c.OutputDir = "html"
	}
	if c.Author == "" {
		c.Author = markdown.DefaultAuthor
	}
	if c.SummaryPlaceholder == "" {
		c.SummaryPlaceholder = markdown.DefaultSummaryPlaceholder
	}
	if c.DateDisplayLayout == "" {
		c.DateDisplayLayout = markdown.DefaultDateDisplayLayout
	}
	if c.SiteName == "" {
		c.SiteName = "Blog"
	}
	if c.SiteURL == "" {
		c.SiteURL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "5s"
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	c.setDefaults()
	return c
}

// Resolve returns p joined onto SiteDir unless p is empty or absolute.
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.SiteDir, p)
}

// IndexFile is the resolved path of the index artifact.
func (c Config) IndexFile() string { return c.Resolve(c.IndexPath) }

// OutputPath is the resolved directory for rendered pages.
func (c Config) OutputPath() string { return c.Resolve(c.OutputDir) }

// LinkPrefix is the output directory relative to the site root, with a
// trailing slash, as used by the index page to link to articles.
func (c Config) LinkPrefix() string {
	rel, err := filepath.Rel(c.SiteDir, c.OutputPath())
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel) + "/"
}

// TTL parses CacheTTL, falling back to five seconds.
func (c Config) TTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// LoadConfig builds the configuration with the following precedence
// (highest wins): defaults, the project file (pubgen.json in workDir, if
// present) or the explicit configPath (must exist), then overrides.
func LoadConfig(workDir, configPath string, overrides Config) (Config, error) {
	var cfg Config

	path := configPath
	mustExist := path != ""
	if path == "" {
		path = filepath.Join(workDir, ConfigFileName)
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if cfg, err = parseConfig(data); err != nil {
			return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
		}
		if cfg.SiteDir == "" {
			cfg.SiteDir = filepath.Dir(path)
		} else if !filepath.IsAbs(cfg.SiteDir) {
			cfg.SiteDir = filepath.Join(filepath.Dir(path), cfg.SiteDir)
		}
	case os.IsNotExist(err) && !mustExist:
		cfg.SiteDir = workDir
	case os.IsNotExist(err):
		return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg = mergeConfig(cfg, overrides)
	cfg.setDefaults()

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&base.SiteDir, overlay.SiteDir)
	set(&base.IndexPath, overlay.IndexPath)
	set(&base.OutputDir, overlay.OutputDir)
	set(&base.Author, overlay.Author)
	set(&base.SummaryPlaceholder, overlay.SummaryPlaceholder)
	set(&base.DateDisplayLayout, overlay.DateDisplayLayout)
	set(&base.PageTemplate, overlay.PageTemplate)
	set(&base.CatalogPath, overlay.CatalogPath)
	set(&base.DataExport, overlay.DataExport)
	set(&base.SiteName, overlay.SiteName)
	set(&base.SiteURL, overlay.SiteURL)
	set(&base.Description, overlay.Description)
	set(&base.Addr, overlay.Addr)
	set(&base.CacheTTL, overlay.CacheTTL)
	if overlay.Now != nil {
		base.Now = overlay.Now
	}
	return base
}

func validateConfig(c Config) error {
	if filepath.Clean(c.IndexFile()) == filepath.Clean(c.OutputPath()) {
		return fmt.Errorf("%w: index_path and output_dir must differ", ErrConfigInvalid)
	}
	if _, err := time.ParseDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("%w: cache_ttl: %w", ErrConfigInvalid, err)
	}
	return nil
}

// FormatConfig returns the config as indented JSON.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}
	return string(data), nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
