package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FeedConfig describes an external iCalendar feed whose events are merged
// into the calendar after the events declared in the page markup.
type FeedConfig struct {
	// ID is an internal identifier used for record ids and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label used in logs.
	Name string `yaml:"name" json:"name"`
	// URL is the ICS endpoint.
	URL string `yaml:"url" json:"url"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the site.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone of the library. Zoneless event dates in
	// the markup are read in this zone and "today" is local midnight here.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Locale drives title/type collation (BCP 47, e.g. "en-US").
	Locale string `yaml:"locale" json:"locale"`

	SiteName string `yaml:"site_name" json:"site_name"`

	// Domain is appended to generated VEVENT UIDs.
	Domain string `yaml:"domain" json:"domain"`

	// ProdID is written as the VCALENDAR PRODID.
	ProdID string `yaml:"prodid" json:"prodid"`

	// ContentPath optionally points at an HTML file holding the calendar's
	// event markup. Empty means the embedded default is used.
	ContentPath string `yaml:"content_path" json:"content_path"`

	// RefreshCron is a cron-style schedule for reloading event records
	// (markup + feeds).
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// StatusClearSeconds is how long status messages stay in the live region.
	StatusClearSeconds int `yaml:"status_clear_seconds" json:"status_clear_seconds"`

	// MaxOccurrences caps recurring program expansion per program.
	MaxOccurrences int `yaml:"max_occurrences" json:"max_occurrences"`

	// ContactDelayMS is the simulated contact form submission delay.
	ContactDelayMS int `yaml:"contact_delay_ms" json:"contact_delay_ms"`

	// CacheDir stores feed bodies and HTTP cache metadata.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	Feeds []FeedConfig `yaml:"feeds" json:"feeds"`
}

const (
	defaultListen         = "127.0.0.1:8080"
	defaultTimezone       = "America/New_York"
	defaultLocale         = "en-US"
	defaultSiteName       = "Union Beach Memorial Library"
	defaultDomain         = "unionbeachlibrary.org"
	defaultProdID         = "-//Union Beach Memorial Library//Events Calendar//EN"
	defaultRefreshCron    = "0 0 * * *"
	defaultStatusClearSec = 5
	defaultMaxOccurrences = 52
	defaultContactDelayMS = 1000
	defaultCacheDir       = "./var/feed-cache"
	defaultLogLevel       = "info"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:             defaultListen,
		Timezone:           defaultTimezone,
		Locale:             defaultLocale,
		SiteName:           defaultSiteName,
		Domain:             defaultDomain,
		ProdID:             defaultProdID,
		RefreshCron:        defaultRefreshCron,
		StatusClearSeconds: defaultStatusClearSec,
		MaxOccurrences:     defaultMaxOccurrences,
		ContactDelayMS:     defaultContactDelayMS,
		CacheDir:           defaultCacheDir,
		LogLevel:           defaultLogLevel,
		Feeds:              []FeedConfig{},
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.Locale == "" {
		c.Locale = defaultLocale
	}
	if c.SiteName == "" {
		c.SiteName = defaultSiteName
	}
	if c.Domain == "" {
		c.Domain = defaultDomain
	}
	if c.ProdID == "" {
		c.ProdID = defaultProdID
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.StatusClearSeconds <= 0 {
		c.StatusClearSeconds = defaultStatusClearSec
	}
	if c.MaxOccurrences <= 0 {
		c.MaxOccurrences = defaultMaxOccurrences
	}
	// Zero is a valid delay (tests, instant submissions).
	if c.ContactDelayMS < 0 {
		c.ContactDelayMS = defaultContactDelayMS
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to path atomically (temp file in
// the same directory + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".libsite-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
