package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// ErrEmptyPath is returned by Load and Save when no config path is given.
var ErrEmptyPath = errors.New("config path is empty")

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier; it prefixes event IDs.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// SourceID returns ID, falling back to Name and then URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	default:
		return c.URL
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// SearchConfig tunes the prefix index and the search endpoint.
type SearchConfig struct {
	// MaxRecordsPerNode caps how many events one indexed word keeps.
	MaxRecordsPerNode int `yaml:"max_records_per_node" json:"max_records_per_node"`
	// MaxWordLength is the rune length indexed words are truncated to.
	MaxWordLength int `yaml:"max_word_length" json:"max_word_length"`
	// DefaultLimit applies when a query does not ask for a result count.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
	// MaxLimit bounds the result count a client may ask for.
	MaxLimit int `yaml:"max_limit" json:"max_limit"`
	// IndexLocations also makes event locations searchable.
	IndexLocations *bool `yaml:"index_locations,omitempty" json:"index_locations,omitempty"`
	// RatePerSecond and Burst limit /api/search. Zero disables limiting.
	RatePerSecond float64 `yaml:"rate_per_second" json:"rate_per_second"`
	Burst         int     `yaml:"burst" json:"burst"`
}

// LocationsIndexed reports whether locations are indexed (default true).
func (s SearchConfig) LocationsIndexed() bool {
	return s.IndexLocations == nil || *s.IndexLocations
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as display zone (e.g. "Europe/Budapest").
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a standard 5-field cron schedule (e.g. "*/15 * * * *")
	// for rebuilding the index.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is the number of future days whose events are searchable.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// BackfillDays keeps recently finished events searchable.
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	// CacheDir holds the per-feed HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Search SearchConfig `yaml:"search" json:"search"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "UTC"
	defaultRefreshCron = "*/15 * * * *"
	defaultHorizonDays = 90
	defaultCacheDir    = "./var/ics-cache"
	defaultLogLevel    = "info"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{
		ICS:       []ICSConfig{},
		BasicAuth: nil,
	}
	c.Normalize()
	return c
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
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}

	s := &c.Search
	if s.MaxRecordsPerNode <= 0 {
		s.MaxRecordsPerNode = 5
	}
	if s.MaxWordLength <= 0 {
		s.MaxWordLength = 50
	}
	if s.DefaultLimit <= 0 {
		s.DefaultLimit = 10
	}
	if s.MaxLimit < s.DefaultLimit {
		s.MaxLimit = max(50, s.DefaultLimit)
	}
	if s.RatePerSecond < 0 {
		s.RatePerSecond = 0
	}
	if s.RatePerSecond > 0 && s.Burst <= 0 {
		s.Burst = int(s.RatePerSecond) + 1
	}

	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Validate reports configuration values Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", c.RefreshCron, err)
	}
	seen := make(map[string]struct{}, len(c.ICS))
	for i, src := range c.ICS {
		if src.URL == "" {
			return fmt.Errorf("ics[%d]: url is empty", i)
		}
		id := src.SourceID()
		if _, dup := seen[id]; dup {
			return fmt.Errorf("ics[%d]: duplicate source id %q", i, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (creating parent directories) and returned.
//   - Otherwise the YAML is unmarshaled, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
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
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return ErrEmptyPath
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

	tmp, err := os.CreateTemp(dir, ".evsearch-config-*.tmp")
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

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
