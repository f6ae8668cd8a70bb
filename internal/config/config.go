package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides applied after the YAML file is read.
const (
	EnvAPIBaseURL = "INTERVIEWCAL_API_BASE_URL"
	EnvListen     = "INTERVIEWCAL_LISTEN"
)

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "UTC"
	defaultWeekStart   = "sunday"
	defaultRefreshCron = "*/5 * * * *"
	defaultAPIBaseURL  = "http://localhost:8000/api/"
	defaultAPITimeout  = 15
	defaultDuration    = 60
	defaultDebounceMs  = 500
	defaultPastColor   = "#9ca3af"
	defaultCacheDir    = "./var/cache"
)

// DefaultPalette is the rotation used by the placement engine.
var DefaultPalette = []string{"#22c55e", "#93c5fd", "#f87171", "#eab308", "#a855f7"}

// OverlayConfig describes an external ICS feed shown alongside interviews
// (public holidays, interviewer out-of-office calendars, ...).
type OverlayConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// APIConfig points at the interview-scheduling backend.
type APIConfig struct {
	BaseURL        string `yaml:"base_url" json:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the local HTTP surface.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	Listen   string `yaml:"listen" json:"listen"`
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is "sunday" (default) or "monday". It drives week windows
	// and the leading-cell count of the month grid.
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron schedules background refetches of the event cache and
	// overlay feeds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	API         APIConfig `yaml:"api" json:"api"`
	SessionFile string    `yaml:"session_file" json:"session_file"`
	CacheDir    string    `yaml:"cache_dir" json:"cache_dir"`

	Palette                []string `yaml:"palette" json:"palette"`
	PastColor              string   `yaml:"past_color" json:"past_color"`
	DefaultDurationMinutes int      `yaml:"default_duration_minutes" json:"default_duration_minutes"`
	DebounceMillis         int      `yaml:"debounce_millis" json:"debounce_millis"`

	// DropStaleFetches discards event responses that resolve after a newer
	// fetch was started. Off by default: the last response to arrive wins.
	DropStaleFetches bool `yaml:"drop_stale_fetches" json:"drop_stale_fetches"`

	Overlays []OverlayConfig `yaml:"overlays" json:"overlays"`

	// BasicAuth, if set, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in zero values so partially written files still work.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	switch strings.ToLower(strings.TrimSpace(c.WeekStart)) {
	case "monday":
		c.WeekStart = "monday"
	default:
		c.WeekStart = defaultWeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultAPITimeout
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if len(c.Palette) == 0 {
		c.Palette = append([]string(nil), DefaultPalette...)
	}
	if c.PastColor == "" {
		c.PastColor = defaultPastColor
	}
	if c.DefaultDurationMinutes <= 0 {
		c.DefaultDurationMinutes = defaultDuration
	}
	if c.DebounceMillis <= 0 {
		c.DebounceMillis = defaultDebounceMs
	}
	if c.Overlays == nil {
		c.Overlays = []OverlayConfig{}
	}
}

// WeekStartDay maps WeekStart onto a time.Weekday.
func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// Location resolves Timezone, falling back to time.Local when it is unknown.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, err
	}
	return loc, nil
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

func (c *Config) DefaultDuration() time.Duration {
	return time.Duration(c.DefaultDurationMinutes) * time.Minute
}

// ApplyEnv overrides file values with the INTERVIEWCAL_* environment.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBaseURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		c.Listen = v
	}
}

// Load reads the YAML file at path.
//
// A missing file is created with defaults (0600) and the defaults are
// returned. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				cfg.ApplyEnv()
				return cfg, err
			}
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.ApplyEnv()

	return &cfg, nil
}

// Save writes cfg to path through a temp file and rename, leaving the final
// file at 0600 inside a 0700 directory.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, ".interviewcal-config-*.tmp")
}

// WriteFileAtomic writes data next to path and renames it into place.
func WriteFileAtomic(path string, data []byte, pattern string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, pattern)
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
