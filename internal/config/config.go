package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// NOTE: YAML is the source of truth; STARTRIGHT_* environment variables
// (optionally from a .env file next to the process) override it before
// defaults are filled in.

// ImageCacheConfig controls the image cache bucket.
type ImageCacheConfig struct {
	// Path is the SQLite database file holding cache buckets.
	Path string `yaml:"path" json:"path" env:"IMAGE_CACHE_PATH"`
	// Bucket is the named bucket all image entries live in.
	Bucket string `yaml:"bucket" json:"bucket" env:"IMAGE_CACHE_BUCKET"`
	// FetchTimeout bounds a single background image fetch.
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout" env:"IMAGE_FETCH_TIMEOUT"`
	// WarmCron is the cron schedule for pre-fetching event imagery.
	// "off" disables warming.
	WarmCron string `yaml:"warm_cron" json:"warm_cron" env:"IMAGE_WARM_CRON"`
}

// QRConfig describes the third-party QR rendering endpoint.
type QRConfig struct {
	ServiceURL string `yaml:"service_url" json:"service_url" env:"QR_SERVICE_URL"`
	Size       string `yaml:"size" json:"size" env:"QR_SIZE"`
}

// CalendarConfig controls .ics export.
type CalendarConfig struct {
	// UIDDomain is appended to event ids to build stable VEVENT UIDs.
	UIDDomain string `yaml:"uid_domain" json:"uid_domain" env:"CALENDAR_UID_DOMAIN"`
	// DefaultTime is used when an event has no start time (HH:MM:SS).
	DefaultTime string `yaml:"default_time" json:"default_time"`
	// DurationHours is the assumed event length.
	DurationHours int    `yaml:"duration_hours" json:"duration_hours"`
	ProductID     string `yaml:"product_id" json:"product_id"`
}

// InfoSession is a recurring get-involved session described by an RRULE.
type InfoSession struct {
	Title           string `yaml:"title" json:"title"`
	RRule           string `yaml:"rrule" json:"rrule"`
	// StartTime is the local wall-clock start, "HH:MM".
	StartTime       string `yaml:"start_time" json:"start_time"`
	DurationMinutes int    `yaml:"duration_minutes" json:"duration_minutes"`
	Location        string `yaml:"location" json:"location"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the admin endpoints.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the site.
	Listen string `yaml:"listen" json:"listen" env:"LISTEN"`

	// SiteOrigin is the public origin of the site, used for absolute links
	// (registration QR payloads, share cards).
	SiteOrigin string `yaml:"site_origin" json:"site_origin" env:"SITE_ORIGIN"`

	// APIBaseURL is the remote conference REST API, e.g.
	// https://api.startrightconference.org/api/v1.
	APIBaseURL string `yaml:"api_base_url" json:"api_base_url" env:"API_BASE_URL"`

	// APITimeout bounds each remote API call.
	APITimeout time.Duration `yaml:"api_timeout" json:"api_timeout" env:"API_TIMEOUT"`

	// Timezone is the IANA zone event dates and times are interpreted in.
	Timezone string `yaml:"timezone" json:"timezone" env:"TIMEZONE"`

	LogLevel string `yaml:"log_level" json:"log_level" env:"LOG_LEVEL"`

	// Announcement is an optional banner shown on every page.
	Announcement string `yaml:"announcement" json:"announcement" env:"ANNOUNCEMENT"`

	ImageCache ImageCacheConfig `yaml:"image_cache" json:"image_cache"`
	QR         QRConfig         `yaml:"qr" json:"qr"`
	Calendar   CalendarConfig   `yaml:"calendar" json:"calendar"`

	InfoSessions []InfoSession `yaml:"info_sessions" json:"info_sessions"`

	// BasicAuth, if non-nil, protects /admin/* with HTTP Basic Authentication.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen       = "127.0.0.1:8080"
	defaultOrigin       = "http://127.0.0.1:8080"
	defaultAPIBaseURL   = "https://api.startrightconference.org/api/v1"
	defaultTimezone     = "America/New_York"
	defaultCachePath    = "./var/imagecache.db"
	defaultBucket       = "startright-images-v1"
	defaultWarmCron     = "0 */6 * * *"
	defaultQRService    = "https://api.qrserver.com/v1/create-qr-code/"
	defaultQRSize       = "200x200"
	defaultUIDDomain    = "startrightconference.org"
	defaultEventTime    = "09:00:00"
	defaultDurationHrs  = 4
	defaultProductID    = "-//Start Right Conference//Event Calendar//EN"
	defaultAPITimeout   = 15 * time.Second
	defaultFetchTimeout = 20 * time.Second
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.SiteOrigin == "" {
		c.SiteOrigin = defaultOrigin
	}
	c.SiteOrigin = strings.TrimRight(c.SiteOrigin, "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.APITimeout <= 0 {
		c.APITimeout = defaultAPITimeout
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.ImageCache.Path == "" {
		c.ImageCache.Path = defaultCachePath
	}
	if c.ImageCache.Bucket == "" {
		c.ImageCache.Bucket = defaultBucket
	}
	if c.ImageCache.FetchTimeout <= 0 {
		c.ImageCache.FetchTimeout = defaultFetchTimeout
	}
	if c.ImageCache.WarmCron == "" {
		c.ImageCache.WarmCron = defaultWarmCron
	}

	if c.QR.ServiceURL == "" {
		c.QR.ServiceURL = defaultQRService
	}
	if c.QR.Size == "" {
		c.QR.Size = defaultQRSize
	}

	if c.Calendar.UIDDomain == "" {
		c.Calendar.UIDDomain = defaultUIDDomain
	}
	if c.Calendar.DefaultTime == "" {
		c.Calendar.DefaultTime = defaultEventTime
	}
	if c.Calendar.DurationHours <= 0 {
		c.Calendar.DurationHours = defaultDurationHrs
	}
	if c.Calendar.ProductID == "" {
		c.Calendar.ProductID = defaultProductID
	}

	if c.InfoSessions == nil {
		c.InfoSessions = []InfoSession{}
	}
	for i := range c.InfoSessions {
		if c.InfoSessions[i].DurationMinutes <= 0 {
			c.InfoSessions[i].DurationMinutes = 60
		}
		if c.InfoSessions[i].StartTime == "" {
			c.InfoSessions[i].StartTime = "18:00"
		}
	}
}

// Location resolves Timezone, falling back to time.Local for unknown zones.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// WarmSchedule returns the cron spec for image warming, or "" when disabled.
func (c ImageCacheConfig) WarmSchedule() string {
	if strings.EqualFold(c.WarmCron, "off") {
		return ""
	}
	return c.WarmCron
}

// AdminAuthEnabled reports whether both admin credentials are set.
func (c *Config) AdminAuthEnabled() bool {
	return c.BasicAuth != nil && c.BasicAuth.Username != "" && c.BasicAuth.Password != ""
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled.
//   - .env (if present) and STARTRIGHT_* variables are applied on top.
//   - Defaults are normalized last.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: create default config file.
		cfg = DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// applyEnv overlays STARTRIGHT_* environment variables onto cfg.
func applyEnv(cfg *Config) error {
	// A missing .env is the common case in production.
	_ = godotenv.Load()

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "STARTRIGHT_"}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
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

	tmp, err := os.CreateTemp(dir, ".startright-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
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
