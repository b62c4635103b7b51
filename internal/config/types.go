// internal/config/types.go
package config

import (
	"fmt"
	"time"
)

// Settings is the full configuration surface for the scraper. Every knob
// is optional; zero values are replaced by documented defaults.
type Settings struct {
	// Backend credentials and toggles.
	BrightDataAPIKey string `yaml:"brightdata_api_key" json:"-"`
	ScraperAPIKey    string `yaml:"scraperapi_key" json:"-"`
	RelayEnabled     bool   `yaml:"relay_enabled" json:"relay_enabled"`

	// Request behavior.
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
	MinDelay   time.Duration `yaml:"min_delay" json:"min_delay"`
	MaxDelay   time.Duration `yaml:"max_delay" json:"max_delay"`

	// Rate limiting ceilings shared by all backends.
	RequestsPerSecond int `yaml:"requests_per_second" json:"requests_per_second"`
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`

	// Browser automation.
	Headless       bool   `yaml:"headless" json:"headless"`
	ViewportWidth  int    `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height" json:"viewport_height"`
	UserAgent      string `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`

	// UseSimplifiedHost rewrites target URLs to the lightweight mobile
	// host, which renders with far less JavaScript.
	UseSimplifiedHost bool `yaml:"use_simplified_host" json:"use_simplified_host"`

	// Cache policy.
	CacheTTL        time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
	CacheMaxEntries int           `yaml:"cache_max_entries" json:"cache_max_entries"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`

	// Observability.
	LogLevel      string `yaml:"log_level" json:"log_level"`
	MetricsListen string `yaml:"metrics_listen,omitempty" json:"metrics_listen,omitempty"`

	// Optional result persistence.
	Output *OutputSettings `yaml:"output,omitempty" json:"output,omitempty"`
}

// OutputSettings configures where scraped records are persisted.
type OutputSettings struct {
	Format string `yaml:"format" json:"format"` // json, csv, sqlite, mysql, postgresql, mongodb, excel
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
	DSN    string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	Table  string `yaml:"table,omitempty" json:"table,omitempty"`
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() *Settings {
	return &Settings{
		Timeout:           30 * time.Second,
		MaxRetries:        3,
		MinDelay:          2 * time.Second,
		MaxDelay:          5 * time.Second,
		RequestsPerSecond: 2,
		RequestsPerMinute: 30,
		Headless:          true,
		ViewportWidth:     1920,
		ViewportHeight:    1080,
		UseSimplifiedHost: true,
		CacheTTL:          5 * time.Minute,
		CacheMaxEntries:   500,
		CleanupInterval:   time.Minute,
		LogLevel:          "info",
	}
}

// applyDefaults fills zero values with the documented defaults.
func applyDefaults(s *Settings) {
	d := DefaultSettings()
	if s.Timeout <= 0 {
		s.Timeout = d.Timeout
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = d.MaxRetries
	}
	if s.MinDelay <= 0 {
		s.MinDelay = d.MinDelay
	}
	if s.MaxDelay <= 0 {
		s.MaxDelay = d.MaxDelay
	}
	if s.RequestsPerSecond <= 0 {
		s.RequestsPerSecond = d.RequestsPerSecond
	}
	if s.RequestsPerMinute <= 0 {
		s.RequestsPerMinute = d.RequestsPerMinute
	}
	if s.ViewportWidth <= 0 {
		s.ViewportWidth = d.ViewportWidth
	}
	if s.ViewportHeight <= 0 {
		s.ViewportHeight = d.ViewportHeight
	}
	if s.CacheTTL <= 0 {
		s.CacheTTL = d.CacheTTL
	}
	if s.CacheMaxEntries <= 0 {
		s.CacheMaxEntries = d.CacheMaxEntries
	}
	if s.CleanupInterval <= 0 {
		s.CleanupInterval = d.CleanupInterval
	}
	if s.LogLevel == "" {
		s.LogLevel = d.LogLevel
	}
}

// Validate checks cross-field constraints.
func (s *Settings) Validate() error {
	if s.MinDelay > s.MaxDelay {
		return fmt.Errorf("min_delay (%v) cannot exceed max_delay (%v)", s.MinDelay, s.MaxDelay)
	}
	if s.RequestsPerSecond > s.RequestsPerMinute {
		return fmt.Errorf("requests_per_second (%d) cannot exceed requests_per_minute (%d)",
			s.RequestsPerSecond, s.RequestsPerMinute)
	}
	if s.Output != nil {
		switch s.Output.Format {
		case "json", "csv", "sqlite", "mysql", "postgresql", "mongodb", "excel":
		case "":
			return fmt.Errorf("output format is required when output is configured")
		default:
			return fmt.Errorf("unsupported output format: %s", s.Output.Format)
		}
	}
	return nil
}
