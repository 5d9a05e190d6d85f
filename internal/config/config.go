// Package config loads econcal settings.
//
// Settings come from three layers, highest priority first: command-line flags the
// user actually set, an optional YAML file, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Fetch unit modes
const (
	ModeDay   = "day"
	ModeMonth = "month"
)

// Config holds all econcal settings
type Config struct {
	Output   string `yaml:"output"`   // CSV record store path
	Timezone string `yaml:"timezone"` // IANA zone the calendar is rendered in
	Mode     string `yaml:"mode"`     // day | month
	Details  bool   `yaml:"details"`  // fetch detail panels

	BaseURL       string        `yaml:"base_url"`
	UserAgent     string        `yaml:"user_agent"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"` // page loads per second
	Burst         int           `yaml:"burst"`
	MaxRetries    int           `yaml:"max_retries"`
	Backoff       time.Duration `yaml:"backoff"`
	MaxBackoff    time.Duration `yaml:"max_backoff"`

	MetricsFile string `yaml:"metrics_file"`
	LogLevel    string `yaml:"log_level"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Output:        "forex_factory_cache.csv",
		Timezone:      "Asia/Tehran",
		Mode:          ModeDay,
		BaseURL:       "https://www.forexfactory.com",
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		Timeout:       30 * time.Second,
		RatePerSecond: 0.5,
		Burst:         1,
		MaxRetries:    3,
		Backoff:       time.Second,
		MaxBackoff:    15 * time.Second,
		LogLevel:      "info",
	}
}

// Load reads path (if non-empty) and layers it over the defaults.
// A missing file is an error; an empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	// keys present in the file replace the defaults, zero values included
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Override applies non-zero fields of o on top of c. Flags whose zero value is
// meaningful are set on the result directly.
func (c *Config) Override(o Config) error {
	return mergo.Merge(c, o, mergo.WithOverride)
}

// Location loads the configured timezone
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the settings a run depends on
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Output) == "" {
		errs = append(errs, errors.New("output path is required"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Mode != ModeDay && c.Mode != ModeMonth {
		errs = append(errs, fmt.Errorf("invalid mode: %s (must be '%s' or '%s')", c.Mode, ModeDay, ModeMonth))
	}
	if c.RatePerSecond <= 0 {
		errs = append(errs, fmt.Errorf("rate_per_second must be positive, got %v", c.RatePerSecond))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries))
	}
	return errors.Join(errs...)
}
