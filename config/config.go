// Package config provides configuration parsing for sysgraph.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"gitlab.com/tinyland/lab/sysgraph/collectors"
	"gitlab.com/tinyland/lab/sysgraph/collectors/retry"
	"gitlab.com/tinyland/lab/sysgraph/series"
)

// appName names the config directory.
const appName = "sysgraph"

// Config is the root sysgraph configuration.
type Config struct {
	// Interval is the polling period shared by every domain.
	Interval Duration `yaml:"interval"`

	// Domains lists the domains to poll, in display order.
	Domains []string `yaml:"domains"`

	// SampleTimeout bounds a single entry read. Zero disables the bound.
	SampleTimeout Duration `yaml:"sample_timeout"`

	// Breaker configures per-entry failure back-off.
	Breaker BreakerConfig `yaml:"breaker"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log"`

	// Output configures artifact output.
	Output OutputConfig `yaml:"output"`
}

// BreakerConfig mirrors retry.Config in YAML form.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before an entry
	// is skipped. Zero disables the breaker.
	MaxFailures int `yaml:"max_failures"`
	// ResetTimeout is the first back-off window.
	ResetTimeout Duration `yaml:"reset_timeout"`
	// MaxResetTimeout caps the back-off window.
	MaxResetTimeout Duration `yaml:"max_reset_timeout"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
	// File receives log output when set. The dashboard always logs to a
	// file so the terminal stays clean.
	File string `yaml:"file"`
}

// OutputConfig configures artifact output.
type OutputConfig struct {
	// SVGDir receives <domain>-<index>.svg after every tick when set.
	SVGDir string `yaml:"svg_dir"`
}

// Duration is a time.Duration that reads and writes as "1s", "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string. Empty means zero; negative
// durations are rejected.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	if v < 0 {
		return fmt.Errorf("config: negative duration %q", s)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	br := retry.DefaultConfig()
	domains := make([]string, 0, 5)
	for _, d := range collectors.AllDomains() {
		domains = append(domains, d.String())
	}

	return &Config{
		Interval:      Duration{time.Second},
		Domains:       domains,
		SampleTimeout: Duration{500 * time.Millisecond},
		Breaker: BreakerConfig{
			MaxFailures:     br.MaxFailures,
			ResetTimeout:    Duration{br.ResetTimeout},
			MaxResetTimeout: Duration{br.MaxResetTimeout},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the standard config path.
// Search order:
//  1. $XDG_CONFIG_HOME/sysgraph/config.yaml
//  2. ~/.config/sysgraph/config.yaml
//
// If no file exists, returns DefaultConfig() with environment overrides.
func Load() (*Config, error) {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	return LoadFromReader(strings.NewReader(""))
}

// LoadFromFile reads configuration from a specific file path. A missing
// file yields the defaults.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LoadFromReader(strings.NewReader(""))
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader decodes YAML over the defaults and applies environment
// overrides.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks SYSGRAPH_* environment variables and overrides
// config values.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SYSGRAPH_INTERVAL"); v != "" {
		if err := cfg.Interval.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("config: SYSGRAPH_INTERVAL: %w", err)
		}
	}
	if v := os.Getenv("SYSGRAPH_DOMAINS"); v != "" {
		cfg.Domains = SplitList(v)
	}
	if v := os.Getenv("SYSGRAPH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SYSGRAPH_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("SYSGRAPH_SVG_DIR"); v != "" {
		cfg.Output.SVGDir = v
	}
	return nil
}

// LoadEnvFile reads KEY=value lines from path into the process
// environment so they feed the SYSGRAPH_* overrides. Variables already
// set in the environment win.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: env file %s: %w", path, err)
	}
	return nil
}

// SplitList splits a comma or space separated list, dropping empties.
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// Validate checks the configuration for logical consistency.
func (c *Config) Validate() error {
	if c.Interval.Duration <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval.Duration)
	}
	if len(c.Domains) == 0 {
		return fmt.Errorf("domains must list at least one domain")
	}
	if _, err := c.ParsedDomains(); err != nil {
		return err
	}
	if c.Breaker.MaxFailures < 0 {
		return fmt.Errorf("breaker.max_failures must be non-negative, got %d", c.Breaker.MaxFailures)
	}
	if c.Breaker.MaxFailures > 0 && c.Breaker.ResetTimeout.Duration <= 0 {
		return fmt.Errorf("breaker.reset_timeout must be positive when the breaker is enabled")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if f := c.Log.Format; f != "text" && f != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json', got %q", f)
	}
	return nil
}

// ParsedDomains returns the configured domains, deduplicated, in order.
func (c *Config) ParsedDomains() ([]collectors.Domain, error) {
	seen := make(map[collectors.Domain]bool, len(c.Domains))
	out := make([]collectors.Domain, 0, len(c.Domains))
	for _, name := range c.Domains {
		d, err := collectors.ParseDomain(name)
		if err != nil {
			return nil, fmt.Errorf("domains: %w", err)
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out, nil
}

// CollectorOptions converts the configuration into collector options.
func (c *Config) CollectorOptions(logger *slog.Logger) collectors.Options {
	br := retry.DefaultConfig()
	br.MaxFailures = c.Breaker.MaxFailures
	if c.Breaker.ResetTimeout.Duration > 0 {
		br.ResetTimeout = c.Breaker.ResetTimeout.Duration
	}
	if c.Breaker.MaxResetTimeout.Duration > 0 {
		br.MaxResetTimeout = c.Breaker.MaxResetTimeout.Duration
	}
	return collectors.Options{
		Logger:        logger,
		Capacity:      series.DefaultCapacity,
		SampleTimeout: c.SampleTimeout.Duration,
		Breaker:       br,
	}
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level must be debug, info, warn or error, got %q", s)
}

// SaveConfig saves configuration to a YAML file.
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultPath returns the preferred config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(xdgConfigHome(home), appName, "config.yaml")
}

// configSearchPaths returns the ordered list of config file paths to try.
func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	var paths []string

	xdg := xdgConfigHome(home)
	paths = append(paths, filepath.Join(xdg, appName, "config.yaml"))

	// If XDG_CONFIG_HOME was explicitly set, also try the fallback default.
	defaultXDG := filepath.Join(home, ".config")
	if xdg != defaultXDG {
		paths = append(paths, filepath.Join(defaultXDG, appName, "config.yaml"))
	}

	return paths
}

// xdgConfigHome returns XDG_CONFIG_HOME or ~/.config as fallback.
func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}
