package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SaxonRah/Linen/errors"
	"github.com/SaxonRah/Linen/persist"
)

// Config is the complete kernel configuration
type Config struct {
	Tick        TickConfig        `yaml:"tick"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Log         LogConfig         `yaml:"log"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// TickConfig controls the fixed-step update loop
type TickConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// UnmarshalYAML accepts human-readable durations ("16ms", "1s") for the
// tick interval, which the yaml package does not decode on its own.
func (t *TickConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Interval string `yaml:"interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Interval == "" {
		return nil
	}
	interval, err := time.ParseDuration(raw.Interval)
	if err != nil {
		msg := fmt.Errorf("%w: tick.interval %q: %v", errors.ErrInvalidConfig, raw.Interval, err)
		return errors.WrapInvalid(msg, "Config", "Parse", "duration parsing")
	}
	t.Interval = interval
	return nil
}

// PersistenceConfig controls save file placement and encoding
type PersistenceConfig struct {
	Directory string `yaml:"directory"`
	Format    string `yaml:"format"` // "binary" or "text"
}

// LogConfig controls structured logging
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file is supplied
func Default() *Config {
	return &Config{
		Tick:        TickConfig{Interval: 16 * time.Millisecond},
		Persistence: PersistenceConfig{Directory: "saves", Format: "binary"},
		Log:         LogConfig{Level: "info"},
		Metrics:     MetricsConfig{Enabled: false, Listen: ":9090", Path: "/metrics"},
	}
}

// Load reads a YAML configuration file over the defaults and validates the
// result. Unknown fields are rejected so typos surface at startup.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInternal(err, "Config", "Load", fmt.Sprintf("read %q", path))
	}
	return Parse(data)
}

// Parse decodes YAML bytes over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		msg := fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
		return nil, errors.WrapInvalid(msg, "Config", "Parse", "yaml decoding")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for usable values
func (c *Config) Validate() error {
	if c.Tick.Interval <= 0 {
		msg := fmt.Errorf("%w: tick.interval must be positive, got %s", errors.ErrInvalidConfig, c.Tick.Interval)
		return errors.WrapInvalid(msg, "Config", "Validate", "tick validation")
	}
	if c.Persistence.Directory == "" {
		msg := fmt.Errorf("%w: persistence.directory is required", errors.ErrInvalidConfig)
		return errors.WrapInvalid(msg, "Config", "Validate", "persistence validation")
	}
	if _, err := persist.ParseFormat(c.Persistence.Format); err != nil {
		return errors.Wrap(err, "Config", "Validate", "persistence validation")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		msg := fmt.Errorf("%w: metrics.listen is required when metrics are enabled", errors.ErrInvalidConfig)
		return errors.WrapInvalid(msg, "Config", "Validate", "metrics validation")
	}
	return nil
}

// Format returns the parsed persistence format
func (c *Config) Format() persist.Format {
	format, err := persist.ParseFormat(c.Persistence.Format)
	if err != nil {
		return persist.FormatBinary
	}
	return format
}

// SlogLevel converts the configured log level to a slog.Level
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		msg := fmt.Errorf("%w: unknown log level %q", errors.ErrInvalidConfig, c.Log.Level)
		return slog.LevelInfo, errors.WrapInvalid(msg, "Config", "Validate", "log level parsing")
	}
}

// Clone returns a copy of the configuration. The structure is flat value
// types, so an assignment copy is a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return Default()
	}
	copied := *c
	return &copied
}
