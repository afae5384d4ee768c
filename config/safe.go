package config

import (
	"sync"

	"github.com/SaxonRah/Linen/errors"
)

// SafeConfig provides thread-safe access to a configuration that may be
// replaced at runtime. Readers get a copy, so a concurrent Update never
// mutates a configuration a reader is holding.
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig wraps a configuration; nil starts from the defaults
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = Default()
	}
	return &SafeConfig{config: cfg}
}

// Get returns a copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	return sc.config.Clone()
}

// Update atomically replaces the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Update", "nil config check")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.config = cfg
	return nil
}
