// Package config loads and validates the kernel's YAML configuration:
// tick interval, save directory and format, log level, and the metrics
// endpoint. Load layers a file over Default, rejects unknown fields, and
// validates the result. SafeConfig wraps a configuration for concurrent
// access with copy-on-read semantics.
package config
