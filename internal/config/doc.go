// Package config loads, normalizes, and validates tonearm configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. Obtain settings through this package so
// downstream code receives sanitized paths and clear validation errors.
package config
