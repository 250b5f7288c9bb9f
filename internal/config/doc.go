// Package config loads, normalizes, and validates Solea configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// processor, auditor, and CLI need (output root, manifest path, target sample
// rate, download format, audit log locations, logging and metrics output) so
// they are resolved in one pass and passed explicitly through call chains.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
