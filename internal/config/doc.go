// Package config loads datacard tool settings.
//
// Settings come from four layers, later layers winning:
//
//  1. Built-in defaults (Default)
//  2. A TOML file, datacard.toml unless another path is given
//  3. Environment variables prefixed with DATACARD_
//  4. Command-line flags, applied by the caller
//
// Environment names map to settings by section and camel-cased key, so
// DATACARD_ALIGN_PAD sets align.pad and DATACARD_LOG_LEVEL sets log.level.
// List values are given as JSON arrays:
//
//	DATACARD_WATCH_EXTENSIONS='[".txt", ".card"]'
//
// Durations are strings in time.ParseDuration form.
//
// Load does not validate. Call Validate before using the result; it
// returns every problem at once.
package config
