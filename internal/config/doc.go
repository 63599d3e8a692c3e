// Package config loads, normalizes, and validates bdremux configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// BDREMUX_OUTPUT_DIR. The Config type centralizes every knob the remux
// pipeline needs: tool binaries, the language policy, lossless audio
// handling, muxing fallbacks and temp directory retention.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
