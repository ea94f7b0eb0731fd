// Package config loads, normalizes, and validates glitchcut configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads an optional TOML file. The Config type centralizes
// every tool-level knob: scratch and history directories, engine binary
// names, the default silence threshold, and logging output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
