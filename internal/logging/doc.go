// Package logging constructs the slog loggers used across glitchcut.
//
// Two output formats are supported: a compact console format for interactive
// use and JSON for machine consumption. Component loggers carry a stable
// "component" attribute so pipeline stages can be told apart in one stream.
package logging
