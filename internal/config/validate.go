package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Defaults.SilenceThresholdLUFS >= 0 {
		return fmt.Errorf("defaults.silence_threshold_lufs must be negative, got %g", c.Defaults.SilenceThresholdLUFS)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Engine.FFmpegBinary == "" || c.Engine.FFprobeBinary == "" {
		return errors.New("engine binaries must not be empty")
	}
	return nil
}
