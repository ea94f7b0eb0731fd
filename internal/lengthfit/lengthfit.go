// Package lengthfit conforms an assembled audio file to the duration of the
// stream it will replace, so the remuxed track lines up with the rest of the
// container.
package lengthfit

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"glitchcut/internal/fileutil"
)

// epsilon is the tolerance below which a duration difference is treated as
// measurement noise rather than real drift.
const epsilon = 0.001

// Engine is the subset of media operations fitting needs.
type Engine interface {
	TrimTo(ctx context.Context, input, output string, target float64) error
	PadWithSilence(ctx context.Context, input, output string, padDur, total float64) error
}

// Fitter adjusts a file's length to a target duration.
type Fitter struct {
	engine Engine
	logger *slog.Logger
}

func New(engine Engine, logger *slog.Logger) *Fitter {
	return &Fitter{engine: engine, logger: logger}
}

// Fit writes a copy of input at output whose duration matches target.
// Longer inputs are trimmed, shorter ones padded with trailing silence, and
// inputs already within tolerance are copied through untouched.
func (f *Fitter) Fit(ctx context.Context, input, output string, inputDuration, target float64) error {
	if target <= 0 {
		return fmt.Errorf("target duration must be positive, got %.6f", target)
	}

	diff := inputDuration - target
	switch {
	case math.Abs(diff) <= epsilon:
		f.logger.Info("duration already matches", "duration", inputDuration, "target", target)
		if err := fileutil.CopyFile(input, output); err != nil {
			return fmt.Errorf("copy matched file: %w", err)
		}
		return nil
	case diff > 0:
		f.logger.Info("trimming to target length", "duration", inputDuration, "target", target, "excess", diff)
		if err := f.engine.TrimTo(ctx, input, output, target); err != nil {
			return fmt.Errorf("trim to length: %w", err)
		}
		return nil
	default:
		f.logger.Info("padding to target length", "duration", inputDuration, "target", target, "shortfall", -diff)
		if err := f.engine.PadWithSilence(ctx, input, output, -diff, target); err != nil {
			return fmt.Errorf("pad to length: %w", err)
		}
		return nil
	}
}
