package splitplan

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"glitchcut/internal/ffmpeg"
	"glitchcut/internal/logging"
)

// Meter is the engine call that produces momentary-loudness samples.
type Meter interface {
	MeterLoudness(ctx context.Context, path string, start, duration float64) ([]ffmpeg.LoudnessSample, error)
}

// QuietPoint is the selected quietest audible moment inside a range.
type QuietPoint struct {
	Time     float64
	Loudness float64
}

// NotFoundError means every sample in the range sat at or below the silence
// threshold. It carries the range and threshold so the caller can retry with
// a lower threshold.
type NotFoundError struct {
	Start     float64
	End       float64
	Threshold float64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no audible point in range %.3fs - %.3fs above the threshold of %.2f LUFS; try adjusting --silence-threshold",
		e.Start, e.End, e.Threshold)
}

// Finder locates the quietest audible point in a time range.
type Finder struct {
	meter  Meter
	logger *slog.Logger
}

// NewFinder constructs a Finder over the given meter.
func NewFinder(meter Meter, logger *slog.Logger) *Finder {
	return &Finder{meter: meter, logger: logging.NewComponentLogger(logger, "quiet-point")}
}

// FindQuietestPoint meters [start, end) and selects the in-range sample with
// the minimum loudness strictly above the threshold. Samples at or below the
// threshold are digital silence, not candidates; NaN readings are discarded.
// Ties resolve to the earliest time.
func (f *Finder) FindQuietestPoint(ctx context.Context, path string, start, end, thresholdLUFS float64) (QuietPoint, error) {
	samples, err := f.meter.MeterLoudness(ctx, path, start, end-start)
	if err != nil {
		return QuietPoint{}, err
	}

	found := false
	var best QuietPoint
	for _, sample := range samples {
		if math.IsNaN(sample.Time) || math.IsNaN(sample.Momentary) {
			continue
		}
		if sample.Time < start || sample.Time > end {
			continue
		}
		if sample.Momentary <= thresholdLUFS {
			continue
		}
		if !found || sample.Momentary < best.Loudness ||
			(sample.Momentary == best.Loudness && sample.Time < best.Time) {
			best = QuietPoint{Time: sample.Time, Loudness: sample.Momentary}
			found = true
		}
	}

	if !found {
		return QuietPoint{}, &NotFoundError{Start: start, End: end, Threshold: thresholdLUFS}
	}

	f.logger.Debug("quiet point selected",
		"start", start, "end", end, "time", best.Time, "loudness", best.Loudness)
	return best, nil
}
