package ffmpeg

import (
	"context"
	"regexp"
	"strconv"
)

// LoudnessSample is one momentary-loudness reading from the ebur128 filter.
// Time is relative to the start of the metered input.
type LoudnessSample struct {
	Time      float64
	Momentary float64
}

// ebur128 progress lines look like:
//
//	[Parsed_ebur128_0 @ 0x5570] t: 2.99998  TARGET:-23 LUFS  M: -18.1 S: -19.2  I: -17.8 LUFS ...
var loudnessPattern = regexp.MustCompile(`\[Parsed_ebur128_0 @ [^\]]+\] t:\s*(\S+)\s+TARGET:.*?M:\s*(\S+)\s+S:`)

// MeterLoudness runs a momentary-loudness metering pass over
// [start, start+duration) and returns every sample the filter reported.
// Samples with unparsable values are dropped; NaN readings pass through for
// the caller to filter.
func (r *Runner) MeterLoudness(ctx context.Context, path string, start, duration float64) ([]LoudnessSample, error) {
	args := []string{
		"-i", path,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-af", "ebur128=peak=true",
		"-f", "null", "-",
	}
	stderr, err := r.capture(ctx, "meter-loudness", args)
	if err != nil {
		return nil, err
	}
	return parseLoudnessLog(stderr), nil
}

func parseLoudnessLog(log string) []LoudnessSample {
	matches := loudnessPattern.FindAllStringSubmatch(log, -1)
	samples := make([]LoudnessSample, 0, len(matches))
	for _, match := range matches {
		t, errT := strconv.ParseFloat(match[1], 64)
		m, errM := strconv.ParseFloat(match[2], 64)
		if errT != nil || errM != nil {
			continue
		}
		samples = append(samples, LoudnessSample{Time: t, Momentary: m})
	}
	return samples
}
