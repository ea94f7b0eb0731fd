package splitplan

import (
	"fmt"
	"strconv"
	"strings"
)

// Point is one split position with the delay applied to the segment that
// starts there. A positive delay inserts silence; a negative one trims.
type Point struct {
	// Time in seconds from the start of the stream.
	Time float64
	// DelayMS applies to the segment beginning at Time.
	DelayMS int
	// Source describes where the point came from, for plan display:
	// the literal time for explicit points, "start-end" for resolved ranges.
	Source string
	// Resolved marks points produced by quiet-point search.
	Resolved bool
}

// Range is a time window to search for the quietest audible moment.
type Range struct {
	Start   float64
	End     float64
	DelayMS int
}

func (r Range) label() string {
	return fmt.Sprintf("%.3f-%.3f", r.Start, r.End)
}

// ParsePoint parses "<seconds>:<delay_ms>", e.g. "177.3:360".
func ParsePoint(s string) (Point, error) {
	pos := strings.LastIndex(s, ":")
	if pos < 0 {
		return Point{}, fmt.Errorf("invalid split %q: expected <time>:<delay>", s)
	}
	time, err := strconv.ParseFloat(s[:pos], 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid time in split %q: %w", s, err)
	}
	delay, err := strconv.Atoi(s[pos+1:])
	if err != nil {
		return Point{}, fmt.Errorf("invalid delay in split %q: %w", s, err)
	}
	return Point{Time: time, DelayMS: delay, Source: fmt.Sprintf("%.3f", time)}, nil
}

// ParseRange parses "<start>:<end>:<delay_ms>", e.g. "177.3:672.3:360".
func ParseRange(s string) (Range, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Range{}, fmt.Errorf("invalid split range %q: expected <start>:<end>:<delay>", s)
	}
	start, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Range{}, fmt.Errorf("invalid start time in range %q: %w", s, err)
	}
	end, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Range{}, fmt.Errorf("invalid end time in range %q: %w", s, err)
	}
	delay, err := strconv.Atoi(parts[2])
	if err != nil {
		return Range{}, fmt.Errorf("invalid delay in range %q: %w", s, err)
	}
	if start >= end {
		return Range{}, fmt.Errorf("invalid range %q: start must be less than end", s)
	}
	return Range{Start: start, End: end, DelayMS: delay}, nil
}
