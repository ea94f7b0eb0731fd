package splitplan

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Plan is the resolved split plan: points sorted ascending by time plus the
// delay vector. Delays[0] is the initial (pre-first-split) delay; Delays[i]
// for i > 0 applies to the segment starting at Points[i-1].
type Plan struct {
	Points []Point
	Delays []int
}

// ResolveRequest carries everything split resolution needs.
type ResolveRequest struct {
	AudioPath            string
	Explicit             []Point
	Ranges               []Range
	InitialDelayMS       int
	SilenceThresholdLUFS float64
	// StreamDuration bounds split times when positive; 0 skips the check.
	StreamDuration float64
}

// Resolve merges explicit points with quiet-point search results into one
// ordered plan. Explicit points are considered before ranges, each group in
// input order; the sort is stable so equal times keep that order.
func Resolve(ctx context.Context, finder *Finder, req ResolveRequest) (*Plan, error) {
	points := make([]Point, 0, len(req.Explicit)+len(req.Ranges))

	for _, point := range req.Explicit {
		if err := validateTime(point.Time, req.StreamDuration); err != nil {
			return nil, fmt.Errorf("split at %v: %w", point.Time, err)
		}
		if point.Source == "" {
			point.Source = fmt.Sprintf("%.3f", point.Time)
		}
		point.Resolved = false
		points = append(points, point)
	}

	for _, r := range req.Ranges {
		if math.IsNaN(r.Start) || math.IsNaN(r.End) {
			return nil, fmt.Errorf("split range %s: time is NaN", r.label())
		}
		if err := validateTime(r.Start, req.StreamDuration); err != nil {
			return nil, fmt.Errorf("split range %s: %w", r.label(), err)
		}
		quiet, err := finder.FindQuietestPoint(ctx, req.AudioPath, r.Start, r.End, req.SilenceThresholdLUFS)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{
			Time:     quiet.Time,
			DelayMS:  r.DelayMS,
			Source:   r.label(),
			Resolved: true,
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time < points[j].Time
	})

	// An explicit point landing exactly on a resolved quiet point would
	// produce a zero-length segment; reject it instead of emitting one.
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if prev.Time == cur.Time && prev.Resolved != cur.Resolved {
			return nil, fmt.Errorf("explicit split at %.3fs collides with quiet point resolved from range %s; move the split or narrow the range",
				cur.Time, resolvedSource(prev, cur))
		}
	}

	delays := make([]int, 0, len(points)+1)
	delays = append(delays, req.InitialDelayMS)
	for _, point := range points {
		delays = append(delays, point.DelayMS)
	}

	plan := &Plan{Points: points, Delays: delays}
	if len(plan.Delays) != len(plan.Points)+1 {
		// Can only happen from a construction bug above, never from input.
		return nil, fmt.Errorf("internal: delay vector has %d entries for %d split points", len(plan.Delays), len(plan.Points))
	}
	return plan, nil
}

func resolvedSource(a, b Point) string {
	if a.Resolved {
		return a.Source
	}
	return b.Source
}

func validateTime(t, duration float64) error {
	if math.IsNaN(t) {
		return fmt.Errorf("time is NaN")
	}
	if math.IsInf(t, 0) {
		return fmt.Errorf("time is infinite")
	}
	if t < 0 {
		return fmt.Errorf("time %v is negative", t)
	}
	if duration > 0 && t >= duration {
		return fmt.Errorf("time %v is beyond the stream duration %.3fs", t, duration)
	}
	return nil
}
