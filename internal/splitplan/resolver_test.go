package splitplan

import (
	"context"
	"math"
	"strings"
	"testing"

	"glitchcut/internal/ffmpeg"
	"glitchcut/internal/logging"
)

func testFinder(samples ...ffmpeg.LoudnessSample) *Finder {
	return NewFinder(&fakeMeter{samples: samples}, logging.NewNop())
}

func TestResolveSortsExplicitPoints(t *testing.T) {
	plan, err := Resolve(context.Background(), testFinder(), ResolveRequest{
		Explicit: []Point{
			{Time: 5.0, DelayMS: 200},
			{Time: 2.0, DelayMS: -100},
		},
		InitialDelayMS: 50,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(plan.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(plan.Points))
	}
	if plan.Points[0].Time != 2.0 || plan.Points[0].DelayMS != -100 {
		t.Fatalf("unexpected first point: %+v", plan.Points[0])
	}
	if plan.Points[1].Time != 5.0 || plan.Points[1].DelayMS != 200 {
		t.Fatalf("unexpected second point: %+v", plan.Points[1])
	}
	wantDelays := []int{50, -100, 200}
	for i, want := range wantDelays {
		if plan.Delays[i] != want {
			t.Fatalf("delays = %v, want %v", plan.Delays, wantDelays)
		}
	}
}

func TestResolveDelayVectorInvariant(t *testing.T) {
	cases := []struct {
		name     string
		explicit []Point
		ranges   []Range
	}{
		{"no points", nil, nil},
		{"one explicit", []Point{{Time: 1}}, nil},
		{"explicit and range", []Point{{Time: 1}, {Time: 9}}, []Range{{Start: 3, End: 5}}},
	}
	finder := testFinder(ffmpeg.LoudnessSample{Time: 4.0, Momentary: -60})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := Resolve(context.Background(), finder, ResolveRequest{
				Explicit:             tc.explicit,
				Ranges:               tc.ranges,
				SilenceThresholdLUFS: -95,
			})
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if len(plan.Delays) != len(plan.Points)+1 {
				t.Fatalf("delay vector invariant violated: %d delays for %d points",
					len(plan.Delays), len(plan.Points))
			}
		})
	}
}

func TestResolveAdoptsQuietPointsWithRangeDelay(t *testing.T) {
	finder := testFinder(
		ffmpeg.LoudnessSample{Time: 4.0, Momentary: -60},
		ffmpeg.LoudnessSample{Time: 4.5, Momentary: -30},
	)
	plan, err := Resolve(context.Background(), finder, ResolveRequest{
		Ranges:               []Range{{Start: 3, End: 5, DelayMS: 360}},
		SilenceThresholdLUFS: -95,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(plan.Points) != 1 {
		t.Fatalf("expected 1 resolved point, got %d", len(plan.Points))
	}
	point := plan.Points[0]
	if point.Time != 4.0 || point.DelayMS != 360 || !point.Resolved {
		t.Fatalf("unexpected resolved point: %+v", point)
	}
	if point.Source != "3.000-5.000" {
		t.Fatalf("unexpected source label: %q", point.Source)
	}
}

func TestResolveStableOrderOnEqualTimes(t *testing.T) {
	// Two explicit points may legally collide; first-seen order is kept.
	plan, err := Resolve(context.Background(), testFinder(), ResolveRequest{
		Explicit: []Point{
			{Time: 3.0, DelayMS: 100},
			{Time: 3.0, DelayMS: 200},
		},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if plan.Points[0].DelayMS != 100 || plan.Points[1].DelayMS != 200 {
		t.Fatalf("equal-time points reordered: %+v", plan.Points)
	}
}

func TestResolveRejectsNaNTime(t *testing.T) {
	_, err := Resolve(context.Background(), testFinder(), ResolveRequest{
		Explicit: []Point{{Time: math.NaN()}},
	})
	if err == nil || !strings.Contains(err.Error(), "NaN") {
		t.Fatalf("expected NaN rejection, got %v", err)
	}
}

func TestResolveRejectsTimeBeyondDuration(t *testing.T) {
	_, err := Resolve(context.Background(), testFinder(), ResolveRequest{
		Explicit:       []Point{{Time: 120.0}},
		StreamDuration: 100.0,
	})
	if err == nil || !strings.Contains(err.Error(), "beyond the stream duration") {
		t.Fatalf("expected out-of-range rejection, got %v", err)
	}
}

func TestResolveRejectsExplicitCollidingWithResolvedPoint(t *testing.T) {
	finder := testFinder(ffmpeg.LoudnessSample{Time: 4.0, Momentary: -60})
	_, err := Resolve(context.Background(), finder, ResolveRequest{
		Explicit:             []Point{{Time: 4.0, DelayMS: 100}},
		Ranges:               []Range{{Start: 3, End: 5, DelayMS: 200}},
		SilenceThresholdLUFS: -95,
	})
	if err == nil || !strings.Contains(err.Error(), "collides") {
		t.Fatalf("expected collision rejection, got %v", err)
	}
}

func TestResolvePropagatesQuietPointNotFound(t *testing.T) {
	finder := testFinder(ffmpeg.LoudnessSample{Time: 4.0, Momentary: -120})
	_, err := Resolve(context.Background(), finder, ResolveRequest{
		Ranges:               []Range{{Start: 3, End: 5}},
		SilenceThresholdLUFS: -95,
	})
	if err == nil {
		t.Fatal("expected NotFound to abort resolution")
	}
}

func TestParsePoint(t *testing.T) {
	point, err := ParsePoint("177.3:360")
	if err != nil {
		t.Fatalf("ParsePoint failed: %v", err)
	}
	if point.Time != 177.3 || point.DelayMS != 360 {
		t.Fatalf("unexpected point: %+v", point)
	}
	if point.Source != "177.300" {
		t.Fatalf("unexpected source: %q", point.Source)
	}

	negative, err := ParsePoint("12.5:-250")
	if err != nil {
		t.Fatalf("ParsePoint with negative delay failed: %v", err)
	}
	if negative.DelayMS != -250 {
		t.Fatalf("unexpected delay: %d", negative.DelayMS)
	}

	for _, bad := range []string{"177.3", "abc:100", "1.0:x", ""} {
		if _, err := ParsePoint(bad); err == nil {
			t.Fatalf("expected parse error for %q", bad)
		}
	}
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("177.3:672.3:360")
	if err != nil {
		t.Fatalf("ParseRange failed: %v", err)
	}
	if r.Start != 177.3 || r.End != 672.3 || r.DelayMS != 360 {
		t.Fatalf("unexpected range: %+v", r)
	}

	for _, bad := range []string{"1:2", "5:3:100", "a:2:3", "1:b:3", "1:2:c"} {
		if _, err := ParseRange(bad); err == nil {
			t.Fatalf("expected parse error for %q", bad)
		}
	}
}
