package assemble

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"glitchcut/internal/ffmpeg"
	"glitchcut/internal/logging"
	"glitchcut/internal/splitplan"
)

type call struct {
	op   string
	args []string
}

type fakeEngine struct {
	calls   []call
	failOp  string
	failErr error
}

func (f *fakeEngine) fail(op string) error {
	if f.failOp == op {
		return f.failErr
	}
	return nil
}

func (f *fakeEngine) Extract(_ context.Context, req ffmpeg.ExtractRange) error {
	f.calls = append(f.calls, call{op: "extract", args: []string{
		req.Source,
		fmt.Sprintf("%.3f", req.Start),
		fmt.Sprintf("%.3f/%v", req.Duration, req.ToEnd),
		req.Output,
	}})
	return f.fail("extract")
}

func (f *fakeEngine) PrependSilence(_ context.Context, input, output string, delayMs int) error {
	f.calls = append(f.calls, call{op: "prepend", args: []string{input, output, fmt.Sprint(delayMs)}})
	return f.fail("prepend")
}

func (f *fakeEngine) TrimStart(_ context.Context, input, output string, trimMs int) error {
	f.calls = append(f.calls, call{op: "trim", args: []string{input, output, fmt.Sprint(trimMs)}})
	return f.fail("trim")
}

func (f *fakeEngine) Concat(_ context.Context, inputs []string, output string) error {
	args := append(append([]string{}, inputs...), output)
	f.calls = append(f.calls, call{op: "concat", args: args})
	return f.fail("concat")
}

type fakeScratch struct{ root string }

func (s fakeScratch) Path(name string) string { return filepath.Join(s.root, name) }

func segments(t *testing.T, points []splitplan.Point, initialDelay int) []splitplan.Segment {
	t.Helper()
	plan := splitplan.Plan{Points: points, Delays: make([]int, len(points)+1)}
	plan.Delays[0] = initialDelay
	for i, p := range points {
		plan.Delays[i+1] = p.DelayMS
	}
	return plan.Segments()
}

func TestAssembleAppliesDelaysAndConcatsInOrder(t *testing.T) {
	engine := &fakeEngine{}
	scratch := fakeScratch{root: t.TempDir()}
	asm := New(engine, scratch, logging.NewNop())

	segs := segments(t, []splitplan.Point{
		{Time: 2.0, DelayMS: 150},
		{Time: 5.0, DelayMS: -80},
	}, 0)

	if err := asm.Assemble(context.Background(), "audio.flac", segs, "joined.flac"); err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}

	var ops []string
	for _, c := range engine.calls {
		ops = append(ops, c.op)
	}
	want := []string{"extract", "extract", "prepend", "extract", "trim", "concat"}
	if fmt.Sprint(ops) != fmt.Sprint(want) {
		t.Fatalf("operation order = %v, want %v", ops, want)
	}

	concat := engine.calls[len(engine.calls)-1]
	wantInputs := []string{
		scratch.Path("part_000.flac"),
		scratch.Path("part_001.flac"),
		scratch.Path("part_002.flac"),
		"joined.flac",
	}
	if fmt.Sprint(concat.args) != fmt.Sprint(wantInputs) {
		t.Fatalf("concat args = %v, want %v", concat.args, wantInputs)
	}
}

func TestAssembleZeroDelayWritesFinalNameDirectly(t *testing.T) {
	engine := &fakeEngine{}
	scratch := fakeScratch{root: t.TempDir()}
	asm := New(engine, scratch, logging.NewNop())

	segs := segments(t, nil, 0)
	if err := asm.Assemble(context.Background(), "audio.flac", segs, "joined.flac"); err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}

	extract := engine.calls[0]
	if got := extract.args[3]; got != scratch.Path("part_000.flac") {
		t.Fatalf("zero-delay extract output = %s, want final part name", got)
	}
	for _, c := range engine.calls {
		if c.op == "prepend" || c.op == "trim" {
			t.Fatalf("unexpected %s call for zero-delay segment", c.op)
		}
	}
}

func TestAssembleLastSegmentRunsToEnd(t *testing.T) {
	engine := &fakeEngine{}
	asm := New(engine, fakeScratch{root: t.TempDir()}, logging.NewNop())

	segs := segments(t, []splitplan.Point{{Time: 3.0}}, 0)
	if err := asm.Assemble(context.Background(), "audio.flac", segs, "joined.flac"); err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}

	var extracts []call
	for _, c := range engine.calls {
		if c.op == "extract" {
			extracts = append(extracts, c)
		}
	}
	if len(extracts) != 2 {
		t.Fatalf("expected 2 extracts, got %d", len(extracts))
	}
	if got := extracts[1].args[2]; got != "0.000/true" {
		t.Fatalf("last segment duration spec = %s, want open-ended cut", got)
	}
}

func TestAssemblePropagatesEngineErrors(t *testing.T) {
	wantErr := errors.New("boom")
	engine := &fakeEngine{failOp: "prepend", failErr: wantErr}
	asm := New(engine, fakeScratch{root: t.TempDir()}, logging.NewNop())

	segs := segments(t, []splitplan.Point{{Time: 1.0, DelayMS: 40}}, 0)
	err := asm.Assemble(context.Background(), "audio.flac", segs, "joined.flac")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped engine error, got %v", err)
	}
}

func TestAssembleRejectsEmptyPlan(t *testing.T) {
	asm := New(&fakeEngine{}, fakeScratch{root: t.TempDir()}, logging.NewNop())
	if err := asm.Assemble(context.Background(), "audio.flac", nil, "joined.flac"); err == nil {
		t.Fatal("expected error for empty segment list")
	}
}
