// Package assemble turns a resolved split plan into a single continuous
// audio file. Each segment is cut from the extracted source track, shifted
// by its delay, and the adjusted segments are concatenated in index order.
package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"glitchcut/internal/ffmpeg"
	"glitchcut/internal/splitplan"
)

// Engine is the subset of media operations assembly needs.
type Engine interface {
	Extract(ctx context.Context, req ffmpeg.ExtractRange) error
	PrependSilence(ctx context.Context, input, output string, delayMs int) error
	TrimStart(ctx context.Context, input, output string, trimMs int) error
	Concat(ctx context.Context, inputs []string, output string) error
}

// Scratch provides paths for intermediate files.
type Scratch interface {
	Path(name string) string
}

// Assembler cuts, shifts, and rejoins segments inside a scratch workspace.
type Assembler struct {
	engine  Engine
	scratch Scratch
	logger  *slog.Logger
}

func New(engine Engine, scratch Scratch, logger *slog.Logger) *Assembler {
	return &Assembler{engine: engine, scratch: scratch, logger: logger}
}

// Assemble cuts every segment out of source, applies each segment's delay,
// and concatenates the results into output. Pre-adjustment cuts are removed
// as soon as their adjusted replacement exists so scratch usage stays at one
// extra file.
func (a *Assembler) Assemble(ctx context.Context, source string, segments []splitplan.Segment, output string) error {
	if len(segments) == 0 {
		return fmt.Errorf("no segments to assemble")
	}

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		part, err := a.buildSegment(ctx, source, seg)
		if err != nil {
			return fmt.Errorf("segment %d: %w", seg.Index, err)
		}
		parts = append(parts, part)
	}

	a.logger.Info("concatenating segments", "count", len(parts))
	if err := a.engine.Concat(ctx, parts, output); err != nil {
		return fmt.Errorf("concatenate segments: %w", err)
	}
	for _, part := range parts {
		_ = os.Remove(part)
	}
	return nil
}

func (a *Assembler) buildSegment(ctx context.Context, source string, seg splitplan.Segment) (string, error) {
	cut := a.scratch.Path(fmt.Sprintf("part_%03d_raw.flac", seg.Index))
	final := a.scratch.Path(fmt.Sprintf("part_%03d.flac", seg.Index))

	target := cut
	if seg.DelayMS == 0 {
		target = final
	}
	req := ffmpeg.ExtractRange{
		Source:   source,
		Start:    seg.Start,
		Duration: seg.Duration,
		ToEnd:    seg.ToEnd,
		Output:   target,
	}
	if err := a.engine.Extract(ctx, req); err != nil {
		return "", fmt.Errorf("cut range: %w", err)
	}

	switch {
	case seg.DelayMS > 0:
		a.logger.Info("delaying segment", "segment", seg.Index, "delay_ms", seg.DelayMS)
		if err := a.engine.PrependSilence(ctx, cut, final, seg.DelayMS); err != nil {
			return "", fmt.Errorf("prepend silence: %w", err)
		}
	case seg.DelayMS < 0:
		a.logger.Info("advancing segment", "segment", seg.Index, "trim_ms", -seg.DelayMS)
		if err := a.engine.TrimStart(ctx, cut, final, -seg.DelayMS); err != nil {
			return "", fmt.Errorf("trim start: %w", err)
		}
	default:
		return final, nil
	}

	_ = os.Remove(cut)
	return final, nil
}
