package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
)

// restampFilter rebases timestamps to zero so cut segments concatenate
// without PTS gaps.
const restampFilter = "asetpts=PTS-STARTPTS"

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExtractStream pulls one container stream into a lossless FLAC file.
// The specifier uses ffmpeg map syntax relative to the first input, e.g. "0:2".
func (r *Runner) ExtractStream(ctx context.Context, source, streamSpecifier, output string) error {
	args := []string{"-y", "-i", source, "-map", streamSpecifier, "-c:a", "flac", output}
	return r.run(ctx, "extract-stream", args)
}

// ExtractRange describes a sub-range cut of an audio file.
type ExtractRange struct {
	Source   string
	Start    float64
	Duration float64
	// ToEnd selects everything from Start to the end of the file; Duration is
	// ignored when set.
	ToEnd  bool
	Output string
}

// Extract cuts the requested range into a fresh FLAC file with timestamps
// re-stamped from zero.
func (r *Runner) Extract(ctx context.Context, req ExtractRange) error {
	args := []string{"-y", "-i", req.Source, "-ss", formatSeconds(req.Start)}
	if !req.ToEnd {
		args = append(args, "-t", formatSeconds(req.Duration))
	}
	args = append(args, "-af", restampFilter, "-c:a", "flac", req.Output)
	return r.run(ctx, "extract-range", args)
}

// PrependSilence pads the start of an audio file with delayMs of silence.
func (r *Runner) PrependSilence(ctx context.Context, input, output string, delayMs int) error {
	filter := fmt.Sprintf("adelay=delays=%d:all=1,%s", delayMs, restampFilter)
	args := []string{"-y", "-i", input, "-filter_complex", filter, "-c:a", "flac", output}
	return r.run(ctx, "prepend-silence", args)
}

// TrimStart drops the first trimMs milliseconds of an audio file.
func (r *Runner) TrimStart(ctx context.Context, input, output string, trimMs int) error {
	seconds := float64(trimMs) / 1000.0
	args := []string{"-y", "-i", input, "-ss", formatSeconds(seconds), "-af", restampFilter, "-c:a", "flac", output}
	return r.run(ctx, "trim-start", args)
}

// Concat joins the inputs into one continuous FLAC file. Input order is
// output order; callers are responsible for passing segments in time order.
func (r *Runner) Concat(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return &CommandError{Class: "concat", Err: fmt.Errorf("no inputs")}
	}
	args := []string{"-y"}
	filter := ""
	for i, input := range inputs {
		args = append(args, "-i", input)
		filter += fmt.Sprintf("[%d:a]", i)
	}
	filter += fmt.Sprintf("concat=n=%d:v=0:a=1[a]", len(inputs))
	args = append(args, "-filter_complex", filter, "-map", "[a]", "-c:a", "flac", output)
	return r.run(ctx, "concat", args)
}

// TrimTo cuts an audio file to exactly [0, target) seconds.
func (r *Runner) TrimTo(ctx context.Context, input, output string, target float64) error {
	args := []string{"-y", "-i", input, "-af", fmt.Sprintf("atrim=0:%.6f", target), "-c:a", "flac", output}
	return r.run(ctx, "trim-to", args)
}

// PadWithSilence appends padDur seconds of silence and caps the result at
// total seconds.
func (r *Runner) PadWithSilence(ctx context.Context, input, output string, padDur, total float64) error {
	args := []string{
		"-y", "-i", input,
		"-af", fmt.Sprintf("apad=pad_dur=%.6f", padDur),
		"-t", fmt.Sprintf("%.6f", total),
		"-c:a", "flac", output,
	}
	return r.run(ctx, "pad-with-silence", args)
}

// Encode converts an audio file to the target codec and bitrate.
func (r *Runner) Encode(ctx context.Context, input, codec, bitrate, output string) error {
	args := []string{"-y", "-i", input, "-af", restampFilter, "-c:a", codec, "-b:a", bitrate, output}
	return r.run(ctx, "encode", args)
}

// RemuxRequest substitutes a new audio track into a container.
type RemuxRequest struct {
	Container string
	NewAudio  string
	Output    string
	// Maps lists ffmpeg stream specifiers in output order; the replacement
	// track appears as "1:0" in the slot of the stream it replaces.
	Maps []string
	// AudioOrdinal addresses the replaced stream among audio streams for
	// metadata overrides.
	AudioOrdinal int
	// Title and Language are re-attached only when non-empty.
	Title    string
	Language string
}

// Remux rebuilds the container with every stream copied and the target audio
// slot sourced from the new track.
func (r *Runner) Remux(ctx context.Context, req RemuxRequest) error {
	args := []string{"-y", "-i", req.Container, "-i", req.NewAudio}
	for _, m := range req.Maps {
		args = append(args, "-map", m)
	}
	args = append(args, "-c", "copy")
	metadataSpec := fmt.Sprintf("-metadata:s:a:%d", req.AudioOrdinal)
	if req.Language != "" {
		args = append(args, metadataSpec, "language="+req.Language)
	}
	if req.Title != "" {
		args = append(args, metadataSpec, "title="+req.Title)
	}
	args = append(args, req.Output)
	return r.run(ctx, "remux", args)
}
