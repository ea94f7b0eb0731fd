// Package remux puts the repaired audio track back into the source
// container. Every other stream is copied bit-for-bit and keeps its original
// position; only the target audio slot is sourced from the new track.
package remux

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"glitchcut/internal/ffmpeg"
	"glitchcut/internal/probe"
)

// Engine is the subset of media operations remuxing needs.
type Engine interface {
	Encode(ctx context.Context, input, codec, bitrate, output string) error
	Remux(ctx context.Context, req ffmpeg.RemuxRequest) error
}

// Scratch provides paths for intermediate files.
type Scratch interface {
	Path(name string) string
}

// ExtensionForCodec picks a file extension the codec can be written into
// directly. Codecs without a raw form fall back to a Matroska audio wrapper.
func ExtensionForCodec(codec string) string {
	switch codec {
	case "aac", "ac3", "dts", "mp3", "opus":
		return codec
	default:
		return "mka"
	}
}

// BuildStreamMaps lists ffmpeg -map specifiers reproducing the container's
// stream order, with the target stream's slot pointing at the second input.
func BuildStreamMaps(streams []probe.StreamDescriptor, target probe.StreamDescriptor) []string {
	maps := make([]string, 0, len(streams))
	for _, s := range streams {
		if s.ContainerIndex == target.ContainerIndex {
			maps = append(maps, "1:0")
			continue
		}
		maps = append(maps, fmt.Sprintf("0:%d", s.ContainerIndex))
	}
	return maps
}

// Request describes one audio-track replacement.
type Request struct {
	// Container is the original source file.
	Container string
	// FittedAudio is the repaired, length-fitted FLAC file.
	FittedAudio string
	// Target is the stream being replaced.
	Target probe.StreamDescriptor
	// Streams is the container's full stream inventory in container order.
	Streams []probe.StreamDescriptor
	// Bitrate is the encoder bitrate for the converted track, e.g. "640k".
	Bitrate string
	Output  string
}

// Remuxer converts the repaired track back to its original codec and swaps
// it into the container.
type Remuxer struct {
	engine  Engine
	scratch Scratch
	logger  *slog.Logger
}

func New(engine Engine, scratch Scratch, logger *slog.Logger) *Remuxer {
	return &Remuxer{engine: engine, scratch: scratch, logger: logger}
}

// Replace encodes the fitted audio to the target stream's codec and rebuilds
// the container with the encoded track in the target's slot. Title and
// language metadata from the original stream are re-attached verbatim.
func (r *Remuxer) Replace(ctx context.Context, req Request) error {
	ext := ExtensionForCodec(req.Target.Codec)
	encoded := r.scratch.Path("final_for_remux." + ext)

	r.logger.Info("converting to original codec",
		"codec", req.Target.Codec,
		"bitrate", req.Bitrate,
		"output", filepath.Base(encoded))
	if err := r.engine.Encode(ctx, req.FittedAudio, req.Target.Codec, req.Bitrate, encoded); err != nil {
		return fmt.Errorf("convert to %s: %w", req.Target.Codec, err)
	}

	engineReq := ffmpeg.RemuxRequest{
		Container:    req.Container,
		NewAudio:     encoded,
		Output:       req.Output,
		Maps:         BuildStreamMaps(req.Streams, req.Target),
		AudioOrdinal: req.Target.AudioOrdinal,
		Title:        req.Target.Title,
		Language:     req.Target.Language,
	}
	r.logger.Info("remuxing container",
		"streams", len(engineReq.Maps),
		"replaced_ordinal", engineReq.AudioOrdinal)
	if err := r.engine.Remux(ctx, engineReq); err != nil {
		return fmt.Errorf("remux container: %w", err)
	}
	return nil
}
