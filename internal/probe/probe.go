// Package probe takes the immutable per-run snapshot of a container's
// streams: codec, tags, audio ordinals, bitrate hints, and durations.
package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"glitchcut/internal/ffprobe"
	"glitchcut/internal/language"
)

// Stream type classes. Anything that is not audio is only ever stream-copied.
const (
	ClassAudio = "audio"
	ClassOther = "other"
)

// StreamDescriptor is one container stream as seen at probe time.
type StreamDescriptor struct {
	// ContainerIndex is the stream's position in the original container.
	ContainerIndex int
	// TypeClass is ClassAudio or ClassOther.
	TypeClass string
	// AudioOrdinal is the 0-based position among audio streams, used by the
	// engine's a:N selector syntax. -1 for non-audio streams.
	AudioOrdinal int
	Codec        string
	Title        string
	Language     string
	Bitrate      Bitrate
	SampleRate   string
	Channels     int
}

// Inventory is the snapshot of all streams plus container-level durations.
// It is created once per run and never mutated.
type Inventory struct {
	Path              string
	Streams           []StreamDescriptor
	ContainerDuration float64

	result ffprobe.Result
}

// StreamNotFoundError reports a requested container index with no audio
// stream behind it.
type StreamNotFoundError struct {
	Index int
}

func (e *StreamNotFoundError) Error() string {
	return fmt.Sprintf("no audio stream at container index %d", e.Index)
}

// BitrateUndeterminedError reports that no detection source yielded a
// positive bitrate for the stream.
type BitrateUndeterminedError struct {
	Index int
}

func (e *BitrateUndeterminedError) Error() string {
	return fmt.Sprintf("could not determine bitrate for stream %d; supply one with --bitrate", e.Index)
}

// Inspect probes the container and builds the stream inventory.
func Inspect(ctx context.Context, ffprobeBinary, path string) (*Inventory, error) {
	result, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
	if err != nil {
		return nil, err
	}
	return NewInventory(path, result), nil
}

// NewInventory derives descriptors from a raw probe result.
func NewInventory(path string, result ffprobe.Result) *Inventory {
	inv := &Inventory{
		Path:              path,
		ContainerDuration: result.DurationSeconds(),
		result:            result,
	}
	audioOrdinal := 0
	for _, stream := range result.Streams {
		desc := StreamDescriptor{
			ContainerIndex: stream.Index,
			TypeClass:      ClassOther,
			AudioOrdinal:   -1,
			Codec:          stream.CodecName,
			SampleRate:     stream.SampleRate,
			Channels:       stream.Channels,
		}
		if strings.EqualFold(stream.CodecType, ClassAudio) {
			desc.TypeClass = ClassAudio
			desc.AudioOrdinal = audioOrdinal
			audioOrdinal++
			desc.Title = stream.Tag("title")
			desc.Language = language.FromTags(stream.Tags)
			desc.Bitrate = detectBitrate(stream, result.DurationSeconds())
		}
		inv.Streams = append(inv.Streams, desc)
	}
	return inv
}

// Audio returns the audio streams in container order.
func (inv *Inventory) Audio() []StreamDescriptor {
	var audio []StreamDescriptor
	for _, desc := range inv.Streams {
		if desc.TypeClass == ClassAudio {
			audio = append(audio, desc)
		}
	}
	return audio
}

// TargetAudio resolves the audio stream at the given container index.
// Fatal when the index is absent, not audio, or its codec is unknown.
func (inv *Inventory) TargetAudio(containerIndex int) (StreamDescriptor, error) {
	for _, desc := range inv.Streams {
		if desc.ContainerIndex != containerIndex {
			continue
		}
		if desc.TypeClass != ClassAudio {
			return StreamDescriptor{}, &StreamNotFoundError{Index: containerIndex}
		}
		if strings.TrimSpace(desc.Codec) == "" {
			return StreamDescriptor{}, fmt.Errorf("could not determine codec for audio stream %d", containerIndex)
		}
		return desc, nil
	}
	return StreamDescriptor{}, &StreamNotFoundError{Index: containerIndex}
}

// StreamDuration reports the duration of the stream at the container index,
// falling back to the container duration.
func (inv *Inventory) StreamDuration(containerIndex int) (float64, bool) {
	return inv.result.StreamDuration(containerIndex)
}

// Bitrate is a detected stream bitrate. The zero value means unknown.
type Bitrate struct {
	Kbps int
	// Estimated marks values derived from byte counts or codec-typical
	// defaults rather than reported by the container.
	Estimated bool
}

// String renders the bitrate for tables: "128 kbps", "~240 kbps", "unknown".
func (b Bitrate) String() string {
	if b.Kbps <= 0 {
		return "unknown"
	}
	if b.Estimated {
		return fmt.Sprintf("~%d kbps", b.Kbps)
	}
	return fmt.Sprintf("%d kbps", b.Kbps)
}

// EncoderValue renders the bitrate in the engine's -b:a syntax, or "" when
// unknown.
func (b Bitrate) EncoderValue() string {
	if b.Kbps <= 0 {
		return ""
	}
	return fmt.Sprintf("%dk", b.Kbps)
}

// BitrateForProcessing resolves the encoder bitrate for a stream, failing
// with BitrateUndeterminedError when every detection source came up empty.
func (inv *Inventory) BitrateForProcessing(containerIndex int) (string, error) {
	desc, err := inv.TargetAudio(containerIndex)
	if err != nil {
		return "", err
	}
	if value := desc.Bitrate.EncoderValue(); value != "" {
		return value, nil
	}
	return "", &BitrateUndeterminedError{Index: containerIndex}
}

// codecTypicalKbps supplies last-resort estimates for common codecs.
var codecTypicalKbps = map[string]int{
	"aac":  128,
	"mp3":  192,
	"flac": 1000,
	"ac3":  640,
	"dts":  1536,
	"eac3": 768,
}

// detectBitrate walks the detection chain: direct bit_rate field, encoder
// size tags, byte-count estimate, codec-typical default. First positive
// value wins.
func detectBitrate(stream ffprobe.Stream, containerDuration float64) Bitrate {
	if kbps := parsePositiveInt(stream.BitRate) / 1000; kbps > 0 {
		return Bitrate{Kbps: kbps}
	}

	for _, tag := range []string{"BPS", "BPS-eng"} {
		if kbps := parsePositiveInt(stream.Tag(tag)) / 1000; kbps > 0 {
			return Bitrate{Kbps: kbps}
		}
	}

	if containerDuration > 0 {
		if sizeBytes := parsePositiveInt(stream.Tag("NUMBER_OF_BYTES")); sizeBytes > 0 {
			bps := float64(sizeBytes*8) / containerDuration
			if kbps := int(bps / 1000.0); kbps > 0 {
				return Bitrate{Kbps: kbps, Estimated: true}
			}
		}
	}

	if kbps, ok := codecTypicalKbps[strings.ToLower(stream.CodecName)]; ok {
		return Bitrate{Kbps: kbps, Estimated: true}
	}
	return Bitrate{}
}

func parsePositiveInt(value string) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}
