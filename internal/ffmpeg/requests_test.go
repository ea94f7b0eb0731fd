package ffmpeg

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

// captureArgs reroutes engine invocations to a no-op binary while recording
// the argv that would have been handed to ffmpeg.
func captureArgs(t *testing.T) *[][]string {
	t.Helper()
	var calls [][]string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, append([]string{}, args...))
		return exec.CommandContext(ctx, "true")
	}
	t.Cleanup(func() { commandContext = original })
	return &calls
}

func argString(args []string) string { return strings.Join(args, " ") }

func TestExtractBuildsRangeArguments(t *testing.T) {
	calls := captureArgs(t)
	runner := NewRunner()

	err := runner.Extract(context.Background(), ExtractRange{
		Source:   "in.flac",
		Start:    2.5,
		Duration: 7.25,
		Output:   "part.flac",
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	got := argString((*calls)[0])
	want := "-y -i in.flac -ss 2.5 -t 7.25 -af asetpts=PTS-STARTPTS -c:a flac part.flac"
	if got != want {
		t.Fatalf("unexpected args:\n got %q\nwant %q", got, want)
	}
}

func TestExtractToEndOmitsDuration(t *testing.T) {
	calls := captureArgs(t)
	runner := NewRunner()

	err := runner.Extract(context.Background(), ExtractRange{
		Source: "in.flac",
		Start:  100,
		ToEnd:  true,
		Output: "tail.flac",
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	got := argString((*calls)[0])
	if strings.Contains(got, "-t ") {
		t.Fatalf("to-end extraction must not carry a duration: %q", got)
	}
	if !strings.Contains(got, "-ss 100") {
		t.Fatalf("missing start offset: %q", got)
	}
}

func TestConcatBuildsFilterInInputOrder(t *testing.T) {
	calls := captureArgs(t)
	runner := NewRunner()

	err := runner.Concat(context.Background(), []string{"a.flac", "b.flac", "c.flac"}, "out.flac")
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}

	got := argString((*calls)[0])
	if !strings.Contains(got, "[0:a][1:a][2:a]concat=n=3:v=0:a=1[a]") {
		t.Fatalf("unexpected concat filter: %q", got)
	}
	if idx := strings.Index(got, "a.flac"); idx < 0 || idx > strings.Index(got, "b.flac") {
		t.Fatalf("inputs out of order: %q", got)
	}
}

func TestConcatRejectsEmptyInput(t *testing.T) {
	runner := NewRunner()
	err := runner.Concat(context.Background(), nil, "out.flac")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Class != "concat" {
		t.Fatalf("expected concat CommandError, got %v", err)
	}
}

func TestPrependSilenceAppliesToAllChannels(t *testing.T) {
	calls := captureArgs(t)
	runner := NewRunner()

	if err := runner.PrependSilence(context.Background(), "in.flac", "out.flac", 360); err != nil {
		t.Fatalf("PrependSilence failed: %v", err)
	}
	got := argString((*calls)[0])
	if !strings.Contains(got, "adelay=delays=360:all=1,asetpts=PTS-STARTPTS") {
		t.Fatalf("unexpected delay filter: %q", got)
	}
}

func TestTrimStartConvertsMillisecondsToSeconds(t *testing.T) {
	calls := captureArgs(t)
	runner := NewRunner()

	if err := runner.TrimStart(context.Background(), "in.flac", "out.flac", 250); err != nil {
		t.Fatalf("TrimStart failed: %v", err)
	}
	got := argString((*calls)[0])
	if !strings.Contains(got, "-ss 0.25") {
		t.Fatalf("expected 0.25s trim offset: %q", got)
	}
}

func TestRemuxAttachesOnlyPresentTags(t *testing.T) {
	calls := captureArgs(t)
	runner := NewRunner()

	err := runner.Remux(context.Background(), RemuxRequest{
		Container:    "in.mkv",
		NewAudio:     "new.aac",
		Output:       "out.mkv",
		Maps:         []string{"0:0", "1:0", "0:2"},
		AudioOrdinal: 0,
		Language:     "eng",
	})
	if err != nil {
		t.Fatalf("Remux failed: %v", err)
	}
	got := argString((*calls)[0])
	if !strings.Contains(got, "-map 0:0 -map 1:0 -map 0:2 -c copy") {
		t.Fatalf("unexpected maps: %q", got)
	}
	if !strings.Contains(got, "-metadata:s:a:0 language=eng") {
		t.Fatalf("missing language override: %q", got)
	}
	if strings.Contains(got, "title=") {
		t.Fatalf("empty title must not be fabricated: %q", got)
	}
}

func TestRunWrapsFailuresWithClass(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "false")
	}
	t.Cleanup(func() { commandContext = original })

	runner := NewRunner()
	err := runner.Encode(context.Background(), "in.flac", "aac", "128k", "out.aac")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", err)
	}
	if cmdErr.Class != "encode" {
		t.Fatalf("unexpected class: %q", cmdErr.Class)
	}
}
