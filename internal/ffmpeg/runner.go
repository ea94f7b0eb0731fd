package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"glitchcut/internal/logging"
)

var commandContext = exec.CommandContext

// CommandError reports a failed engine invocation. Class names the request
// shape that failed so callers can diagnose without re-running with verbose
// engine logs.
type CommandError struct {
	Class  string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		return fmt.Sprintf("ffmpeg %s: %v", e.Class, e.Err)
	}
	return fmt.Sprintf("ffmpeg %s: %v: %s", e.Class, e.Err, detail)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Option configures the runner.
type Option func(*Runner)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(r *Runner) {
		if binary != "" {
			r.binary = binary
		}
	}
}

// WithDebug mirrors engine output to the process stderr instead of
// discarding it.
func WithDebug(debug bool) Option {
	return func(r *Runner) {
		r.debug = debug
	}
}

// WithLogger routes runner diagnostics to the given logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logging.NewComponentLogger(logger, "engine")
	}
}

// Runner wraps the ffmpeg command-line binary.
type Runner struct {
	binary string
	debug  bool
	logger *slog.Logger
}

// NewRunner constructs a Runner using defaults.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{binary: "ffmpeg", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// stderrTailLimit bounds how much engine output a CommandError carries.
const stderrTailLimit = 4096

// run executes ffmpeg with the given arguments. Engine output is discarded
// unless debug is set; on failure the stderr tail rides along in the error.
func (r *Runner) run(ctx context.Context, class string, args []string) error {
	r.logger.Debug("engine call", "class", class, "args", strings.Join(args, " "))

	cmd := commandContext(ctx, r.binary, args...)
	var stderr bytes.Buffer
	if r.debug {
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		tail := stderr.String()
		if len(tail) > stderrTailLimit {
			tail = tail[len(tail)-stderrTailLimit:]
		}
		return &CommandError{Class: class, Stderr: tail, Err: err}
	}
	return nil
}

// capture executes ffmpeg and returns its stderr, where ffmpeg writes filter
// reports such as ebur128 loudness lines.
func (r *Runner) capture(ctx context.Context, class string, args []string) (string, error) {
	r.logger.Debug("engine call", "class", class, "args", strings.Join(args, " "))

	cmd := commandContext(ctx, r.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		tail := stderr.String()
		if len(tail) > stderrTailLimit {
			tail = tail[len(tail)-stderrTailLimit:]
		}
		return "", &CommandError{Class: class, Stderr: tail, Err: err}
	}
	if r.debug {
		fmt.Fprintln(os.Stderr, stderr.String())
	}
	return stderr.String(), nil
}
