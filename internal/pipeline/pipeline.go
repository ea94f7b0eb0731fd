// Package pipeline orchestrates one repair run: probe the container,
// extract the target track, resolve the split plan, and, once the plan is
// confirmed, assemble, fit, and remux the repaired audio back in place.
//
// The run is split at the confirmation boundary. Plan does everything that
// is safe and cheap enough to throw away (probing, extraction, quiet-point
// search); Execute performs the rewrite. Callers own the space between the
// two: showing the plan, prompting, writing the task document.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"glitchcut/internal/assemble"
	"glitchcut/internal/config"
	"glitchcut/internal/ffmpeg"
	"glitchcut/internal/history"
	"glitchcut/internal/lengthfit"
	"glitchcut/internal/logging"
	"glitchcut/internal/probe"
	"glitchcut/internal/remux"
	"glitchcut/internal/splitplan"
	"glitchcut/internal/task"
	"glitchcut/internal/workspace"
)

// Engine is the full set of media operations a run needs. *ffmpeg.Runner
// implements it; tests substitute a fake.
type Engine interface {
	ExtractStream(ctx context.Context, source, streamSpecifier, output string) error
	Extract(ctx context.Context, req ffmpeg.ExtractRange) error
	PrependSilence(ctx context.Context, input, output string, delayMs int) error
	TrimStart(ctx context.Context, input, output string, trimMs int) error
	Concat(ctx context.Context, inputs []string, output string) error
	TrimTo(ctx context.Context, input, output string, target float64) error
	PadWithSilence(ctx context.Context, input, output string, padDur, total float64) error
	Encode(ctx context.Context, input, codec, bitrate, output string) error
	Remux(ctx context.Context, req ffmpeg.RemuxRequest) error
	MeterLoudness(ctx context.Context, path string, start, duration float64) ([]ffmpeg.LoudnessSample, error)
}

// ProbeFunc inspects a media file and returns its stream inventory.
type ProbeFunc func(ctx context.Context, path string) (*probe.Inventory, error)

// Pipeline drives one repair run.
type Pipeline struct {
	cfg    *config.Config
	opts   task.Options
	engine Engine
	probe  ProbeFunc
	store  *history.Store
	logger *slog.Logger
}

// New wires a pipeline. store may be nil to skip the run ledger.
func New(cfg *config.Config, opts task.Options, engine Engine, store *history.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		cfg:    cfg,
		opts:   opts,
		engine: engine,
		store:  store,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
	p.probe = func(ctx context.Context, path string) (*probe.Inventory, error) {
		return probe.Inspect(ctx, cfg.Engine.FFprobeBinary, path)
	}
	return p
}

// Planned is everything prepared ahead of the confirmation boundary.
type Planned struct {
	RunID     string
	Inventory *probe.Inventory
	Target    probe.StreamDescriptor
	Bitrate   string
	Plan      *splitplan.Plan
	// StreamDuration is the target stream's duration, 0 when unknown.
	StreamDuration float64

	workspace *workspace.Workspace
	audioPath string
}

// Plan probes the input, extracts the target track into a fresh workspace,
// and resolves every split point. On error the workspace is already cleaned
// up; otherwise it stays alive until Execute or Abort.
func (p *Pipeline) Plan(ctx context.Context) (*Planned, error) {
	inv, err := p.probe(ctx, p.opts.Input)
	if err != nil {
		return nil, err
	}
	target, err := inv.TargetAudio(p.opts.Stream)
	if err != nil {
		return nil, err
	}
	p.logger.Info("probed target stream",
		"stream", target.ContainerIndex,
		"codec", target.Codec,
		"bitrate", target.Bitrate.String())

	bitrate := p.opts.Bitrate
	if bitrate == "" {
		bitrate, err = inv.BitrateForProcessing(p.opts.Stream)
		if err != nil {
			return nil, err
		}
		p.logger.Info("detected bitrate", "bitrate", bitrate)
	}

	ws, err := workspace.Create(p.cfg.Paths.ScratchDir)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*Planned, error) {
		_ = ws.Remove()
		return nil, err
	}

	audioPath := ws.Path("target_audio.flac")
	p.logger.Info("extracting target track", "path", audioPath)
	spec := fmt.Sprintf("0:%d", target.ContainerIndex)
	if err := p.engine.ExtractStream(ctx, p.opts.Input, spec, audioPath); err != nil {
		return fail(err)
	}

	duration, _ := inv.StreamDuration(target.ContainerIndex)
	finder := splitplan.NewFinder(p.engine, p.logger)
	plan, err := splitplan.Resolve(ctx, finder, splitplan.ResolveRequest{
		AudioPath:            audioPath,
		Explicit:             p.opts.SplitPoints(),
		Ranges:               p.opts.Ranges(),
		InitialDelayMS:       p.opts.InitialDelayMS,
		SilenceThresholdLUFS: p.opts.SilenceThresholdLUFS,
		StreamDuration:       duration,
	})
	if err != nil {
		return fail(err)
	}
	p.logger.Info("split plan resolved", "splits", len(plan.Points))

	return &Planned{
		RunID:          uuid.NewString(),
		Inventory:      inv,
		Target:         target,
		Bitrate:        bitrate,
		Plan:           plan,
		StreamDuration: duration,
		workspace:      ws,
		audioPath:      audioPath,
	}, nil
}

// Abort discards a plan the user declined. The workspace is removed and the
// run recorded as aborted.
func (p *Pipeline) Abort(ctx context.Context, planned *Planned) error {
	if p.store != nil {
		if err := p.store.RecordStart(ctx, planned.RunID, p.opts.Input, p.opts.Output, p.opts.Stream, planned.Plan); err != nil {
			p.logger.Warn("record aborted run", logging.Error(err))
		} else if err := p.store.MarkAborted(ctx, planned.RunID); err != nil {
			p.logger.Warn("mark run aborted", logging.Error(err))
		}
	}
	return planned.workspace.Remove()
}

// Result reports the durations observed during execution. Fitted durations
// are only set when fit-to-length ran.
type Result struct {
	OriginalDuration  float64
	AssembledDuration float64
	FittedDuration    float64
	Fitted            bool
}

// Execute performs the confirmed plan. On success the workspace is removed;
// on failure it is left on disk for inspection and its path is included in
// the log output.
func (p *Pipeline) Execute(ctx context.Context, planned *Planned) (*Result, error) {
	if p.store != nil {
		if err := p.store.RecordStart(ctx, planned.RunID, p.opts.Input, p.opts.Output, p.opts.Stream, planned.Plan); err != nil {
			return nil, err
		}
	}

	result, err := p.execute(ctx, planned)
	if err != nil {
		if p.store != nil {
			if markErr := p.store.MarkFailed(ctx, planned.RunID, err); markErr != nil {
				p.logger.Warn("mark run failed", logging.Error(markErr))
			}
		}
		p.logger.Error("run failed; scratch kept for inspection",
			"scratch", planned.workspace.Root(), logging.Error(err))
		_ = planned.workspace.Release()
		return nil, err
	}

	if p.store != nil {
		if markErr := p.store.MarkCompleted(ctx, planned.RunID); markErr != nil {
			p.logger.Warn("mark run completed", logging.Error(markErr))
		}
	}
	if err := planned.workspace.Remove(); err != nil {
		p.logger.Warn("remove scratch directory", logging.Error(err))
	}
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, planned *Planned) (*Result, error) {
	ws := planned.workspace
	result := &Result{OriginalDuration: planned.StreamDuration}

	assembler := assemble.New(p.engine, ws, p.logger)
	joined := ws.Path("joined.flac")
	if err := assembler.Assemble(ctx, planned.audioPath, planned.Plan.Segments(), joined); err != nil {
		return nil, err
	}

	finalAudio := joined
	if p.opts.FitLength {
		if planned.StreamDuration <= 0 {
			return nil, fmt.Errorf("cannot fit to length: original stream duration is unknown")
		}
		assembledDuration, err := p.measureDuration(ctx, joined)
		if err != nil {
			return nil, fmt.Errorf("measure assembled duration: %w", err)
		}
		result.AssembledDuration = assembledDuration

		fitted := ws.Path("fitted.flac")
		fitter := lengthfit.New(p.engine, p.logger)
		if err := fitter.Fit(ctx, joined, fitted, assembledDuration, planned.StreamDuration); err != nil {
			return nil, err
		}
		fittedDuration, err := p.measureDuration(ctx, fitted)
		if err != nil {
			return nil, fmt.Errorf("measure fitted duration: %w", err)
		}
		result.FittedDuration = fittedDuration
		result.Fitted = true
		finalAudio = fitted
	}

	remuxer := remux.New(p.engine, ws, p.logger)
	err := remuxer.Replace(ctx, remux.Request{
		Container:   p.opts.Input,
		FittedAudio: finalAudio,
		Target:      planned.Target,
		Streams:     planned.Inventory.Streams,
		Bitrate:     planned.Bitrate,
		Output:      p.opts.Output,
	})
	if err != nil {
		return nil, err
	}
	p.logger.Info("run complete", "output", p.opts.Output)
	return result, nil
}

func (p *Pipeline) measureDuration(ctx context.Context, path string) (float64, error) {
	inv, err := p.probe(ctx, path)
	if err != nil {
		return 0, err
	}
	if inv.ContainerDuration <= 0 {
		return 0, fmt.Errorf("no duration reported for %s", path)
	}
	return inv.ContainerDuration, nil
}
