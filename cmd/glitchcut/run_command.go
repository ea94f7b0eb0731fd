package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"glitchcut/internal/deps"
	"glitchcut/internal/ffmpeg"
	"glitchcut/internal/history"
	"glitchcut/internal/language"
	"glitchcut/internal/pipeline"
	"glitchcut/internal/probe"
	"glitchcut/internal/splitplan"
	"glitchcut/internal/task"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		inputFlag            string
		outputFlag           string
		streamFlag           int
		initialDelayFlag     int
		splitFlags           []string
		splitRangeFlags      []string
		bitrateFlag          string
		silenceThresholdFlag float64
		fitLengthFlag        bool
		taskFlag             string
		writeTaskFlag        string
		yesFlag              bool
		debugFlag            bool
		ignoreVersionFlag    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Repair one audio stream and remux it back into the container",
		Long: `Repair one audio stream by cutting it at the given split points,
shifting each following segment by its delay, and remuxing the repaired
track back into the container in place of the original.

Split points are given either explicitly as <time>:<delay_ms>, or as a
search range <start>:<end>:<delay_ms> whose exact cut position is resolved
to the quietest audible moment inside the range.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.newLogger(debugFlag)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			ov, err := buildOverrides(cmd, overrideFlags{
				input:            inputFlag,
				output:           outputFlag,
				stream:           streamFlag,
				initialDelay:     initialDelayFlag,
				splits:           splitFlags,
				splitRanges:      splitRangeFlags,
				bitrate:          bitrateFlag,
				silenceThreshold: silenceThresholdFlag,
				fitLength:        fitLengthFlag,
			})
			if err != nil {
				return err
			}

			var doc *task.Document
			if taskFlag != "" {
				doc, err = task.Load(taskFlag)
				if err != nil {
					return err
				}
			}
			opts, err := task.Resolve(doc, ov, task.Defaults{
				SilenceThresholdLUFS: cfg.Defaults.SilenceThresholdLUFS,
				FitLength:            cfg.Defaults.FitLength,
			})
			if err != nil {
				return err
			}

			ignore := ignoreVersionFlag || cfg.Engine.IgnoreVersionCheck
			if err := deps.VerifyFFmpegVersion(ctx, cfg.Engine.FFmpegBinary, ignore); err != nil {
				return err
			}

			runner := ffmpeg.NewRunner(
				ffmpeg.WithBinary(cfg.Engine.FFmpegBinary),
				ffmpeg.WithDebug(debugFlag),
				ffmpeg.WithLogger(logger),
			)

			store, err := history.Open(cfg.Paths.HistoryDir)
			if err != nil {
				logger.Warn("run history unavailable", "error", err)
				store = nil
			} else {
				defer store.Close()
			}

			p := pipeline.New(cfg, opts, runner, store, logger)
			planned, err := p.Plan(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printPlan(out, opts, planned)

			if !yesFlag {
				proceed, err := confirm(out, cmd.InOrStdin(), "Proceed with this plan?")
				if err != nil {
					return err
				}
				if !proceed {
					fmt.Fprintln(out, "Aborting operation.")
					return p.Abort(ctx, planned)
				}
			}

			if cmd.Flags().Changed("write-task") {
				path := strings.TrimSpace(writeTaskFlag)
				if path == "" {
					path = task.DefaultPath(opts.Input)
				}
				resolved := opts
				resolved.Bitrate = planned.Bitrate
				if err := resolved.Document().Save(path); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote task to %s\n", path)
			}

			result, err := p.Execute(ctx, planned)
			if err != nil {
				return err
			}
			if result.Fitted {
				printDurations(out, result)
			}
			fmt.Fprintf(out, "Processing complete. Output: %s\n", opts.Output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&inputFlag, "input", "i", "", "Input media file")
	flags.StringVarP(&outputFlag, "output", "o", "", "Output media file")
	flags.IntVarP(&streamFlag, "stream", "s", -1, "Container index of the audio stream to repair")
	flags.IntVar(&initialDelayFlag, "initial-delay", 0, "Delay in ms applied before the first split")
	flags.StringArrayVarP(&splitFlags, "split", "p", nil, "Split point as <time>:<delay_ms>; repeatable")
	flags.StringArrayVar(&splitRangeFlags, "split-range", nil, "Search range as <start>:<end>:<delay_ms>; repeatable")
	flags.StringVarP(&bitrateFlag, "bitrate", "b", "", "Output bitrate (e.g. 640k); detected automatically when omitted")
	flags.Float64Var(&silenceThresholdFlag, "silence-threshold", 0, "Loudness threshold in LUFS separating silence from audible content")
	flags.BoolVar(&fitLengthFlag, "fit-length", false, "Trim or pad the repaired track to the original stream duration")
	flags.StringVar(&taskFlag, "task", "", "Task file supplying run parameters; explicit flags override it")
	flags.StringVar(&writeTaskFlag, "write-task", "", "Write the confirmed parameters to a task file (defaults to <input>.json)")
	flags.Lookup("write-task").NoOptDefVal = " "
	flags.BoolVarP(&yesFlag, "yes", "y", false, "Skip the confirmation prompt")
	flags.BoolVar(&debugFlag, "debug", false, "Show engine output and debug logs")
	flags.BoolVar(&ignoreVersionFlag, "ignore-ffmpeg-version", false, "Skip the ffmpeg version check")

	return cmd
}

type overrideFlags struct {
	input            string
	output           string
	stream           int
	initialDelay     int
	splits           []string
	splitRanges      []string
	bitrate          string
	silenceThreshold float64
	fitLength        bool
}

// buildOverrides turns changed flags into task overrides, so unset flags let
// the task file's values through.
func buildOverrides(cmd *cobra.Command, f overrideFlags) (task.Overrides, error) {
	var ov task.Overrides
	changed := cmd.Flags().Changed

	if changed("input") {
		ov.Input = &f.input
	}
	if changed("output") {
		ov.Output = &f.output
	}
	if changed("stream") {
		ov.Stream = &f.stream
	}
	if changed("initial-delay") {
		ov.InitialDelayMS = &f.initialDelay
	}
	if changed("bitrate") {
		ov.Bitrate = &f.bitrate
	}
	if changed("silence-threshold") {
		ov.SilenceThreshold = &f.silenceThreshold
	}
	if changed("fit-length") {
		ov.FitLength = &f.fitLength
	}

	for _, raw := range f.splits {
		point, err := splitplan.ParsePoint(raw)
		if err != nil {
			return task.Overrides{}, err
		}
		ov.Splits = append(ov.Splits, task.Split{Time: point.Time, DelayMS: point.DelayMS})
	}
	for _, raw := range f.splitRanges {
		r, err := splitplan.ParseRange(raw)
		if err != nil {
			return task.Overrides{}, err
		}
		ov.SplitRanges = append(ov.SplitRanges, task.Range{Start: r.Start, End: r.End, DelayMS: r.DelayMS})
	}
	return ov, nil
}

func printPlan(out io.Writer, opts task.Options, planned *pipeline.Planned) {
	if len(planned.Plan.Points) > 0 {
		rows := make([][]string, 0, len(planned.Plan.Points))
		for _, point := range planned.Plan.Points {
			rows = append(rows, []string{
				point.Source,
				fmt.Sprintf("%.3f", point.Time),
				fmt.Sprintf("%d", point.DelayMS),
			})
		}
		fmt.Fprintln(out, "Proposed splitting plan:")
		fmt.Fprintln(out, renderTable(
			[]string{"Source", "Resolved Split (s)", "Delay (ms)"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight},
		))
	}

	duration := "unknown"
	if planned.StreamDuration > 0 {
		duration = fmt.Sprintf("%.3f s", planned.StreamDuration)
	}
	rows := [][]string{
		{"Input File", opts.Input},
		{"Output File", opts.Output},
		{"Audio Duration", duration},
		{"Initial Delay", fmt.Sprintf("%d ms", opts.InitialDelayMS)},
		{"Stream ID", fmt.Sprintf("#%d", planned.Target.ContainerIndex)},
		{"Stream Name", streamName(planned.Target)},
		{"Codec", planned.Target.Codec},
		{"Bitrate", planned.Bitrate},
		{"Silence Threshold", fmt.Sprintf("%.1f LUFS", opts.SilenceThresholdLUFS)},
		{"Fit To Length", yesNo(opts.FitLength)},
	}
	fmt.Fprintln(out, "Job details:")
	fmt.Fprintln(out, renderTable(
		[]string{"Parameter", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignLeft},
	))
}

func streamName(target probe.StreamDescriptor) string {
	if target.Title != "" {
		return target.Title
	}
	if target.Language != "" {
		return language.DisplayName(target.Language)
	}
	return "Untitled"
}

func printDurations(out io.Writer, result *pipeline.Result) {
	rows := [][]string{
		{"Original", fmt.Sprintf("%.3f", result.OriginalDuration)},
		{"New (pre-adjustment)", fmt.Sprintf("%.3f", result.AssembledDuration)},
		{"Adjusted (post-fit)", fmt.Sprintf("%.3f", result.FittedDuration)},
	}
	fmt.Fprintln(out, "Durations:")
	fmt.Fprintln(out, renderTable(
		[]string{"Type", "Duration (s)"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
}
