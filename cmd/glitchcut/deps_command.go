package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"glitchcut/internal/deps"
)

func newDepsCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check the media engine installation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			check := deps.CheckEngine(cmd.Context(), cfg.Engine.FFmpegBinary, cfg.Engine.FFprobeBinary)
			out := cmd.OutOrStdout()

			rows := make([][]string, 0, 4)
			for _, status := range []deps.Status{check.FFmpeg, check.FFprobe} {
				state := "missing"
				if status.Available {
					state = "ok"
				}
				detail := status.Detail
				if detail == "" {
					detail = status.Description
				}
				rows = append(rows, []string{status.Name, status.Command, state, detail})
			}

			if check.Version != nil {
				state := "incompatible"
				switch {
				case check.Version.Tested:
					state = "ok"
				case check.Version.Compatible:
					state = "untested"
				}
				rows = append(rows, []string{"FFmpeg version", check.Version.String(), state, "tested with 7.1.x, minimum 4.0"})
			}
			if check.FFmpeg.Available {
				state := "missing"
				if check.HasEBUR128 {
					state = "ok"
				}
				rows = append(rows, []string{"ebur128 filter", "", state, "Momentary loudness metering for quiet-point search"})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Dependency", "Command", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			if !check.FFmpeg.Available || !check.FFprobe.Available {
				return errors.New("required engine binaries are missing")
			}
			if check.Version != nil && !check.Version.Compatible {
				return fmt.Errorf("ffmpeg %s is too old; minimum supported release is 4.0", check.Version)
			}
			return nil
		},
	}
	return cmd
}
