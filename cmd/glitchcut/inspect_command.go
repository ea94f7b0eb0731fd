package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glitchcut/internal/language"
	"glitchcut/internal/probe"
)

func newInspectCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "List the audio streams of a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			inv, err := probe.Inspect(cmd.Context(), cfg.Engine.FFprobeBinary, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			audio := inv.Audio()
			if len(audio) == 0 {
				fmt.Fprintln(out, "No audio streams found in the input file.")
				return nil
			}

			rows := make([][]string, 0, len(audio))
			for _, stream := range audio {
				rows = append(rows, []string{
					fmt.Sprintf("%d", stream.ContainerIndex),
					stream.Codec,
					fmt.Sprintf("%d", stream.Channels),
					stream.SampleRate,
					stream.Bitrate.String(),
					language.DisplayName(stream.Language),
					stream.Title,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Index", "Codec", "Channels", "Sample Rate", "Bitrate", "Language", "Title"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintln(out, "Use the Index value with --stream to select an audio stream for processing.")
			return nil
		},
	}
	return cmd
}
