package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccharon/autorec/internal/app"
	"github.com/ccharon/autorec/internal/output"
)

func NewProcessCmd(deps *Dependencies) *cobra.Command {
	var skipNormalize bool

	cmd := &cobra.Command{
		Use:   "process FILE.wav",
		Short: "Normalize and encode an existing recording",
		Long:  "Runs the post-processing that normally follows a recording: two-pass loudness normalization, then MP3 encoding. The WAV file is left in place.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			if skipNormalize {
				deps.Config.Normalize = false
			}

			application, err := app.New(deps.Config, deps.Log)
			if err != nil {
				return err
			}

			res, err := application.PostProcess.Process(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("processing %s: %w", args[0], err)
			}

			if r := res.Report; r != nil {
				s := r.Stats
				formatter.Loudness(r.Assessment.Grade.String(), r.Assessment.Note, s.InputI, s.InputTP, s.OutputI, s.OutputTP)
			} else if deps.Config.Normalize {
				formatter.Warning("normalization skipped, encoded the original recording")
			}
			formatter.Processed(args[0], res.Encoded)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipNormalize, "no-normalize", false, "Encode without loudness normalization")

	return cmd
}
