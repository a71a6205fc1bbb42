package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meshport/meshport/internal/anim"
	"github.com/meshport/meshport/internal/export"
	"github.com/meshport/meshport/internal/replay"
	"github.com/meshport/meshport/pkg/recording"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var (
		output       string
		recordingFPS float64
		targetFPS    float64
		startFrame   int
		clear        bool
		flat         bool
	)

	cmd := &cobra.Command{
		Use:   "import <recording>",
		Short: "Replay a recording and write a host scene document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imp := ctx.cfg.Import
			if cmd.Flags().Changed("recording-fps") {
				imp.RecordingFPS = recordingFPS
			}
			if cmd.Flags().Changed("fps") {
				imp.TargetFPS = targetFPS
			}
			if cmd.Flags().Changed("start-frame") {
				imp.StartFrame = startFrame
			}
			if clear {
				imp.ClearExisting = true
			}
			if flat {
				imp.Grouping = false
			}

			cmds, err := recording.DecodeFile(args[0])
			if err != nil {
				return err
			}
			ctx.log.Info("decoded recording",
				zap.String("file", args[0]),
				zap.Int("commands", len(cmds)))

			res := replay.Run(cmds, ctx.log)

			sampled, err := anim.Resample(res.Tracks, anim.Options{
				RecordingFPS: imp.RecordingFPS,
				TargetFPS:    imp.TargetFPS,
				StartFrame:   imp.StartFrame,
			}, ctx.log)
			if err != nil {
				return err
			}

			host := export.NewJSONHost()
			summary, err := export.Build(host, res, sampled, export.Options{
				ClearExisting: imp.ClearExisting,
				Grouping:      imp.Grouping,
			}, ctx.log)
			if err != nil {
				return err
			}

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output: %w", err)
				}
				defer f.Close()
				out = f
			}
			if err := host.WriteTo(out); err != nil {
				return fmt.Errorf("writing scene: %w", err)
			}

			fmt.Fprintf(os.Stderr, "%d objects, %d groups, %d keyframes, frames %d-%d, %d commands skipped\n",
				summary.Objects, summary.Groups, summary.Keyframes,
				summary.StartFrame, summary.EndFrame, len(res.Diagnostics))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().Float64Var(&recordingFPS, "recording-fps", 0, "Recording frame rate (0 = auto-detect)")
	cmd.Flags().Float64Var(&targetFPS, "fps", 30, "Target frame rate")
	cmd.Flags().IntVar(&startFrame, "start-frame", 0, "Output start frame")
	cmd.Flags().BoolVar(&clear, "clear", false, "Clear pre-existing host content")
	cmd.Flags().BoolVar(&flat, "flat", false, "Skip hierarchical grouping")

	return cmd
}
