package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meshport/meshport/internal/source"
	"github.com/meshport/meshport/pkg/recording"
)

func newListenCommand(ctx *commandContext) *cobra.Command {
	var (
		addr   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Record a live command stream and save it as a container",
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := source.NewRecorder(ctx.log)

			runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := rec.Listen(runCtx, addr); err != nil {
				return err
			}

			payload, err := rec.Payload()
			if err != nil {
				return fmt.Errorf("encoding recording: %w", err)
			}
			html := recording.WrapHTML(recording.EncodeBlob(payload, true))

			if err := os.WriteFile(output, html, 0o644); err != nil {
				return fmt.Errorf("writing recording: %w", err)
			}

			ctx.log.Info("recording saved",
				zap.String("file", output),
				zap.Int("commands", rec.Len()))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7010", "Listen address")
	cmd.Flags().StringVarP(&output, "output", "o", "recording.html", "Output container file")

	return cmd
}
