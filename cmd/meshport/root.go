package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meshport/meshport/internal/config"
	"github.com/meshport/meshport/internal/logger"
)

// commandContext carries config and logging shared by all subcommands.
type commandContext struct {
	configFlag string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func (c *commandContext) setup() error {
	cfg, err := config.Load(c.configFlag)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := cfg.Logging.Level
	if c.logLevel != "" {
		level = c.logLevel
	}
	c.log = logger.New(level, cfg.Logging.LogFile)
	return nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "meshport",
		Short:         "Import recorded meshcat sessions into a host scene",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newInfoCommand(ctx))
	rootCmd.AddCommand(newListenCommand(ctx))

	return rootCmd
}
