package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	cctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "gaimsys",
		Short:         "Collect hockey interviews and extract attributed player speech",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			slog.SetDefault(newLogger(cfg.Server.LogLevel))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to the YAML configuration file")

	rootCmd.AddCommand(newCollectCommand(cctx))
	rootCmd.AddCommand(newAttributeCommand(cctx))
	rootCmd.AddCommand(newParseCommand(cctx))
	rootCmd.AddCommand(newExportCommand(cctx))
	rootCmd.AddCommand(newAnalyzeCommand(cctx))
	rootCmd.AddCommand(newIndexCommand(cctx))
	rootCmd.AddCommand(newSimilarCommand(cctx))

	return rootCmd
}
