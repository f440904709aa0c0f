package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/seonjhang/gAIm-Systems/internal/export"
)

func newExportCommand(cctx *commandContext) *cobra.Command {
	var (
		sourceFlag  string
		outPath     string
		dataDirFlag string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Build a TSV dataset from collected artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := export.DataSource(sourceFlag)
			if src != export.SpeechSource && src != export.TranscriptSource {
				return fmt.Errorf("unknown source %q; valid values: speech, transcript", sourceFlag)
			}
			dataDir, err := cctx.dataDir(dataDirFlag)
			if err != nil {
				return err
			}

			path := outPath
			if path == "" {
				name := "dataset_" + time.Now().Format("20060102_150405") + ".tsv"
				path = filepath.Join(dataDir, "processed", name)
			}

			rows, err := export.New(dataDir).ExportFile(cmd.Context(), path, src)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", rows, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", string(export.SpeechSource), "Dataset source: speech or transcript")
	cmd.Flags().StringVar(&outPath, "out", "", "Output TSV path (default: <data-dir>/processed/dataset_<timestamp>.tsv)")
	cmd.Flags().StringVar(&dataDirFlag, "data-dir", "", "Artifact directory (default: collect.data_dir)")

	return cmd
}
