package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/seonjhang/gAIm-Systems/pkg/source/jsonfile"
)

func newAttributeCommand(cctx *commandContext) *cobra.Command {
	var (
		player      string
		outDir      string
		dataDirFlag string
	)

	cmd := &cobra.Command{
		Use:   "attribute <transcript.json>",
		Short: "Extract one player's speech from a saved transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := jsonfile.Load(args[0])
			if err != nil {
				return err
			}
			extractor, err := cctx.newExtractor()
			if err != nil {
				return err
			}
			speech, err := extractor.Extract(cmd.Context(), *doc, player)
			if err != nil {
				return err
			}

			dir := outDir
			if dir == "" {
				dataDir, err := cctx.dataDir(dataDirFlag)
				if err != nil {
					return err
				}
				dir = filepath.Join(dataDir, "raw", "player_speech")
			}
			path, err := jsonfile.NewSpeechStore(dir).Save(speech)
			if err != nil {
				return err
			}

			rescued := 0
			for _, seg := range speech.Segments {
				if seg.Rescued {
					rescued++
				}
			}
			var reduction float64
			if speech.OriginalWordCount > 0 {
				reduction = 100 * (1 - float64(speech.WordCount)/float64(speech.OriginalWordCount))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Attributed %d segments (%d rescued) to %s\n", len(speech.Segments), rescued, speech.PlayerName)
			fmt.Fprintf(out, "Words: %d of %d (%.1f%% removed)\n", speech.WordCount, speech.OriginalWordCount, reduction)
			if speech.Model != "" {
				fmt.Fprintf(out, "Model: %s\n", speech.Model)
			} else {
				fmt.Fprintln(out, "Model: heuristics only")
			}
			fmt.Fprintf(out, "Speech written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&player, "player", "", "Target player name (required)")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory for the speech artifact (default: <data-dir>/raw/player_speech)")
	cmd.Flags().StringVar(&dataDirFlag, "data-dir", "", "Artifact directory (default: collect.data_dir)")
	_ = cmd.MarkFlagRequired("player")

	return cmd
}
