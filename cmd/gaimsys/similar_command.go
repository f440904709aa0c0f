package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newSimilarCommand(cctx *commandContext) *cobra.Command {
	var (
		topK   int
		player string
	)

	cmd := &cobra.Command{
		Use:   "similar <query text>",
		Short: "Find archived answers similar to a query",
		Long: `Similar embeds the query text and runs a cosine search over the archive's
speech embeddings, listing the closest recorded answers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			ctx := cmd.Context()

			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			embedder, err := cctx.embeddingsProvider()
			if err != nil {
				return err
			}
			if embedder == nil {
				return errors.New("providers.embeddings must be configured for similar")
			}
			if err := checkEmbeddingDimensions(cfg, embedder); err != nil {
				return err
			}

			store, err := cctx.openArchive(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			vec, err := embedder.Embed(ctx, query)
			if err != nil {
				return fmt.Errorf("embed query: %w", err)
			}

			matches, err := store.SimilarSpeech(ctx, vec, topK, player)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No archived speech matches the query")
				return nil
			}

			rows := make([][]string, 0, len(matches))
			for i, m := range matches {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					m.PlayerName,
					truncate(m.VideoTitle, 32),
					strconv.Itoa(m.WordCount),
					strconv.FormatFloat(m.Distance, 'f', 4, 64),
					truncate(m.Text, 48),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Player", "Video", "Words", "Distance", "Speech"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&topK, "top", 5, "How many matches to list")
	cmd.Flags().StringVar(&player, "player", "", "Restrict matches to one player")

	return cmd
}
