package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seonjhang/gAIm-Systems/internal/collect"
)

func newIndexCommand(cctx *commandContext) *cobra.Command {
	var (
		dataDirFlag string
		player      string
		batch       int
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Record stored speech artifacts into the archive",
		Long: `Index replays the speech artifacts under the data directory into the
Postgres archive, embedding their text when an embeddings provider is
configured. Interviews the archive already holds keep the metadata their
collection run recorded; only new speech rows are added.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Archive.PostgresDSN == "" {
				return errors.New("archive.postgres_dsn must be configured for index")
			}
			dataDir, err := cctx.dataDir(dataDirFlag)
			if err != nil {
				return err
			}

			embedder, err := cctx.embeddingsProvider()
			if err != nil {
				return err
			}
			if err := checkEmbeddingDimensions(cfg, embedder); err != nil {
				return err
			}

			store, err := cctx.openArchive(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			b, err := collect.NewBackfiller(collect.BackfillConfig{
				DataDir:    dataDir,
				Recorder:   store,
				Embedder:   embedder,
				EmbedBatch: batch,
			})
			if err != nil {
				return err
			}
			res, err := b.Backfill(ctx, player)
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "No speech artifacts to index")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d speech artifacts for %d players (%d embedded)\n",
				res.Indexed, res.Players, res.Embedded)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDirFlag, "data-dir", "", "Artifact directory (default: collect.data_dir)")
	cmd.Flags().StringVar(&player, "player", "", "Restrict indexing to one player")
	cmd.Flags().IntVar(&batch, "batch", collect.DefaultEmbedBatch, "Texts per embedding request")

	return cmd
}
