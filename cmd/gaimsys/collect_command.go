package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/seonjhang/gAIm-Systems/internal/collect"
	"github.com/seonjhang/gAIm-Systems/internal/discovery"
	"github.com/seonjhang/gAIm-Systems/internal/health"
	"github.com/seonjhang/gAIm-Systems/internal/observe"
	"github.com/seonjhang/gAIm-Systems/pkg/source/jsonfile"
)

func newCollectCommand(cctx *commandContext) *cobra.Command {
	var (
		dataDirFlag string
		topFlag     int
		draftYear   int
		draftRound  int
		strict      bool
		record      bool
	)

	cmd := &cobra.Command{
		Use:   "collect <player>",
		Short: "Discover a player's interviews and extract their speech",
		Long: `Collect discovers the top-ranked interviews for one player, reads their
saved transcripts from the data directory, attributes the player's speech,
and writes one speech artifact per interview plus a collection summary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerName := args[0]

			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			dataDir, err := cctx.dataDir(dataDirFlag)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}

			ctx := cmd.Context()

			otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{})
			if err != nil {
				return fmt.Errorf("init telemetry: %w", err)
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := otelShutdown(sctx); err != nil {
					slog.Warn("telemetry shutdown", "err", err)
				}
			}()
			metrics := observe.DefaultMetrics()

			if cfg.Discovery.APIKey == "" {
				return errors.New("discovery.api_key is required for collect")
			}
			var dopts []discovery.Option
			if cfg.Discovery.BaseURL != "" {
				dopts = append(dopts, discovery.WithBaseURL(cfg.Discovery.BaseURL))
			}
			if len(cfg.Discovery.QueryTemplates) > 0 {
				dopts = append(dopts, discovery.WithQueryTemplates(cfg.Discovery.QueryTemplates))
			}
			if cfg.Discovery.MaxPerQuery > 0 {
				dopts = append(dopts, discovery.WithMaxPerQuery(cfg.Discovery.MaxPerQuery))
			}
			finder, err := discovery.New(cfg.Discovery.APIKey, dopts...)
			if err != nil {
				return err
			}

			extractor, err := cctx.newExtractor()
			if err != nil {
				return err
			}

			collectCfg := collect.Config{
				Finder:    finder,
				Source:    jsonfile.New(filepath.Join(dataDir, "raw", "transcript")),
				Extractor: extractor,
				DataDir:   dataDir,
				Ranking: discovery.RankOptions{
					Strict:    strict,
					DraftYear: draftYear,
				},
			}
			if topFlag > 0 {
				collectCfg.TopInterviews = topFlag
			} else {
				collectCfg.TopInterviews = cfg.Collect.TopInterviews
			}
			collectCfg.WorkerLimit = cfg.Collect.WorkerLimit
			if draftYear > 0 && draftRound > 0 {
				collectCfg.Ranking.DraftCutoff = discovery.DraftCutoff(draftYear, draftRound)
			}

			checkers := []health.Checker{health.Directory("data_dir", dataDir)}

			if record || cfg.Collect.RecordToArchive {
				if cfg.Archive.PostgresDSN == "" {
					slog.Warn("archive recording requested but archive.postgres_dsn is not configured, skipping")
				} else {
					store, err := cctx.openArchive(ctx)
					if err != nil {
						return err
					}
					defer store.Close()
					collectCfg.Recorder = store
					checkers = append(checkers, health.Postgres(store))

					embedder, err := cctx.embeddingsProvider()
					if err != nil {
						return err
					}
					if err := checkEmbeddingDimensions(cfg, embedder); err != nil {
						return err
					}
					collectCfg.Embedder = embedder
				}
			}

			if cfg.Server.MetricsAddr != "" {
				ops := health.NewServer(cfg.Server.MetricsAddr,
					health.Mux(health.New(checkers...), observe.Middleware(metrics)))
				go func() {
					if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						slog.Error("metrics endpoint error", "addr", cfg.Server.MetricsAddr, "err", err)
					}
				}()
				defer func() {
					sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = ops.Shutdown(sctx)
				}()
				slog.Info("metrics endpoint listening", "addr", cfg.Server.MetricsAddr)
			}

			collector, err := collect.New(collectCfg)
			if err != nil {
				return err
			}

			res, err := collector.CollectPlayer(ctx, playerName)
			if err != nil {
				return err
			}
			resultPath, err := collector.SaveResult(res)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(res.Interviews))
			collected := 0
			for i, iv := range res.Interviews {
				note := "ok"
				if iv.Error != "" {
					note = iv.Error
				} else {
					collected++
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					iv.VideoID,
					truncate(iv.Title, 40),
					strconv.Itoa(iv.Score),
					strconv.Itoa(iv.WordCount),
					strconv.Itoa(iv.SpeechWordCount),
					truncate(note, 40),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Video", "Title", "Score", "Words", "Speech", "Note"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "Collected %d/%d interviews for %s\n", collected, len(res.Interviews), res.PlayerName)
			fmt.Fprintf(out, "Summary written to %s\n", resultPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDirFlag, "data-dir", "", "Artifact directory (default: collect.data_dir)")
	cmd.Flags().IntVar(&topFlag, "top", 0, "How many ranked interviews to collect (default: collect.top_interviews)")
	cmd.Flags().IntVar(&draftYear, "draft-year", 0, "Drop interviews published after this draft year")
	cmd.Flags().IntVar(&draftRound, "draft-round", 0, "With --draft-year, cut off at the draft day itself")
	cmd.Flags().BoolVar(&strict, "strict", false, "Require the player's full name in video titles")
	cmd.Flags().BoolVar(&record, "record", false, "Record collected speech to the archive")

	return cmd
}
