package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seonjhang/gAIm-Systems/internal/labeled"
	"github.com/seonjhang/gAIm-Systems/internal/lexicon"
	"github.com/seonjhang/gAIm-Systems/pkg/source/jsonfile"
)

func newAnalyzeCommand(cctx *commandContext) *cobra.Command {
	var dataDirFlag string

	cmd := &cobra.Command{
		Use:   "analyze [player]",
		Short: "Score collected speech against the word-category lexicon",
		Long: `Analyze aggregates the collected speech artifacts per player and scores
them against the configured word categories, reporting each category as a
percentage of the player's words.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			dataDir, err := cctx.dataDir(dataDirFlag)
			if err != nil {
				return err
			}

			speechDir := filepath.Join(dataDir, "raw", "player_speech")
			docs, err := jsonfile.NewSpeechStore(speechDir).Documents(cmd.Context())
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			var filter string
			if len(args) == 1 {
				filter = labeled.NormalizeName(args[0])
			}

			type playerSpeech struct {
				name       string
				interviews int
				texts      []string
			}
			byPlayer := make(map[string]*playerSpeech)
			for _, doc := range docs {
				key := labeled.NormalizeName(doc.PlayerName)
				if filter != "" && key != filter {
					continue
				}
				ps := byPlayer[key]
				if ps == nil {
					ps = &playerSpeech{name: doc.PlayerName}
					byPlayer[key] = ps
				}
				ps.interviews++
				if doc.Text != "" {
					ps.texts = append(ps.texts, doc.Text)
				}
			}
			if len(byPlayer) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No speech artifacts found under %s\n", speechDir)
				return nil
			}

			keys := make([]string, 0, len(byPlayer))
			for k := range byPlayer {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			analyzer := lexicon.New(cfg.Lexicon.Categories)
			out := cmd.OutOrStdout()
			for _, k := range keys {
				ps := byPlayer[k]
				analysis := analyzer.Analyze(strings.Join(ps.texts, " "))

				names := make([]string, 0, len(analysis.Scores))
				for name := range analysis.Scores {
					names = append(names, name)
				}
				sort.Slice(names, func(i, j int) bool {
					if analysis.Scores[names[i]] != analysis.Scores[names[j]] {
						return analysis.Scores[names[i]] > analysis.Scores[names[j]]
					}
					return names[i] < names[j]
				})
				rows := make([][]string, 0, len(names))
				for _, name := range names {
					rows = append(rows, []string{
						name,
						strconv.FormatFloat(analysis.Scores[name], 'f', 2, 64),
					})
				}

				fmt.Fprintf(out, "%s: %d interviews, %d words, %.1f words/sentence\n",
					ps.name, ps.interviews, analysis.WordCount, analysis.AvgSentenceLength)
				fmt.Fprintln(out, renderTable(
					[]string{"Category", "%"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDirFlag, "data-dir", "", "Artifact directory (default: collect.data_dir)")

	return cmd
}
