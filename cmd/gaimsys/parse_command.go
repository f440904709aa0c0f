package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/seonjhang/gAIm-Systems/pkg/types"
)

func newParseCommand(cctx *commandContext) *cobra.Command {
	var (
		speaker string
		outPath string
		turns   bool
	)

	cmd := &cobra.Command{
		Use:   "parse <transcript.txt>",
		Short: "Extract speech from a labeled transcript",
		Long: `Parse reads a speaker-labeled transcript (e.g. an ASAP Sports scrum
transcript), strips event boilerplate and interviewer questions, and prints
the remaining statements. With --speaker only that person's lines are kept;
without it every speaker is kept, lines prefixed with their label.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			parser, err := cctx.newParser()
			if err != nil {
				return err
			}

			if turns {
				rows := make([][]string, 0, 16)
				for _, turn := range parser.Turns(string(raw), speaker) {
					rows = append(rows, []string{
						turn.Speaker,
						strconv.Itoa(types.WordCount(turn.Text)),
						truncate(turn.Text, 60),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Speaker", "Words", "Text"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				return nil
			}

			text := parser.Parse(string(raw), speaker)
			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(text+"\n"), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Parsed speech written to %s (%d words)\n", outPath, types.WordCount(text))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVar(&speaker, "speaker", "", "Keep only this speaker's statements")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the parsed speech to a file instead of stdout")
	cmd.Flags().BoolVar(&turns, "turns", false, "Show per-turn speakers and word counts instead of the text")

	return cmd
}
