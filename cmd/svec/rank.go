package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var rankCmd = &cobra.Command{
	Use:   "rank <query...>",
	Short: "Rank corpus texts against queries",
	Long: `Rank the texts of a corpus file by cosine similarity to each query.

Examples:
  svec rank --corpus faq.txt "how do I reset my password"
  svec rank --corpus faq.txt --top 5 "refunds" "shipping times"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRank,
}

var (
	rankCorpus string
	rankTop    int
)

func init() {
	rankCmd.Flags().StringVar(&rankCorpus, "corpus", "", "Corpus file, one text per line (- for stdin)")
	rankCmd.Flags().IntVarP(&rankTop, "top", "k", 3, "Results per query")
	rankCmd.MarkFlagRequired("corpus")
}

type rankHit struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

type rankOutput struct {
	Query   string    `json:"query"`
	Results []rankHit `json:"results"`
}

func runRank(cmd *cobra.Command, args []string) error {
	corpus, err := readLines(rankCorpus, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}

	p, logger, err := initPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	rankings, err := p.Rank(cmd.Context(), corpus, args, rankTop)
	if err != nil {
		return fmt.Errorf("failed to rank: %w", err)
	}
	logger.Debug().Int("corpus", len(corpus)).Int("queries", len(args)).Int("top", rankTop).Msg("ranked")

	enc := json.NewEncoder(cmd.OutOrStdout())
	for q, ranking := range rankings {
		out := rankOutput{Query: args[q], Results: make([]rankHit, 0, len(ranking))}
		for _, r := range ranking {
			out.Results = append(out.Results, rankHit{Index: r.Index, Score: r.Score, Text: corpus[r.Index]})
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}
