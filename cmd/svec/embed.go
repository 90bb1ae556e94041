package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var embedCmd = &cobra.Command{
	Use:   "embed [text...]",
	Short: "Embed texts",
	Long: `Embed texts and print one JSON object per text.

Examples:
  svec embed "The cat sits outside"
  svec embed --file sentences.txt
  cat sentences.txt | svec embed --file -`,
	RunE: runEmbed,
}

var (
	embedFile string
	embedRaw  bool
)

func init() {
	embedCmd.Flags().StringVarP(&embedFile, "file", "f", "", "Read texts from file, one per line (- for stdin)")
	embedCmd.Flags().BoolVar(&embedRaw, "raw", false, "Print pooled vectors without truncation or normalization")
}

type embedOutput struct {
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

func runEmbed(cmd *cobra.Command, args []string) error {
	texts, err := collectTexts(args, embedFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(texts) == 0 {
		return fmt.Errorf("no input texts (pass arguments or --file)")
	}

	p, logger, err := initPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := cmd.Context()
	var rows [][]float32
	if embedRaw {
		raw, err := p.EmbedRaw(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed: %w", err)
		}
		rows = raw.Rows()
	} else if rows, err = p.Embed(ctx, texts); err != nil {
		return fmt.Errorf("failed to embed: %w", err)
	}
	logger.Debug().Int("texts", len(texts)).Int("dims", p.Dimensions()).Msg("embedded")

	enc := json.NewEncoder(cmd.OutOrStdout())
	for i, row := range rows {
		if err := enc.Encode(embedOutput{Index: i, Text: texts[i], Embedding: row}); err != nil {
			return err
		}
	}
	return nil
}
