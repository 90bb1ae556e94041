package main

import (
	"fmt"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/embedding"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the resolved configuration",
	RunE:  runInfo,
}

var infoYAML bool

func init() {
	infoCmd.Flags().BoolVar(&infoYAML, "yaml", false, "Print the full configuration as YAML")
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if infoYAML {
		return yaml.NewEncoder(w).Encode(cfg)
	}

	fmt.Fprintln(w, "svec configuration")
	fmt.Fprintln(w, "──────────────────")
	fmt.Fprintf(w, "Model:            %s\n", cfg.Model.Path)
	fmt.Fprintf(w, "Vocabulary:       %s\n", cfg.Model.VocabPath)
	fmt.Fprintf(w, "Inference:        %s (onnx support: %t)\n", cfg.Model.Inference, embedding.ONNXAvailable())
	fmt.Fprintf(w, "Tokenizer:        %s\n", cfg.Model.Tokenizer)
	fmt.Fprintf(w, "Sequence length:  %d\n", cfg.Model.MaxSequenceLength)
	fmt.Fprintf(w, "Hidden size:      %d\n", cfg.Model.HiddenSize)
	fmt.Fprintf(w, "Batch size:       %d\n", cfg.Model.BatchSize)
	fmt.Fprintf(w, "Padding:          %s\n", cfg.Model.Padding)
	fmt.Fprintf(w, "Pooling:          %s\n", cfg.Model.Pooling)
	if cfg.Model.Dimensions > 0 {
		fmt.Fprintf(w, "Dimensions:       %d\n", cfg.Model.Dimensions)
	}
	fmt.Fprintf(w, "Execution:        %s\n", cfg.ONNX.ExecutionProvider)
	if cfg.Cache.Path != "" {
		fmt.Fprintf(w, "Cache:            %s\n", cfg.Cache.Path)
	}
	return nil
}
