// svec turns text into sentence embeddings and ranks texts by semantic
// similarity using a local transformer encoder.
package main

import (
	"fmt"
	"os"

	internal "github.com/ZanzyTHEbar/sentence-vectors/svec"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/config"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/embedding"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	configPath string
	verbose    bool
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   internal.DefaultAppCMDShortCut,
	Short: "Sentence embeddings and semantic ranking",
	Long: `svec encodes text with a BERT-style sentence encoder, pools the token
states into one vector per text and ranks texts by cosine similarity.

Examples:
  # Embed two sentences
  svec embed "That is a happy person" "That is a very happy person"

  # Rank a corpus against a query
  svec rank --corpus corpus.txt --top 3 "how do I reset my password"

  # Serve the HTTP API
  svec serve --port 8080

  # Write a default config file
  svec init ~/.config/svec/config.yaml`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./config.yaml or ~/.config/svec/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	level := cfg.Log.Level
	if verbose {
		level = zerolog.DebugLevel.String()
	}
	return cfg, internal.GetLoggerWithLevel(level), nil
}

func initPipeline() (*embedding.Pipeline, zerolog.Logger, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, logger, err
	}
	p, err := embedding.NewPipelineFromConfig(cfg, logger)
	if err != nil {
		return nil, logger, fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	return p, logger, nil
}
