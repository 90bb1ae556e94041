package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/embedding"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the embedding HTTP API",
	Long: `Start an HTTP server exposing the pipeline.

Endpoints:
  POST /api/v1/embed       {"texts": [...], "raw": false}
  POST /api/v1/rank        {"corpus": [...], "queries": [...], "k": 3}
  POST /api/v1/similarity  {"a": [...], "b": [...]}
  GET  /health

Examples:
  svec serve
  svec serve --host 0.0.0.0 --port 9090`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	p, err := embedding.NewPipelineFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(p, cfg.Server, logger)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Info().Msg("Server stopped")
	return nil
}
