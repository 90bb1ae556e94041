// Package server exposes the embedding pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/config"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/similarity"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/tensor"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Embedder is the part of the pipeline the API serves.
type Embedder interface {
	Dimensions() int
	EmbedTensor(ctx context.Context, texts []string) (*tensor.View, error)
	EmbedRaw(ctx context.Context, texts []string) (*tensor.View, error)
	Rank(ctx context.Context, corpus, queries []string, k int) ([]similarity.Ranking, error)
}

// Server is the HTTP server for the embedding API.
type Server struct {
	embedder Embedder
	config   config.ServerConfig
	logger   zerolog.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(embedder Embedder, cfg config.ServerConfig, logger zerolog.Logger) *Server {
	return &Server{
		embedder: embedder,
		config:   cfg,
		logger:   logger,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}

	r.Post("/api/v1/embed", s.handleEmbed)
	r.Post("/api/v1/rank", s.handleRank)
	r.Post("/api/v1/similarity", s.handleSimilarity)
	r.Get("/health", s.handleHealth)
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting server")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	}
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}
