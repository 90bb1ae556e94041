package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ZanzyTHEbar/sentence-vectors/svec/common"
	"github.com/ZanzyTHEbar/sentence-vectors/svec/similarity"
)

type embedRequest struct {
	Texts []string `json:"texts"`
	Raw   bool     `json:"raw,omitempty"`
}

type embedResponse struct {
	Dimensions int         `json:"dimensions"`
	Embeddings [][]float32 `json:"embeddings"`
}

type rankRequest struct {
	Corpus  []string `json:"corpus"`
	Queries []string `json:"queries"`
	K       int      `json:"k"`
}

type rankResponse struct {
	Rankings []similarity.Ranking `json:"rankings"`
}

type similarityRequest struct {
	A []float32 `json:"a"`
	B []float32 `json:"b"`
}

type similarityResponse struct {
	Cosine float64 `json:"cosine"`
	Dot    float64 `json:"dot"`
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.withinLimit(w, len(req.Texts)) {
		return
	}

	embed := s.embedder.EmbedTensor
	if req.Raw {
		embed = s.embedder.EmbedRaw
	}
	out, err := embed(r.Context(), req.Texts)
	if err != nil {
		s.logger.Error().Err(err).Msg("embed failed")
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, embedResponse{Dimensions: out.Shape[1], Embeddings: out.Rows()})
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.withinLimit(w, len(req.Corpus)+len(req.Queries)) {
		return
	}
	if req.K == 0 {
		req.K = 10
	}

	rankings, err := s.embedder.Rank(r.Context(), req.Corpus, req.Queries, req.K)
	if err != nil {
		s.logger.Error().Err(err).Msg("rank failed")
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, rankResponse{Rankings: rankings})
}

func (s *Server) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	var req similarityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dot, err := similarity.DotProduct(req.A, req.B)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	cos, err := similarity.Cosine(req.A, req.B)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, similarityResponse{Cosine: cos, Dot: dot})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "dimensions": s.embedder.Dimensions()})
}

func (s *Server) withinLimit(w http.ResponseWriter, n int) bool {
	if s.config.MaxTexts > 0 && n > s.config.MaxTexts {
		s.respondError(w, http.StatusRequestEntityTooLarge, "too many texts")
		return false
	}
	return true
}

// statusFor maps caller mistakes to 400 and everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidArgument),
		errors.Is(err, common.ErrLengthExceeded),
		errors.Is(err, common.ErrLengthMismatch):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondJSON encodes v before touching the response so an unencodable
// value becomes a 500 instead of an empty 200.
func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}
