// Package server exposes a fitted pipeline over HTTP. The service is a
// thin apply surface: POST a batch of items, get the transformed batch
// back. Fitting and pipeline construction happen before the server
// starts; the hosted pipeline is immutable, so handlers need no locking.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/gantryml/gantry/pkg/dataset"
	"github.com/gantryml/gantry/pkg/pipeline"
)

// Server hosts one fitted pipeline.
type Server struct {
	pipe   *pipeline.Pipeline
	opt    pipeline.Optimizer
	logger *log.Logger
}

// New creates a server for a fitted pipeline. A nil optimizer disables
// the rewrite pass; a nil logger falls back to log.Default().
func New(p *pipeline.Pipeline, opt pipeline.Optimizer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{pipe: p, opt: opt, logger: logger}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/apply", s.handleApply)
	return r
}

type applyRequest struct {
	Items []any `json:"items"`
}

type applyResponse struct {
	RunID string `json:"run_id"`
	Items []any  `json:"items"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no items"})
		return
	}

	runID := uuid.NewString()
	out, err := s.pipe.ApplyBulkWith(r.Context(), dataset.FromSlice(req.Items), s.opt)
	if err != nil {
		s.logger.Error("apply failed", "run", runID, "err", err)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	items, err := out.Collect(r.Context())
	if err != nil {
		s.logger.Error("collect failed", "run", runID, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("applied batch", "run", runID, "items", len(items))
	writeJSON(w, http.StatusOK, applyResponse{RunID: runID, Items: items})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
