package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/jobfmt/internal/config"
	"github.com/dgallion1/jobfmt/internal/extract"
	"github.com/dgallion1/jobfmt/internal/formatter"
	"github.com/dgallion1/jobfmt/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for jobfmt.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	extractor    extract.Extractor
	formatter    *formatter.Formatter
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. extractor may be nil.
func NewServer(orch *pipeline.Orchestrator, extractor extract.Extractor, f *formatter.Formatter, log *slog.Logger, cfg config.Config) *Server {
	if f == nil {
		f = formatter.New(nil, cfg.MaxBullets)
	}
	s := &Server{
		orchestrator: orch,
		extractor:    extractor,
		formatter:    f,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.JobfmtAPIKey, s.log))

		r.Post("/api/format", s.handleFormat)
		r.Post("/api/format/file", s.handleFormatFile)

		r.Post("/api/jobs", s.handleCreateJob)
		r.Post("/api/jobs/batch", s.handleBatchJobs)
		r.Get("/api/jobs/{jobID}/status", s.handleJobStatus)

		r.Get("/api/pages/pending", s.handleListPending)
		r.Post("/api/pages/poll", s.handlePoll)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
