package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docsift/internal/config"
	"github.com/dgallion1/docsift/internal/metrics"
	"github.com/dgallion1/docsift/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API server for docsift.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	oracles      pipeline.Oracles
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, oracles pipeline.Oracles, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		oracles:      oracles,
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
	metrics.RegisterMetrics()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(metrics.Middleware())

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.HTTP.APIKey != "" {
			r.Use(requireAPIKey(s.cfg.HTTP.APIKey, s.log))
		}

		r.Post("/api/rank", s.handleRank)
		r.Post("/api/outline", s.handleOutline)
		r.Get("/api/stats/oracles", s.handleOracleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
