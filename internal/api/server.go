// Package api provides the HTTP API for Shrike.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/copyintel/shrike/internal/classifier"
	"github.com/copyintel/shrike/internal/domain"
	"github.com/copyintel/shrike/internal/matcher"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, bus domain.EventBus, m *matcher.Matcher, enricher domain.Enricher, clsCfg classifier.Config, rulesPath, version string) *Server {
	handler := NewHandler(repo, cache, bus, m, enricher, clsCfg, rulesPath, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints (no tenant required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (tenant required)
	router.Route("/", func(r chi.Router) {
		r.Use(TenantMiddleware)

		// Classification
		r.Post("/classify", handler.Classify)
		r.Post("/classify/batch", handler.ClassifyBatch)

		// Campaign analysis
		r.Post("/campaigns/analyze", handler.AnalyzeCampaign)
		r.Get("/campaigns/{id}", handler.GetCampaignReport)

		// Classification retrieval
		r.Get("/classifications", handler.ListClassifications)
		r.Get("/classifications/{id}", handler.GetClassification)

		// Typology inspection
		r.Get("/typologies", handler.ListTypologies)
		r.Get("/typologies/{key}", handler.GetTypology)

		// Rule management
		r.Get("/rules/validate", handler.ValidateRules)
		r.Post("/rules/reload", handler.ReloadRules)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
