// Package server exposes stored items, analyses, drafts and runs over a
// read-only JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"researchpub/internal/config"
	"researchpub/internal/core"
	"researchpub/internal/logger"
	"researchpub/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Store is the read side of the persistence layer
type Store interface {
	Ping(ctx context.Context) error
	ListItems(ctx context.Context, opts store.ListOptions) ([]store.StoredItem, error)
	GetItem(ctx context.Context, id string) (store.StoredItem, error)
	GetAnalysis(ctx context.Context, itemID string) (*core.AnalysisResult, error)
	ListDrafts(ctx context.Context, opts store.ListOptions) ([]*core.Draft, error)
	GetDraft(ctx context.Context, id string) (*core.Draft, error)
	ListRuns(ctx context.Context, kind string, limit int) ([]*core.Run, error)
	CacheStats(ctx context.Context) (core.CacheStats, error)
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	store      Store
	config     config.Server
	started    time.Time
	log        zerolog.Logger
}

// New creates a new HTTP server instance
func New(st Store, cfg config.Server) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		store:   st,
		config:  cfg,
		started: time.Now(),
		log:     logger.Component("server"),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.handleListItems)
			r.Get("/{id}", s.handleGetItem)
			r.Get("/{id}/analysis", s.handleGetAnalysis)
		})

		r.Route("/drafts", func(r chi.Router) {
			r.Get("/", s.handleListDrafts)
			r.Get("/{id}", s.handleGetDraft)
		})

		r.Get("/runs", s.handleListRuns)
		r.Get("/cache", s.handleCacheStats)
	})
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.log.Info().
		Str("addr", s.httpServer.Addr).
		Dur("read_timeout", s.config.ReadTimeout).
		Dur("write_timeout", s.config.WriteTimeout).
		Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server gracefully...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info().Msg("HTTP server stopped")
	return nil
}

// Router returns the chi router instance
func (s *Server) Router() *chi.Mux {
	return s.router
}
