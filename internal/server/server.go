// Package server provides the HTTP API for dataset discovery.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/ausdata/internal/config"
	"github.com/hyperjump/ausdata/internal/metrics"
	"github.com/hyperjump/ausdata/internal/models"
	"github.com/hyperjump/ausdata/pkg/utils"
)

// Discovery is the search and browse capability the API serves.
type Discovery interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
	Browse(q models.CatalogueQuery) (*models.CataloguePage, error)
	Dataset(id string) (models.Dataset, bool)
	Facets() models.Facets
	Backend() models.BackendStatus
	Len() int
}

// Server is the HTTP server for the discovery API.
type Server struct {
	discovery Discovery
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(discovery Discovery, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		discovery: discovery,
		config:    cfg,
		logger:    utils.OrNop(logger),
	}
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(instrument)

	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/datasets", s.handleListDatasets)
	r.Get("/api/v1/datasets/{id}", s.handleGetDataset)
	r.Get("/api/v1/facets", s.handleFacets)
	r.Get("/api/v1/backend", s.handleBackend)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// instrument records request duration and count by route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)
		metrics.RequestDuration.WithLabelValues(r.Method, path, code).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(r.Method, path, code).Inc()
	})
}
