package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davidbz/chatstream/internal/config"
	"github.com/davidbz/chatstream/internal/http/middleware"
	"github.com/davidbz/chatstream/internal/observability"
)

// Server represents the HTTP server.
type Server struct {
	config      config.ServerConfig
	handler     *Handler
	middlewares middleware.Middleware
	gatherer    prometheus.Gatherer
	srv         *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg *config.ServerConfig,
	handler *Handler,
	middlewares middleware.Middleware,
	gatherer prometheus.Gatherer,
) *Server {
	return &Server{
		config:      *cfg,
		handler:     handler,
		middlewares: middlewares,
		gatherer:    gatherer,
		srv:         nil,
	}
}

// Routes returns the routed handler wrapped in the middleware chain.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/conversations", s.handler.HandleCreateConversation)
	mux.HandleFunc("GET /v1/conversations/{id}", s.handler.HandleGetConversation)
	mux.HandleFunc("POST /v1/conversations/{id}/messages", s.handler.HandleSendMessage)
	mux.HandleFunc("DELETE /v1/conversations/{id}/stream", s.handler.HandleCancel)
	mux.HandleFunc("GET /v1/conversations/{id}/export", s.handler.HandleExport)
	mux.HandleFunc("PUT /v1/pricing", s.handler.HandleUpdatePricing)
	mux.HandleFunc("GET /health", s.handler.HandleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return s.middlewares(mux)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: time.Duration(s.config.ReadTimeout) * time.Second,
		ReadTimeout:       time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(s.config.WriteTimeout) * time.Second,
	}

	observability.FromContext(context.Background()).
		Info("starting HTTP server", observability.Int("port", s.config.Port))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	observability.FromContext(ctx).Info("shutting down HTTP server")

	if s.srv == nil {
		return nil
	}

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
